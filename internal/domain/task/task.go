package task

import (
	"errors"
	"sort"
	"strings"
	"time"
)

type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Rank orders priorities from LOW (0) to URGENT (3).
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	}
	return -1
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	ProjectID   string     `json:"projectId"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Summary is the compact form listed under each project.
type Summary struct {
	ID       string   `json:"id"`
	Status   Status   `json:"status"`
	Priority Priority `json:"priority"`
}

func (t Task) Summary() Summary {
	return Summary{ID: t.ID, Status: t.Status, Priority: t.Priority}
}

var ErrNotFound = errors.New("task not found")

type ListFilter struct {
	ProjectID string
	Status    *Status
}

type CreateRequest struct {
	Title       string     `json:"title" binding:"required,min=3,max=300"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	ProjectID   string     `json:"projectId" binding:"required,uuid"`
	Status      Status     `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	Priority    Priority   `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DueDate     *time.Time `json:"dueDate"`
}

func (r *CreateRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = trimPtr(r.Description)
	if r.Status == "" {
		r.Status = StatusTodo
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
}

// UpdateRequest is a partial update: nil fields are left untouched.
type UpdateRequest struct {
	ID          string     `json:"id" binding:"required,uuid"`
	Title       *string    `json:"title" binding:"omitempty,min=3,max=300"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	ProjectID   *string    `json:"projectId" binding:"omitempty,uuid"`
	Status      *Status    `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	Priority    *Priority  `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DueDate     *time.Time `json:"dueDate"`
}

func (r *UpdateRequest) Normalize() {
	r.Title = trimPtr(r.Title)
	r.Description = trimPtr(r.Description)
}

// TouchesOnlyStatus reports whether status is the single field being set.
func (r UpdateRequest) TouchesOnlyStatus() bool {
	return r.Status != nil &&
		r.Title == nil &&
		r.Description == nil &&
		r.ProjectID == nil &&
		r.Priority == nil &&
		r.DueDate == nil
}

// Apply returns t with the request's non-nil fields written over it.
func (r UpdateRequest) Apply(t Task) Task {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		t.Description = r.Description
	}
	if r.ProjectID != nil {
		t.ProjectID = *r.ProjectID
	}
	if r.Status != nil {
		t.Status = *r.Status
	}
	if r.Priority != nil {
		t.Priority = *r.Priority
	}
	if r.DueDate != nil {
		t.DueDate = r.DueDate
	}
	return t
}

type IDRequest struct {
	ID string `json:"id" binding:"required,uuid"`
}

type ListByProjectRequest struct {
	ProjectID string `json:"projectId" binding:"required,uuid"`
	Status    Status `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS DONE"`
}

func (r ListByProjectRequest) Filter() ListFilter {
	f := ListFilter{ProjectID: r.ProjectID}
	if r.Status != "" {
		s := r.Status
		f.Status = &s
	}
	return f
}

// Sort orders tasks the way the board shows them: priority desc, then oldest first.
func Sort(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		ri, rj := tasks[i].Priority.Rank(), tasks[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
