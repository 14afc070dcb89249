package project

import (
	"errors"
	"strings"
	"time"

	"github.com/ngeni/portal/internal/domain/task"
	"github.com/ngeni/portal/internal/domain/user"
)

type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusReview     Status = "REVIEW"
	StatusCompleted  Status = "COMPLETED"
	StatusPaused     Status = "PAUSED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInProgress, StatusReview, StatusCompleted, StatusPaused:
		return true
	}
	return false
}

type Project struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      Status     `json:"status"`
	ClientID    string     `json:"clientId"`
	Budget      *float64   `json:"budget,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// DatesValid reports whether the end date, when both are set, is not before the start.
func (p Project) DatesValid() bool {
	return checkDates(p.StartDate, p.EndDate) == nil
}

// ListItem is a project row as shown in dashboards. Client is only set for admins.
type ListItem struct {
	Project
	Client *user.Summary  `json:"client,omitempty"`
	Tasks  []task.Summary `json:"tasks"`
}

// Detail is a project with its owner and fully sorted tasks.
type Detail struct {
	Project
	Client user.Summary `json:"client"`
	Tasks  []task.Task  `json:"tasks"`
}

type Stats struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"inProgress"`
	Done       int `json:"done"`
}

// StatsFromCounts folds per-status counts into Stats.
func StatsFromCounts(counts map[task.Status]int) Stats {
	s := Stats{
		Todo:       counts[task.StatusTodo],
		InProgress: counts[task.StatusInProgress],
		Done:       counts[task.StatusDone],
	}
	s.Total = s.Todo + s.InProgress + s.Done
	return s
}

var (
	ErrNotFound     = errors.New("project not found")
	ErrInvalidDates = errors.New("endDate must not be before startDate")
)

type CreateRequest struct {
	Title       string     `json:"title" binding:"required,min=3,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	ClientID    string     `json:"clientId" binding:"required,uuid"`
	Status      Status     `json:"status" binding:"omitempty,oneof=IN_PROGRESS REVIEW COMPLETED PAUSED"`
	Budget      *float64   `json:"budget" binding:"omitempty,gt=0"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

func (r *CreateRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = trimPtr(r.Description)
	if r.Status == "" {
		r.Status = StatusInProgress
	}
}

func (r CreateRequest) Validate() error {
	return checkDates(r.StartDate, r.EndDate)
}

// UpdateRequest is partial: nil fields keep their stored value.
type UpdateRequest struct {
	ID          string     `json:"id" binding:"required,uuid"`
	Title       *string    `json:"title" binding:"omitempty,min=3,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	ClientID    *string    `json:"clientId" binding:"omitempty,uuid"`
	Status      *Status    `json:"status" binding:"omitempty,oneof=IN_PROGRESS REVIEW COMPLETED PAUSED"`
	Budget      *float64   `json:"budget" binding:"omitempty,gt=0"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

func (r *UpdateRequest) Normalize() {
	r.Title = trimPtr(r.Title)
	r.Description = trimPtr(r.Description)
}

func (r UpdateRequest) Validate() error {
	return checkDates(r.StartDate, r.EndDate)
}

// Apply returns p with the request's non-nil fields written over it.
func (r UpdateRequest) Apply(p Project) Project {
	if r.Title != nil {
		p.Title = *r.Title
	}
	if r.Description != nil {
		p.Description = r.Description
	}
	if r.ClientID != nil {
		p.ClientID = *r.ClientID
	}
	if r.Status != nil {
		p.Status = *r.Status
	}
	if r.Budget != nil {
		p.Budget = r.Budget
	}
	if r.StartDate != nil {
		p.StartDate = r.StartDate
	}
	if r.EndDate != nil {
		p.EndDate = r.EndDate
	}
	return p
}

// IDRequest is the input of every procedure addressing one project.
type IDRequest struct {
	ID string `json:"id" binding:"required,uuid"`
}

type ProjectIDRequest struct {
	ProjectID string `json:"projectId" binding:"required,uuid"`
}

func checkDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return ErrInvalidDates
	}
	return nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
