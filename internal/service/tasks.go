package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/auth"
	"github.com/ngeni/portal/internal/domain/project"
	"github.com/ngeni/portal/internal/domain/task"
)

type TaskService struct {
	tasks    TaskStore
	projects ProjectStore
	policy   task.TransitionPolicy
	now      Clock
}

func NewTaskService(tasks TaskStore, projects ProjectStore, policy task.TransitionPolicy) *TaskService {
	if policy == nil {
		policy = task.Permissive{}
	}
	return &TaskService{tasks: tasks, projects: projects, policy: policy, now: systemClock}
}

var errTaskNotFound = apperr.NotFound("Task not found.")

func (s *TaskService) GetByProject(ctx context.Context, c auth.Caller, req task.ListByProjectRequest) ([]task.Task, error) {
	if _, err := accessible(ctx, s.projects, c, req.ProjectID); err != nil {
		return nil, err
	}

	ts, err := s.tasks.List(ctx, req.Filter())
	if err != nil {
		return nil, internal("list tasks", err)
	}
	if ts == nil {
		ts = []task.Task{}
	}
	task.Sort(ts)
	return ts, nil
}

// GetBoard returns the project's tasks grouped in kanban columns.
func (s *TaskService) GetBoard(ctx context.Context, c auth.Caller, req project.ProjectIDRequest) (task.Board, error) {
	if _, err := accessible(ctx, s.projects, c, req.ProjectID); err != nil {
		return task.Board{}, err
	}

	ts, err := s.tasks.List(ctx, task.ListFilter{ProjectID: req.ProjectID})
	if err != nil {
		return task.Board{}, internal("list tasks", err)
	}
	return task.BuildBoard(req.ProjectID, ts), nil
}

func (s *TaskService) Create(ctx context.Context, _ auth.Caller, req task.CreateRequest) (task.Task, error) {
	if _, err := s.projects.GetByID(ctx, req.ProjectID); err != nil {
		if errors.Is(err, project.ErrNotFound) {
			return task.Task{}, errProjectNotFound
		}
		return task.Task{}, internal("load project", err)
	}

	now := s.now()
	t, err := s.tasks.Create(ctx, task.Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		ProjectID:   req.ProjectID,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			return task.Task{}, errProjectNotFound
		}
		return task.Task{}, internal("create task", err)
	}
	return t, nil
}

// Update lets admins change any field. Clients may only move the status of a
// task in one of their own projects, and status must be the only field sent.
func (s *TaskService) Update(ctx context.Context, c auth.Caller, req task.UpdateRequest) (task.Task, error) {
	current, err := s.tasks.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return task.Task{}, errTaskNotFound
		}
		return task.Task{}, internal("load task", err)
	}

	if !c.IsAdmin() {
		if _, err := accessible(ctx, s.projects, c, current.ProjectID); err != nil {
			return task.Task{}, err
		}
		if !req.TouchesOnlyStatus() {
			return task.Task{}, apperr.BadRequest("Clients may only change the status of a task.")
		}
	}

	if req.ProjectID != nil && *req.ProjectID != current.ProjectID {
		if _, err := s.projects.GetByID(ctx, *req.ProjectID); err != nil {
			if errors.Is(err, project.ErrNotFound) {
				return task.Task{}, errProjectNotFound
			}
			return task.Task{}, internal("load project", err)
		}
	}

	if req.Status != nil {
		if err := task.CheckTransition(s.policy, current.Status, *req.Status); err != nil {
			return task.Task{}, apperr.BadRequest("This status change is not allowed.").
				WithDetails(map[string]string{"from": string(current.Status), "to": string(*req.Status)}).
				WithCause(err)
		}
	}

	t, err := s.tasks.Update(ctx, req)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return task.Task{}, errTaskNotFound
		}
		return task.Task{}, internal("update task", err)
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, _ auth.Caller, req task.IDRequest) (Success, error) {
	if _, err := s.tasks.GetByID(ctx, req.ID); err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return Success{}, errTaskNotFound
		}
		return Success{}, internal("load task", err)
	}
	if err := s.tasks.Delete(ctx, req.ID); err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return Success{}, errTaskNotFound
		}
		return Success{}, internal("delete task", err)
	}
	return succeeded, nil
}
