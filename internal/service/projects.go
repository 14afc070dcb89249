package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/auth"
	"github.com/ngeni/portal/internal/domain/project"
	"github.com/ngeni/portal/internal/domain/task"
	"github.com/ngeni/portal/internal/domain/user"
	"github.com/ngeni/portal/internal/invoice"
	"github.com/ngeni/portal/internal/rpc"
)

type ProjectService struct {
	projects ProjectStore
	tasks    TaskStore
	users    UserStore
	now      Clock
}

func NewProjectService(projects ProjectStore, tasks TaskStore, users UserStore) *ProjectService {
	return &ProjectService{projects: projects, tasks: tasks, users: users, now: systemClock}
}

var (
	errProjectNotFound  = apperr.NotFound("Project not found.")
	errProjectForbidden = apperr.Forbidden("You do not have access to this project.")
	errClientNotFound   = apperr.NotFound("Client not found.")
)

// accessible loads a project the caller may see: NOT_FOUND first, then ownership.
func accessible(ctx context.Context, projects ProjectStore, c auth.Caller, id string) (project.Project, error) {
	p, err := projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			return project.Project{}, errProjectNotFound
		}
		return project.Project{}, internal("load project", err)
	}
	if !c.Owns(p.ClientID) {
		return project.Project{}, errProjectForbidden
	}
	return p, nil
}

// GetAll lists every project for admins and only their own for clients.
func (s *ProjectService) GetAll(ctx context.Context, c auth.Caller, _ rpc.Empty) ([]project.ListItem, error) {
	var clientID *string
	if !c.IsAdmin() {
		id := c.UserID()
		clientID = &id
	}

	ps, err := s.projects.List(ctx, clientID)
	if err != nil {
		return nil, internal("list projects", err)
	}
	return s.listItems(ctx, ps, c.IsAdmin())
}

func (s *ProjectService) listItems(ctx context.Context, ps []project.Project, withClient bool) ([]project.ListItem, error) {
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}

	byProject, err := s.tasks.ListByProjects(ctx, ids)
	if err != nil {
		return nil, internal("list project tasks", err)
	}

	clients := map[string]*user.Summary{}
	items := make([]project.ListItem, 0, len(ps))
	for _, p := range ps {
		item := project.ListItem{Project: p, Tasks: summaries(byProject[p.ID])}

		if withClient {
			summary, seen := clients[p.ClientID]
			if !seen {
				u, err := s.users.GetByID(ctx, p.ClientID)
				if err != nil && !errors.Is(err, user.ErrNotFound) {
					return nil, internal("load client", err)
				}
				if err == nil {
					sum := u.Summary()
					summary = &sum
				}
				clients[p.ClientID] = summary
			}
			item.Client = summary
		}
		items = append(items, item)
	}
	return items, nil
}

func summaries(ts []task.Task) []task.Summary {
	out := make([]task.Summary, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Summary())
	}
	return out
}

func (s *ProjectService) GetByID(ctx context.Context, c auth.Caller, req project.IDRequest) (project.Detail, error) {
	p, err := accessible(ctx, s.projects, c, req.ID)
	if err != nil {
		return project.Detail{}, err
	}

	tasks, err := s.tasks.List(ctx, task.ListFilter{ProjectID: p.ID})
	if err != nil {
		return project.Detail{}, internal("list tasks", err)
	}
	task.Sort(tasks)

	return s.detail(ctx, p, tasks)
}

func (s *ProjectService) detail(ctx context.Context, p project.Project, tasks []task.Task) (project.Detail, error) {
	client, err := s.users.GetByID(ctx, p.ClientID)
	if err != nil {
		return project.Detail{}, internal("load client", err)
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return project.Detail{Project: p, Client: client.Summary(), Tasks: tasks}, nil
}

func (s *ProjectService) requireClient(ctx context.Context, id string) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return errClientNotFound
		}
		return internal("load client", err)
	}
	return nil
}

func (s *ProjectService) Create(ctx context.Context, _ auth.Caller, req project.CreateRequest) (project.Detail, error) {
	if err := s.requireClient(ctx, req.ClientID); err != nil {
		return project.Detail{}, err
	}

	now := s.now()
	p, err := s.projects.Create(ctx, project.Project{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		ClientID:    req.ClientID,
		Budget:      req.Budget,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return project.Detail{}, errClientNotFound
		}
		return project.Detail{}, internal("create project", err)
	}
	return s.detail(ctx, p, nil)
}

func (s *ProjectService) Update(ctx context.Context, _ auth.Caller, req project.UpdateRequest) (project.Detail, error) {
	current, err := s.projects.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			return project.Detail{}, errProjectNotFound
		}
		return project.Detail{}, internal("load project", err)
	}
	if !req.Apply(current).DatesValid() {
		return project.Detail{}, apperr.BadRequest(project.ErrInvalidDates.Error())
	}
	if req.ClientID != nil {
		if err := s.requireClient(ctx, *req.ClientID); err != nil {
			return project.Detail{}, err
		}
	}

	p, err := s.projects.Update(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, project.ErrNotFound):
			return project.Detail{}, errProjectNotFound
		case errors.Is(err, user.ErrNotFound):
			return project.Detail{}, errClientNotFound
		}
		return project.Detail{}, internal("update project", err)
	}
	return s.detail(ctx, p, nil)
}

// Delete removes the project and, through the store, its tasks.
func (s *ProjectService) Delete(ctx context.Context, _ auth.Caller, req project.IDRequest) (Success, error) {
	if _, err := s.projects.GetByID(ctx, req.ID); err != nil {
		if errors.Is(err, project.ErrNotFound) {
			return Success{}, errProjectNotFound
		}
		return Success{}, internal("load project", err)
	}
	if err := s.projects.Delete(ctx, req.ID); err != nil {
		if errors.Is(err, project.ErrNotFound) {
			return Success{}, errProjectNotFound
		}
		return Success{}, internal("delete project", err)
	}
	return succeeded, nil
}

func (s *ProjectService) GetStats(ctx context.Context, c auth.Caller, req project.ProjectIDRequest) (project.Stats, error) {
	if _, err := accessible(ctx, s.projects, c, req.ProjectID); err != nil {
		return project.Stats{}, err
	}

	counts, err := s.tasks.CountByStatus(ctx, req.ProjectID)
	if err != nil {
		return project.Stats{}, internal("count tasks", err)
	}
	return project.StatsFromCounts(counts), nil
}

func (s *ProjectService) GetInvoices(ctx context.Context, c auth.Caller, req project.ProjectIDRequest) (invoice.Summary, error) {
	p, err := accessible(ctx, s.projects, c, req.ProjectID)
	if err != nil {
		return invoice.Summary{}, err
	}
	return invoice.For(p), nil
}
