package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/auth"
	"github.com/ngeni/portal/internal/domain/lead"
	"github.com/ngeni/portal/internal/domain/project"
	"github.com/ngeni/portal/internal/domain/task"
	"github.com/ngeni/portal/internal/domain/user"
	"github.com/ngeni/portal/internal/repo/memory"
	"github.com/ngeni/portal/internal/utils"
)

var errStoreDown = errors.New("connection refused")

// fakeLeads overrides single store calls; unset fields fall back to zero values.
type fakeLeads struct {
	createFn      func(ctx context.Context, l lead.Lead) (lead.Lead, error)
	existsSinceFn func(ctx context.Context, email string, since time.Time) (bool, error)
	listFn        func(ctx context.Context, f lead.ListFilter, after *utils.LeadCursor, limit int) ([]lead.Lead, error)
	statsFn       func(ctx context.Context, since time.Time) (lead.Stats, error)
}

func (f *fakeLeads) Create(ctx context.Context, l lead.Lead) (lead.Lead, error) {
	if f.createFn != nil {
		return f.createFn(ctx, l)
	}
	return l, nil
}

func (f *fakeLeads) ExistsSince(ctx context.Context, email string, since time.Time) (bool, error) {
	if f.existsSinceFn != nil {
		return f.existsSinceFn(ctx, email, since)
	}
	return false, nil
}

func (f *fakeLeads) List(ctx context.Context, fl lead.ListFilter, after *utils.LeadCursor, limit int) ([]lead.Lead, error) {
	if f.listFn != nil {
		return f.listFn(ctx, fl, after, limit)
	}
	return nil, nil
}

func (f *fakeLeads) GetByID(context.Context, string) (lead.Lead, error) {
	return lead.Lead{}, lead.ErrNotFound
}

func (f *fakeLeads) Delete(context.Context, string) error { return nil }

func (f *fakeLeads) Stats(ctx context.Context, since time.Time) (lead.Stats, error) {
	if f.statsFn != nil {
		return f.statsFn(ctx, since)
	}
	return lead.Stats{}, nil
}

// fakeProjects fails every read with getErr, for paths the memory store cannot reach.
type fakeProjects struct {
	ProjectStore
	getByIDFn func(ctx context.Context, id string) (project.Project, error)
}

func (f *fakeProjects) GetByID(ctx context.Context, id string) (project.Project, error) {
	return f.getByIDFn(ctx, id)
}

type notifierFunc func(ctx context.Context, l lead.Lead) error

func (f notifierFunc) NotifyNewLead(ctx context.Context, l lead.Lead) error { return f(ctx, l) }

type fixture struct {
	store    *memory.Store
	users    *memory.UsersRepo
	projects *memory.ProjectsRepo
	tasks    *memory.TasksRepo
	leads    *memory.LeadsRepo
}

func newFixture() *fixture {
	s := memory.NewStore()
	return &fixture{store: s, users: s.Users(), projects: s.Projects(), tasks: s.Tasks(), leads: s.Leads()}
}

func (f *fixture) user(t *testing.T, email string, role user.Role) user.User {
	t.Helper()
	now := time.Now().UTC()
	u, err := f.users.Create(context.Background(), user.User{
		ID: uuid.NewString(), Email: email, Name: "User " + email, Role: role,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) project(t *testing.T, clientID string, title string) project.Project {
	t.Helper()
	now := time.Now().UTC()
	p, err := f.projects.Create(context.Background(), project.Project{
		ID: uuid.NewString(), Title: title, Status: project.StatusInProgress, ClientID: clientID,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

func (f *fixture) task(t *testing.T, projectID string, status task.Status) task.Task {
	t.Helper()
	now := time.Now().UTC()
	tk, err := f.tasks.Create(context.Background(), task.Task{
		ID: uuid.NewString(), Title: "Task " + string(status), Status: status, Priority: task.PriorityMedium,
		ProjectID: projectID, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return tk
}

func callerFor(u user.User) auth.Caller {
	return auth.As(auth.Identity{UserID: u.ID, Role: u.Role, SessionID: uuid.NewString()})
}

func wantKind(t *testing.T, err error, want apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("err = nil, want %s", want.Code())
	}
	if got := apperr.KindOf(err); got != want {
		t.Fatalf("kind = %s, want %s (err %v)", got.Code(), want.Code(), err)
	}
}

func ptr[T any](v T) *T { return &v }
