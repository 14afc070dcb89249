// Package service holds the procedure bodies: role scoping, existence checks
// and the translation of store errors into caller-facing ones.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/domain/lead"
	"github.com/ngeni/portal/internal/domain/project"
	"github.com/ngeni/portal/internal/domain/task"
	"github.com/ngeni/portal/internal/domain/user"
	"github.com/ngeni/portal/internal/utils"
)

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	List(ctx context.Context, f user.ListFilter) ([]user.WithProjectCount, error)
	UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error)
	UpdateRole(ctx context.Context, id string, role user.Role) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type ProjectStore interface {
	Create(ctx context.Context, p project.Project) (project.Project, error)
	GetByID(ctx context.Context, id string) (project.Project, error)
	// List returns projects ordered by updatedAt desc, all of them when clientID is nil.
	List(ctx context.Context, clientID *string) ([]project.Project, error)
	Update(ctx context.Context, req project.UpdateRequest) (project.Project, error)
	Delete(ctx context.Context, id string) error
	CountByClient(ctx context.Context, clientID string) (int, error)
}

type TaskStore interface {
	Create(ctx context.Context, t task.Task) (task.Task, error)
	GetByID(ctx context.Context, id string) (task.Task, error)
	List(ctx context.Context, f task.ListFilter) ([]task.Task, error)
	// ListByProjects groups the tasks of several projects by project id.
	ListByProjects(ctx context.Context, projectIDs []string) (map[string][]task.Task, error)
	Update(ctx context.Context, req task.UpdateRequest) (task.Task, error)
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, projectID string) (map[task.Status]int, error)
}

type LeadStore interface {
	Create(ctx context.Context, l lead.Lead) (lead.Lead, error)
	ExistsSince(ctx context.Context, email string, since time.Time) (bool, error)
	// List returns up to limit leads newest first, starting after the cursor when set.
	List(ctx context.Context, f lead.ListFilter, after *utils.LeadCursor, limit int) ([]lead.Lead, error)
	GetByID(ctx context.Context, id string) (lead.Lead, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, since time.Time) (lead.Stats, error)
}

// Clock is the time source, swapped in tests.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// Success is the payload of mutations that return nothing else.
type Success struct {
	Success bool `json:"success"`
}

var succeeded = Success{Success: true}

// internal hides err from the caller and keeps it for the log line.
func internal(op string, err error) error {
	return apperr.Internal(fmt.Errorf("%s: %w", op, err))
}
