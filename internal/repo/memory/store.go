// Package memory keeps every portal record in process. It backs tests and
// runs without DATABASE_URL; cascades mirror the Postgres foreign keys.
package memory

import (
	"sync"
	"time"

	"github.com/ngeni/portal/internal/domain/lead"
	"github.com/ngeni/portal/internal/domain/project"
	"github.com/ngeni/portal/internal/domain/task"
	"github.com/ngeni/portal/internal/domain/user"
)

// Store is shared by the per-entity repos so a delete can cascade under one lock.
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	users    map[string]user.User
	projects map[string]project.Project
	tasks    map[string]task.Task
	leads    map[string]lead.Lead
}

func NewStore() *Store {
	return &Store{
		now:      func() time.Time { return time.Now().UTC() },
		users:    make(map[string]user.User),
		projects: make(map[string]project.Project),
		tasks:    make(map[string]task.Task),
		leads:    make(map[string]lead.Lead),
	}
}

// WithClock sets the time used for updatedAt stamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Users() *UsersRepo       { return &UsersRepo{s: s} }
func (s *Store) Projects() *ProjectsRepo { return &ProjectsRepo{s: s} }
func (s *Store) Tasks() *TasksRepo       { return &TasksRepo{s: s} }
func (s *Store) Leads() *LeadsRepo       { return &LeadsRepo{s: s} }

// deleteProjectLocked removes a project and its tasks. Caller holds mu.
func (s *Store) deleteProjectLocked(id string) {
	delete(s.projects, id)
	for tid, t := range s.tasks {
		if t.ProjectID == id {
			delete(s.tasks, tid)
		}
	}
}
