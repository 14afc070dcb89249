package memory

import (
	"context"
	"sort"

	"github.com/ngeni/portal/internal/domain/project"
	"github.com/ngeni/portal/internal/domain/user"
)

type ProjectsRepo struct {
	s *Store
}

func (r *ProjectsRepo) Create(_ context.Context, p project.Project) (project.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[p.ClientID]; !ok {
		return project.Project{}, user.ErrNotFound
	}
	r.s.projects[p.ID] = p
	return p, nil
}

func (r *ProjectsRepo) GetByID(_ context.Context, id string) (project.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	return p, nil
}

func (r *ProjectsRepo) List(_ context.Context, clientID *string) ([]project.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []project.Project{}
	for _, p := range r.s.projects {
		if clientID != nil && p.ClientID != *clientID {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *ProjectsRepo) Update(_ context.Context, req project.UpdateRequest) (project.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[req.ID]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	if req.ClientID != nil {
		if _, ok := r.s.users[*req.ClientID]; !ok {
			return project.Project{}, user.ErrNotFound
		}
	}

	p = req.Apply(p)
	if !p.DatesValid() {
		return project.Project{}, project.ErrInvalidDates
	}
	p.UpdatedAt = r.s.now()
	r.s.projects[p.ID] = p
	return p, nil
}

func (r *ProjectsRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[id]; !ok {
		return project.ErrNotFound
	}
	r.s.deleteProjectLocked(id)
	return nil
}

func (r *ProjectsRepo) CountByClient(_ context.Context, clientID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, p := range r.s.projects {
		if p.ClientID == clientID {
			n++
		}
	}
	return n, nil
}
