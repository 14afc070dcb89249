package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/ngeni/portal/internal/domain/user"
)

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return user.User{}, user.ErrEmailTaken
		}
	}
	r.s.users[u.ID] = u
	return u, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

// List returns matching users newest first.
func (r *UsersRepo) List(_ context.Context, f user.ListFilter) ([]user.WithProjectCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := map[string]int{}
	for _, p := range r.s.projects {
		counts[p.ClientID]++
	}

	search := strings.ToLower(f.Search)
	out := []user.WithProjectCount{}
	for _, u := range r.s.users {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		out = append(out, user.WithProjectCount{User: u, ProjectCount: counts[u.ID]})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *UsersRepo) UpdateProfile(_ context.Context, id string, req user.UpdateProfileRequest) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Image != nil {
		u.Image = req.Image
	}
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return u, nil
}

func (r *UsersRepo) UpdateRole(_ context.Context, id string, role user.Role) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return u, nil
}

// Delete removes the user with the projects it owns and their tasks.
func (r *UsersRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return user.ErrNotFound
	}
	for pid, p := range r.s.projects {
		if p.ClientID == id {
			r.s.deleteProjectLocked(pid)
		}
	}
	delete(r.s.users, id)
	return nil
}
