package memory

import (
	"context"

	"github.com/ngeni/portal/internal/domain/project"
	"github.com/ngeni/portal/internal/domain/task"
)

type TasksRepo struct {
	s *Store
}

func (r *TasksRepo) Create(_ context.Context, t task.Task) (task.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[t.ProjectID]; !ok {
		return task.Task{}, project.ErrNotFound
	}
	r.s.tasks[t.ID] = t
	return t, nil
}

func (r *TasksRepo) GetByID(_ context.Context, id string) (task.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

// List is unordered; callers sort with task.Sort.
func (r *TasksRepo) List(_ context.Context, f task.ListFilter) ([]task.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []task.Task{}
	for _, t := range r.s.tasks {
		if f.ProjectID != "" && t.ProjectID != f.ProjectID {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		out = append(out, t)
	}
	task.Sort(out)
	return out, nil
}

func (r *TasksRepo) ListByProjects(_ context.Context, projectIDs []string) (map[string][]task.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	want := make(map[string]bool, len(projectIDs))
	for _, id := range projectIDs {
		want[id] = true
	}

	out := make(map[string][]task.Task, len(projectIDs))
	for _, t := range r.s.tasks {
		if want[t.ProjectID] {
			out[t.ProjectID] = append(out[t.ProjectID], t)
		}
	}
	for _, ts := range out {
		task.Sort(ts)
	}
	return out, nil
}

func (r *TasksRepo) Update(_ context.Context, req task.UpdateRequest) (task.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[req.ID]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	if req.ProjectID != nil {
		if _, ok := r.s.projects[*req.ProjectID]; !ok {
			return task.Task{}, project.ErrNotFound
		}
	}

	t = req.Apply(t)
	t.UpdatedAt = r.s.now()
	r.s.tasks[t.ID] = t
	return t, nil
}

func (r *TasksRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return task.ErrNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

func (r *TasksRepo) CountByStatus(_ context.Context, projectID string) (map[task.Status]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := map[task.Status]int{}
	for _, t := range r.s.tasks {
		if t.ProjectID == projectID {
			counts[t.Status]++
		}
	}
	return counts, nil
}
