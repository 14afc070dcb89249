package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ngeni/portal/internal/domain/lead"
	"github.com/ngeni/portal/internal/utils"
)

type LeadsRepo struct {
	s *Store
}

func (r *LeadsRepo) Create(_ context.Context, l lead.Lead) (lead.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.leads[l.ID] = l
	return l, nil
}

func (r *LeadsRepo) ExistsSince(_ context.Context, email string, since time.Time) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, l := range r.s.leads {
		if l.Email == email && !l.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *LeadsRepo) List(_ context.Context, f lead.ListFilter, after *utils.LeadCursor, limit int) ([]lead.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []lead.Lead{}
	for _, l := range r.s.leads {
		if f.Service != "" && (l.Service == nil || *l.Service != f.Service) {
			continue
		}
		if f.Source != "" && string(l.Source) != f.Source {
			continue
		}
		if after != nil && !after.After(l.CreatedAt, l.ID) {
			continue
		}
		out = append(out, l)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *LeadsRepo) GetByID(_ context.Context, id string) (lead.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.leads[id]
	if !ok {
		return lead.Lead{}, lead.ErrNotFound
	}
	return l, nil
}

func (r *LeadsRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.leads[id]; !ok {
		return lead.ErrNotFound
	}
	delete(r.s.leads, id)
	return nil
}

func (r *LeadsRepo) Stats(_ context.Context, since time.Time) (lead.Stats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	byService := map[string]int{}
	bySource := map[string]int{}
	st := lead.Stats{}
	for _, l := range r.s.leads {
		st.Total++
		svc := ""
		if l.Service != nil {
			svc = *l.Service
		}
		byService[svc]++
		bySource[string(l.Source)]++
		if !l.CreatedAt.Before(since) {
			st.RecentWeek++
		}
	}
	st.ByService = counts(byService)
	st.BySource = counts(bySource)
	return st, nil
}

// counts orders groups by size desc, then key.
func counts(m map[string]int) []lead.Count {
	out := make([]lead.Count, 0, len(m))
	for k, n := range m {
		out = append(out, lead.Count{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}
