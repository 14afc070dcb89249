package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/auth"
	"github.com/ngeni/portal/internal/domain/lead"
	"github.com/ngeni/portal/internal/notifications"
	"github.com/ngeni/portal/internal/rpc"
)

func syncLeadService(store LeadStore, n notifications.Notifier, now time.Time) *LeadService {
	s := NewLeadService(store, n, LeadServiceConfig{StatsTTL: time.Minute}, nil)
	s.goAsync = func(fn func()) { fn() }
	s.now = func() time.Time { return now }
	return s
}

func leadRequest(email string) lead.CreateRequest {
	req := lead.CreateRequest{
		Name:    "Kofi Mensah",
		Email:   email,
		Message: "We would like a quote for a new website.",
		Service: "web",
	}
	req.Normalize()
	return req
}

func TestLeadDedupeWindow(t *testing.T) {
	f := newFixture()
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	var notified []string
	svc := syncLeadService(f.leads, notifierFunc(func(_ context.Context, l lead.Lead) error {
		notified = append(notified, l.Email)
		return nil
	}), now)
	ctx := context.Background()

	first, err := svc.Create(ctx, auth.Anonymous(), leadRequest("kofi@example.com"))
	if err != nil || !first.Success || first.Lead == nil {
		t.Fatalf("first = %+v, %v", first, err)
	}

	again, err := svc.Create(ctx, auth.Anonymous(), leadRequest("kofi@example.com"))
	if err != nil || !again.Success || again.Lead != nil {
		t.Fatalf("duplicate = %+v, %v", again, err)
	}

	svc.now = func() time.Time { return now.Add(25 * time.Hour) }
	later, err := svc.Create(ctx, auth.Anonymous(), leadRequest("kofi@example.com"))
	if err != nil || later.Lead == nil {
		t.Fatalf("after window = %+v, %v", later, err)
	}

	if len(notified) != 2 {
		t.Fatalf("notifications = %d, want 2", len(notified))
	}
	page, _ := svc.GetAll(ctx, auth.Anonymous(), lead.ListRequest{Limit: 10})
	if len(page.Leads) != 2 {
		t.Fatalf("stored leads = %d, want 2", len(page.Leads))
	}
}

func TestLeadNotifierFailureIsSwallowed(t *testing.T) {
	f := newFixture()
	svc := syncLeadService(f.leads, notifierFunc(func(context.Context, lead.Lead) error {
		return errors.New("smtp down")
	}), time.Now().UTC())

	rec, err := svc.Create(context.Background(), auth.Anonymous(), leadRequest("ama@example.com"))
	if err != nil || rec.Lead == nil {
		t.Fatalf("Create = %+v, %v", rec, err)
	}
}

func TestLeadStoreFailures(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeLeads
	}{
		{"dedupe check fails", &fakeLeads{existsSinceFn: func(context.Context, string, time.Time) (bool, error) {
			return false, errStoreDown
		}}},
		{"insert fails", &fakeLeads{createFn: func(context.Context, lead.Lead) (lead.Lead, error) {
			return lead.Lead{}, errStoreDown
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := syncLeadService(tt.store, nil, time.Now().UTC())
			_, err := svc.Create(context.Background(), auth.Anonymous(), leadRequest("ama@example.com"))
			wantKind(t, err, apperr.KindInternal)
		})
	}
}

func TestLeadPaging(t *testing.T) {
	f := newFixture()
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	svc := syncLeadService(f.leads, nil, base)
	ctx := context.Background()

	emails := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com"}
	for i, e := range emails {
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		if _, err := svc.Create(ctx, auth.Anonymous(), leadRequest(e)); err != nil {
			t.Fatalf("Create %s: %v", e, err)
		}
	}

	var seen []string
	req := lead.ListRequest{Limit: 2}
	for pages := 0; pages < 5; pages++ {
		page, err := svc.GetAll(ctx, auth.Anonymous(), req)
		if err != nil {
			t.Fatalf("GetAll: %v", err)
		}
		for _, l := range page.Leads {
			seen = append(seen, l.Email)
		}
		if page.NextCursor == "" {
			break
		}
		req.Cursor = page.NextCursor
	}

	want := []string{"e@example.com", "d@example.com", "c@example.com", "b@example.com", "a@example.com"}
	if len(seen) != len(want) {
		t.Fatalf("seen %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("order = %v, want %v", seen, want)
		}
	}

	_, err := svc.GetAll(ctx, auth.Anonymous(), lead.ListRequest{Limit: 2, Cursor: "not-a-cursor"})
	wantKind(t, err, apperr.KindBadRequest)
}

func TestLeadStatsCacheDroppedOnWrite(t *testing.T) {
	calls := 0
	store := &fakeLeads{statsFn: func(context.Context, time.Time) (lead.Stats, error) {
		calls++
		return lead.Stats{Total: calls}, nil
	}}
	svc := syncLeadService(store, nil, time.Now().UTC())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		st, err := svc.GetStats(ctx, auth.Anonymous(), rpc.Empty{})
		if err != nil || st.Total != 1 {
			t.Fatalf("GetStats #%d = %+v, %v", i, st, err)
		}
	}

	if _, err := svc.Create(ctx, auth.Anonymous(), leadRequest("new@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	st, err := svc.GetStats(ctx, auth.Anonymous(), rpc.Empty{})
	if err != nil || st.Total != 2 {
		t.Fatalf("after create = %+v, %v", st, err)
	}
}

func TestLeadStatsFromStore(t *testing.T) {
	f := newFixture()
	svc := syncLeadService(f.leads, nil, time.Now().UTC())
	ctx := context.Background()

	for _, e := range []string{"a@example.com", "b@example.com"} {
		if _, err := svc.Create(ctx, auth.Anonymous(), leadRequest(e)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	st, err := svc.GetStats(ctx, auth.Anonymous(), rpc.Empty{})
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if st.Total != 2 || st.RecentWeek != 2 {
		t.Fatalf("stats = %+v", st)
	}
	if len(st.ByService) != 1 || st.ByService[0].Key != "web" || st.ByService[0].Count != 2 {
		t.Fatalf("byService = %+v", st.ByService)
	}
}

func TestLeadGetAndDelete(t *testing.T) {
	f := newFixture()
	svc := syncLeadService(f.leads, nil, time.Now().UTC())
	ctx := context.Background()

	rec, err := svc.Create(ctx, auth.Anonymous(), leadRequest("a@example.com"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := svc.GetByID(ctx, auth.Anonymous(), lead.IDRequest{ID: rec.Lead.ID})
	if err != nil || got.Source != lead.SourceContactForm {
		t.Fatalf("GetByID = %+v, %v", got, err)
	}

	if _, err := svc.Delete(ctx, auth.Anonymous(), lead.IDRequest{ID: rec.Lead.ID}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = svc.GetByID(ctx, auth.Anonymous(), lead.IDRequest{ID: rec.Lead.ID})
	wantKind(t, err, apperr.KindNotFound)
}
