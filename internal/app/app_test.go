package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ngeni/portal/internal/authz"
	"github.com/ngeni/portal/internal/domain/user"
	"github.com/ngeni/portal/internal/notifications"
	"github.com/ngeni/portal/internal/security"
)

func testOptions() Options {
	return Options{
		SessionSecret:   "test-secret-test-secret-test-secret!",
		SessionTTL:      time.Hour,
		BcryptCost:      security.MinCost,
		LeadDedupWindow: 24 * time.Hour,
		LeadStatsTTL:    time.Second,
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(MemoryStores(time.Hour), nil, testOptions(), log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestProceduresMatchPolicy(t *testing.T) {
	a := newTestApp(t)
	policy, err := authz.NewPolicy()
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}

	procs := a.Procedures.Procedures()
	if len(procs) != 31 {
		t.Fatalf("registered %d procedures, want 31", len(procs))
	}

	for _, p := range procs {
		switch p.Access() {
		case authz.Authed:
			if !policy.Allows(user.RoleClient, p.Name()) {
				t.Errorf("%s is authed but clients are not allowed by the policy", p.Name())
			}
		case authz.Admin:
			if policy.Allows(user.RoleClient, p.Name()) {
				t.Errorf("%s is admin-only but the policy lets clients in", p.Name())
			}
			if !policy.Allows(user.RoleAdmin, p.Name()) {
				t.Errorf("%s is admin-only but the policy refuses admins", p.Name())
			}
		}
	}
}

func TestEnsureAdmin(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	if err := a.EnsureAdmin(ctx, "", "", ""); err != nil {
		t.Fatalf("empty credentials should be a no-op: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := a.EnsureAdmin(ctx, "Root", "Root@Example.com", "Sup3rSecret"); err != nil {
			t.Fatalf("EnsureAdmin #%d: %v", i, err)
		}
	}

	u, ok, err := a.Services.Auth.Verify(ctx, "root@example.com", "Sup3rSecret")
	if err != nil || !ok {
		t.Fatalf("Verify = %v, %v", ok, err)
	}
	if u.Role != user.RoleAdmin {
		t.Fatalf("role = %s, want ADMIN", u.Role)
	}
}

func TestNewLeadNotifierFallsBackToLogging(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	if _, ok := NewLeadNotifier(NotifierConfig{ResendAPIKey: "dummy", To: "team@example.com"}, nil, log).(*notifications.LogNotifier); !ok {
		t.Fatal("a key without the re_ prefix should only log")
	}
	if _, ok := NewLeadNotifier(NotifierConfig{ResendAPIKey: "re_123", To: "team@example.com"}, nil, log).(*notifications.RetryingNotifier); !ok {
		t.Fatal("a real key should send through retries and the circuit breaker")
	}
}
