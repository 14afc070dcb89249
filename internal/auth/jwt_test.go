package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ngeni/portal/internal/domain/user"
)

type fakeRevocations struct {
	mu   sync.Mutex
	ids  map[string]time.Time
	fail error
}

func (f *fakeRevocations) Revoke(_ context.Context, id string, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ids == nil {
		f.ids = map[string]time.Time{}
	}
	f.ids[id] = until
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return false, f.fail
	}
	_, ok := f.ids[id]
	return ok, nil
}

func TestIssueAndIdentify(t *testing.T) {
	m := NewManager("test-secret", 0, nil)

	token, issued, err := m.Issue("user-1", user.RoleClient)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if m.TTL() != DefaultSessionTTL {
		t.Fatalf("ttl = %v, want 30 days", m.TTL())
	}

	got, err := m.Identify(context.Background(), token)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if got.UserID != "user-1" || got.Role != user.RoleClient || got.SessionID != issued.SessionID {
		t.Fatalf("unexpected identity %+v", got)
	}
	if !got.ExpiresAt.Equal(issued.ExpiresAt) {
		t.Fatalf("expiry = %v, want %v", got.ExpiresAt, issued.ExpiresAt)
	}
}

func TestParseRejects(t *testing.T) {
	m := NewManager("test-secret", time.Hour, nil)
	good, _, _ := m.Issue("user-1", user.RoleAdmin)

	other := NewManager("another-secret", time.Hour, nil)
	foreign, _, _ := other.Issue("user-1", user.RoleAdmin)

	expiredMgr := NewManager("test-secret", time.Hour, nil)
	expiredMgr.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, _ := expiredMgr.Issue("user-1", user.RoleAdmin)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role: "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        "x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"wrong secret", foreign},
		{"expired", expired},
		{"alg none", unsigned},
		{"tampered", good + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestRevokeEndsSession(t *testing.T) {
	store := &fakeRevocations{}
	m := NewManager("test-secret", time.Hour, store)
	ctx := context.Background()

	token, issued, _ := m.Issue("user-1", user.RoleClient)

	if err := m.Revoke(ctx, issued); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if until := store.ids[issued.SessionID]; !until.Equal(issued.ExpiresAt) {
		t.Fatalf("revoked until %v, want %v", until, issued.ExpiresAt)
	}
	if _, err := m.Identify(ctx, token); !errors.Is(err, ErrRevoked) {
		t.Fatalf("err = %v, want ErrRevoked", err)
	}

	// a second login is unaffected
	fresh, _, _ := m.Issue("user-1", user.RoleClient)
	if _, err := m.Identify(ctx, fresh); err != nil {
		t.Fatalf("fresh session rejected: %v", err)
	}
}

func TestRevokeWithoutStoreIsNoop(t *testing.T) {
	m := NewManager("test-secret", time.Hour, nil)
	_, issued, _ := m.Issue("user-1", user.RoleClient)
	if err := m.Revoke(context.Background(), issued); err != nil {
		t.Fatalf("revoke: %v", err)
	}
}

func TestIdentifyFailsClosedOnStoreError(t *testing.T) {
	store := &fakeRevocations{fail: errors.New("redis down")}
	m := NewManager("test-secret", time.Hour, store)
	token, _, _ := m.Issue("user-1", user.RoleClient)

	if _, err := m.Identify(context.Background(), token); err == nil {
		t.Fatalf("expected error when the revocation store is unavailable")
	}
}

func TestCallerHelpers(t *testing.T) {
	anon := Anonymous()
	if anon.Authenticated() || anon.IsAdmin() || anon.Owns("u1") || anon.UserID() != "" {
		t.Fatalf("anonymous caller should have no rights")
	}

	client := As(Identity{UserID: "u1", Role: user.RoleClient})
	if !client.Owns("u1") || client.Owns("u2") || client.IsAdmin() {
		t.Fatalf("client ownership wrong")
	}

	admin := As(Identity{UserID: "a1", Role: user.RoleAdmin})
	if !admin.Owns("u2") || !admin.IsAdmin() {
		t.Fatalf("admin should own everything")
	}
}
