package redisclient

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ngeni/portal/internal/concierge"
)

// newTestClient needs a disposable Redis in TEST_REDIS_ADDR; the tests are skipped without one.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	c := New(Config{Addr: addr})
	t.Cleanup(func() { _ = c.Close() })

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	return c
}

func TestIntegration_Revocations(t *testing.T) {
	c := newTestClient(t)
	r := NewRevocations(c)
	ctx := context.Background()
	id := uuid.NewString()

	if ok, err := r.IsRevoked(ctx, id); err != nil || ok {
		t.Fatalf("fresh session revoked=%v err=%v", ok, err)
	}
	if err := r.Revoke(ctx, id, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, err := r.IsRevoked(ctx, id); err != nil || !ok {
		t.Fatalf("revoked=%v err=%v", ok, err)
	}

	expired := uuid.NewString()
	if err := r.Revoke(ctx, expired, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("revoke expired: %v", err)
	}
	if ok, _ := r.IsRevoked(ctx, expired); ok {
		t.Fatal("already expired token should not be stored")
	}
}

func TestIntegration_Conversations(t *testing.T) {
	c := newTestClient(t)
	s := NewConversations(c, time.Minute)
	ctx := context.Background()

	conv := concierge.Conversation{ID: uuid.NewString(), State: concierge.StateLeadEmail, Locale: concierge.English, Draft: concierge.Draft{Name: "Jane"}}
	if err := s.Save(ctx, conv); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, conv.ID)
	if err != nil || got.State != conv.State || got.Draft.Name != "Jane" {
		t.Fatalf("load = %+v, %v", got, err)
	}

	if _, err := s.Load(ctx, uuid.NewString()); !errors.Is(err, concierge.ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}
