package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ngeni/portal/internal/concierge"
)

// Revocations remembers logged-out session ids until their token would have expired anyway.
type Revocations struct {
	mu    sync.Mutex
	now   func() time.Time
	until map[string]time.Time
}

func NewRevocations() *Revocations {
	return &Revocations{now: time.Now, until: make(map[string]time.Time)}
}

func (r *Revocations) Revoke(_ context.Context, sessionID string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()
	r.until[sessionID] = until
	return nil
}

func (r *Revocations) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exp, ok := r.until[sessionID]
	if !ok {
		return false, nil
	}
	if r.now().After(exp) {
		delete(r.until, sessionID)
		return false, nil
	}
	return true, nil
}

func (r *Revocations) sweepLocked() {
	now := r.now()
	for id, exp := range r.until {
		if now.After(exp) {
			delete(r.until, id)
		}
	}
}

// Conversations holds concierge conversations, dropping those idle longer than ttl.
type Conversations struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]conversationEntry
}

type conversationEntry struct {
	conv concierge.Conversation
	exp  time.Time
}

func NewConversations(ttl time.Duration) *Conversations {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Conversations{ttl: ttl, now: time.Now, items: make(map[string]conversationEntry)}
}

func (c *Conversations) Load(_ context.Context, id string) (concierge.Conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[id]
	if !ok {
		return concierge.Conversation{}, concierge.ErrNotFound
	}
	if c.now().After(e.exp) {
		delete(c.items, id)
		return concierge.Conversation{}, concierge.ErrNotFound
	}
	return e.conv, nil
}

func (c *Conversations) Save(_ context.Context, conv concierge.Conversation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, e := range c.items {
		if now.After(e.exp) {
			delete(c.items, id)
		}
	}
	c.items[conv.ID] = conversationEntry{conv: conv, exp: now.Add(c.ttl)}
	return nil
}
