package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ngeni/portal/internal/concierge"
)

const conversationPrefix = "portal:concierge:"

// Conversations keeps each concierge conversation as JSON; every save renews the TTL.
type Conversations struct {
	c   *Client
	ttl time.Duration
}

func NewConversations(c *Client, ttl time.Duration) *Conversations {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Conversations{c: c, ttl: ttl}
}

func (s *Conversations) Load(ctx context.Context, id string) (concierge.Conversation, error) {
	raw, err := s.c.redisdb.Get(ctx, conversationPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return concierge.Conversation{}, concierge.ErrNotFound
	}
	if err != nil {
		return concierge.Conversation{}, err
	}

	var conv concierge.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return concierge.Conversation{}, err
	}
	return conv, nil
}

func (s *Conversations) Save(ctx context.Context, conv concierge.Conversation) error {
	raw, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	return s.c.redisdb.Set(ctx, conversationPrefix+conv.ID, raw, s.ttl).Err()
}
