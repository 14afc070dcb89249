package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// LeadCursor is the position after which the next page of leads starts.
// Leads are listed newest first, ties broken by id descending.
type LeadCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

func EncodeLeadCursor(createdAt time.Time, id string) (string, error) {
	b, err := json.Marshal(LeadCursor{CreatedAt: createdAt, ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeLeadCursor(cursor string) (LeadCursor, error) {
	if cursor == "" {
		return LeadCursor{}, ErrInvalidCursor
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return LeadCursor{}, ErrInvalidCursor
	}

	var c LeadCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return LeadCursor{}, ErrInvalidCursor
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return LeadCursor{}, ErrInvalidCursor
	}
	return c, nil
}

// After reports whether a lead at (createdAt, id) comes after the cursor in listing order.
func (c LeadCursor) After(createdAt time.Time, id string) bool {
	if !createdAt.Equal(c.CreatedAt) {
		return createdAt.Before(c.CreatedAt)
	}
	return id < c.ID
}
