package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ngeni/portal/internal/domain/user"
)

// DefaultSessionTTL is how long a login stays valid.
const DefaultSessionTTL = 30 * 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevoked      = errors.New("session revoked")
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RevocationStore remembers logged-out session ids until their token would have expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type Manager struct {
	secret  []byte
	ttl     time.Duration
	revoked RevocationStore
	now     func() time.Time
}

func NewManager(secret string, ttl time.Duration, revoked RevocationStore) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Manager{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: revoked,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a session token for the user.
func (m *Manager) Issue(userID string, role user.Role) (string, Identity, error) {
	now := m.now()
	id := Identity{
		UserID:    userID,
		Role:      role,
		SessionID: uuid.NewString(),
		ExpiresAt: now.Add(m.ttl).Truncate(time.Second),
	}

	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.SessionID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(id.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", Identity{}, err
	}
	return token, id, nil
}

// Parse checks signature and expiry only. It does not consult the revocation store.
func (m *Manager) Parse(tokenStr string) (*Identity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	role := user.Role(claims.Role)
	if claims.Subject == "" || claims.ID == "" || !role.Valid() {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UserID:    claims.Subject,
		Role:      role,
		SessionID: claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Identify parses the token and rejects sessions that were logged out.
func (m *Manager) Identify(ctx context.Context, tokenStr string) (*Identity, error) {
	id, err := m.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if m.revoked == nil {
		return id, nil
	}

	revoked, err := m.revoked.IsRevoked(ctx, id.SessionID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevoked
	}
	return id, nil
}

// Revoke ends the session until its token would have expired anyway.
func (m *Manager) Revoke(ctx context.Context, id Identity) error {
	if m.revoked == nil || id.SessionID == "" {
		return nil
	}
	return m.revoked.Revoke(ctx, id.SessionID, id.ExpiresAt)
}
