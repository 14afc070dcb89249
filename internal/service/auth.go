package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/auth"
	"github.com/ngeni/portal/internal/domain/user"
	"github.com/ngeni/portal/internal/rpc"
	"github.com/ngeni/portal/internal/security"
)

type AuthService struct {
	users    UserStore
	projects ProjectStore
	hasher   security.Hasher
	sessions *auth.Manager
	log      *slog.Logger
	now      Clock

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users UserStore, projects ProjectStore, hasher security.Hasher, sessions *auth.Manager, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{
		users:    users,
		projects: projects,
		hasher:   hasher,
		sessions: sessions,
		log:      log,
		now:      systemClock,
	}
}

// LoginResult carries the session token. The transport also sets it as a cookie.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      user.User `json:"user"`
}

func (r LoginResult) SessionCookie() (string, time.Time) { return r.Token, r.ExpiresAt }

type LogoutResult struct {
	Success
}

func (LogoutResult) EndsSession() bool { return true }

func errPasswordTooLong() error {
	return apperr.BadRequest("Password must be at most 72 bytes.")
}

// Register creates a CLIENT account.
func (s *AuthService) Register(ctx context.Context, _ auth.Caller, req user.RegisterRequest) (user.User, error) {
	return s.createUser(ctx, req.Name, req.Email, req.Password, user.RoleClient)
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, role user.Role) (user.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return user.User{}, errPasswordTooLong()
		}
		return user.User{}, internal("hash password", err)
	}

	now := s.now()
	u, err := s.users.Create(ctx, user.User{
		ID:           uuid.NewString(),
		Email:        user.NormalizeEmail(email),
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return user.User{}, apperr.Conflict("An account with this email already exists.")
		}
		return user.User{}, internal("create user", err)
	}
	return u, nil
}

// Verify reports whether the credentials match a stored user. Unknown emails
// still pay for one bcrypt comparison so both failures take the same time.
func (s *AuthService) Verify(ctx context.Context, email, password string) (user.User, bool, error) {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			_ = s.hasher.Check(s.dummy(), password)
			return user.User{}, false, nil
		}
		return user.User{}, false, err
	}

	if u.PasswordHash == "" || s.hasher.Check(u.PasswordHash, password) != nil {
		return user.User{}, false, nil
	}
	return u, true, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("portal-dummy-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func (s *AuthService) Login(ctx context.Context, _ auth.Caller, req user.LoginRequest) (LoginResult, error) {
	u, matched, err := s.Verify(ctx, req.Email, req.Password)
	if err != nil {
		return LoginResult{}, internal("verify credentials", err)
	}
	if !matched {
		return LoginResult{}, apperr.Unauthorized("Invalid credentials.")
	}

	token, id, err := s.sessions.Issue(u.ID, u.Role)
	if err != nil {
		return LoginResult{}, internal("issue session", err)
	}

	return LoginResult{Token: token, ExpiresAt: id.ExpiresAt, User: u}, nil
}

// Logout always succeeds. A failing revocation store is logged.
func (s *AuthService) Logout(ctx context.Context, c auth.Caller, _ rpc.Empty) (LogoutResult, error) {
	if c.Identity != nil {
		if err := s.sessions.Revoke(ctx, *c.Identity); err != nil {
			s.log.WarnContext(ctx, "logout: revoke session failed",
				"user_id", c.Identity.UserID,
				"err", err,
			)
		}
	}
	return LogoutResult{Success: succeeded}, nil
}

func (s *AuthService) Me(ctx context.Context, c auth.Caller, _ rpc.Empty) (user.WithProjectCount, error) {
	u, err := s.users.GetByID(ctx, c.UserID())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.WithProjectCount{}, apperr.NotFound("User not found.")
		}
		return user.WithProjectCount{}, internal("load user", err)
	}

	n, err := s.projects.CountByClient(ctx, u.ID)
	if err != nil {
		return user.WithProjectCount{}, internal("count projects", err)
	}
	return user.WithProjectCount{User: u, ProjectCount: n}, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, c auth.Caller, req user.UpdateProfileRequest) (user.User, error) {
	u, err := s.users.UpdateProfile(ctx, c.UserID(), req)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, apperr.NotFound("User not found.")
		}
		return user.User{}, internal("update profile", err)
	}
	return u, nil
}
