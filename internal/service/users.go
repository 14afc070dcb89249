package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/auth"
	"github.com/ngeni/portal/internal/domain/project"
	"github.com/ngeni/portal/internal/domain/user"
	"github.com/ngeni/portal/internal/security"
)

type UserService struct {
	users    UserStore
	projects ProjectStore
	tasks    TaskStore
	accounts *AuthService
}

func NewUserService(users UserStore, projects ProjectStore, tasks TaskStore, accounts *AuthService) *UserService {
	return &UserService{users: users, projects: projects, tasks: tasks, accounts: accounts}
}

// UserDetail is a user with the projects it owns as client.
type UserDetail struct {
	user.User
	Projects []project.ListItem `json:"projects"`
}

var (
	errUserNotFound = apperr.NotFound("User not found.")
	errSelfChange   = apperr.BadRequest("You cannot change your own account this way.")
)

func (s *UserService) GetAll(ctx context.Context, _ auth.Caller, req user.ListRequest) ([]user.WithProjectCount, error) {
	us, err := s.users.List(ctx, req.Filter())
	if err != nil {
		return nil, internal("list users", err)
	}
	if us == nil {
		us = []user.WithProjectCount{}
	}
	return us, nil
}

func (s *UserService) GetByID(ctx context.Context, _ auth.Caller, req user.IDRequest) (UserDetail, error) {
	u, err := s.users.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return UserDetail{}, errUserNotFound
		}
		return UserDetail{}, internal("load user", err)
	}

	ps, err := s.projects.List(ctx, &u.ID)
	if err != nil {
		return UserDetail{}, internal("list projects", err)
	}
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	byProject, err := s.tasks.ListByProjects(ctx, ids)
	if err != nil {
		return UserDetail{}, internal("list project tasks", err)
	}

	items := make([]project.ListItem, 0, len(ps))
	for _, p := range ps {
		items = append(items, project.ListItem{Project: p, Tasks: summaries(byProject[p.ID])})
	}
	return UserDetail{User: u, Projects: items}, nil
}

// Create lets an admin open an account with any role.
func (s *UserService) Create(ctx context.Context, _ auth.Caller, req user.CreateRequest) (user.User, error) {
	return s.accounts.createUser(ctx, req.Name, req.Email, req.Password, req.Role)
}

func (s *UserService) UpdateRole(ctx context.Context, c auth.Caller, req user.UpdateRoleRequest) (user.User, error) {
	if req.ID == c.UserID() {
		return user.User{}, errSelfChange
	}
	u, err := s.users.UpdateRole(ctx, req.ID, req.Role)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, errUserNotFound
		}
		return user.User{}, internal("update role", err)
	}
	return u, nil
}

// Delete removes the account and, through the store, everything it owns.
func (s *UserService) Delete(ctx context.Context, c auth.Caller, req user.IDRequest) (Success, error) {
	if req.ID == c.UserID() {
		return Success{}, errSelfChange
	}
	if err := s.users.Delete(ctx, req.ID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Success{}, errUserNotFound
		}
		return Success{}, internal("delete user", err)
	}
	return succeeded, nil
}

// EnsureAdmin creates the bootstrap admin account when no user holds its email.
// It reports whether an account was created.
func EnsureAdmin(ctx context.Context, users UserStore, hasher security.Hasher, name, email, password string, log *slog.Logger) (bool, error) {
	email = user.NormalizeEmail(email)
	if email == "" || password == "" {
		return false, nil
	}

	if _, err := users.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return false, errPasswordTooLong()
		}
		return false, err
	}
	if name == "" {
		name = "Admin"
	}
	now := systemClock()
	_, err = users.Create(ctx, user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         user.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, user.ErrEmailTaken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if log != nil {
		log.InfoContext(ctx, "admin account created", "email", email)
	}
	return true, nil
}
