package user

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleClient Role = "CLIENT"
	RoleGuest  Role = "GUEST" // reserved, never assigned by self-service
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleGuest:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Name         string    `json:"name"`
	Image        *string   `json:"image,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Summary is the slice of a user embedded in project payloads.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// WithProjectCount is a user row plus the number of projects it owns as client.
type WithProjectCount struct {
	User
	ProjectCount int `json:"projectCount"`
}

type ListFilter struct {
	Role   *Role
	Search string
}

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

// NormalizeEmail is the canonical form stored and compared for uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterRequest struct {
	Name            string `json:"name" binding:"required,min=2,max=100"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8,maxbytes=72,password"`
	ConfirmPassword string `json:"confirmPassword" binding:"omitempty,eqfield=Password"`
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

type UpdateProfileRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=2,max=100"`
	Image *string `json:"image" binding:"omitempty,url"`
}

func (r *UpdateProfileRequest) Normalize() {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
}

type CreateRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,maxbytes=72,password"`
	Role     Role   `json:"role" binding:"omitempty,oneof=ADMIN CLIENT GUEST"`
}

func (r *CreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
	if r.Role == "" {
		r.Role = RoleClient
	}
}

type IDRequest struct {
	ID string `json:"id" binding:"required,uuid"`
}

type UpdateRoleRequest struct {
	ID   string `json:"id" binding:"required,uuid"`
	Role Role   `json:"role" binding:"required,oneof=ADMIN CLIENT GUEST"`
}

type ListRequest struct {
	Role   Role   `json:"role" binding:"omitempty,oneof=ADMIN CLIENT GUEST"`
	Search string `json:"search" binding:"omitempty,max=100"`
}

func (r *ListRequest) Normalize() {
	r.Search = strings.TrimSpace(r.Search)
}

func (r ListRequest) Filter() ListFilter {
	f := ListFilter{Search: r.Search}
	if r.Role != "" {
		role := r.Role
		f.Role = &role
	}
	return f
}
