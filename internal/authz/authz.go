// Package authz decides whether a caller may run a procedure.
package authz

import (
	"embed"
	"os"
	"path/filepath"

	"github.com/casbin/casbin/v3"

	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/auth"
	"github.com/ngeni/portal/internal/domain/user"
)

//go:embed model.conf policy.csv
var embedFS embed.FS

// Access is the tag every procedure declares.
type Access int

const (
	Public Access = iota
	Authed
	Admin
)

func (a Access) String() string {
	switch a {
	case Authed:
		return "authed"
	case Admin:
		return "admin"
	}
	return "public"
}

// Gate is a pure predicate over the caller. A non-nil error rejects the call.
type Gate func(c auth.Caller, procedure string) error

// AuthGate rejects anonymous callers.
func AuthGate(c auth.Caller, _ string) error {
	if !c.Authenticated() {
		return apperr.Unauthorized("You must be signed in.")
	}
	return nil
}

// AdminGate rejects signed-in callers whose role is not ADMIN.
func AdminGate(c auth.Caller, _ string) error {
	if c.Role() != user.RoleAdmin {
		return apperr.Forbidden("Administrator access required.")
	}
	return nil
}

// Policy is the role x procedure matrix loaded from the embedded casbin files.
type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	dir, err := os.MkdirTemp("", "portal-casbin-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	for _, name := range []string{"model.conf", "policy.csv"} {
		data, err := embedFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0600); err != nil {
			return nil, err
		}
	}

	e, err := casbin.NewEnforcer(filepath.Join(dir, "model.conf"), filepath.Join(dir, "policy.csv"))
	if err != nil {
		return nil, err
	}
	return &Policy{enforcer: e}, nil
}

// Allows reports whether role may run procedure. Enforcer errors deny.
func (p *Policy) Allows(role user.Role, procedure string) bool {
	ok, err := p.enforcer.Enforce(string(role), procedure)
	return err == nil && ok
}

// Gate turns the policy into a gate. It must run after AuthGate.
func (p *Policy) Gate() Gate {
	return func(c auth.Caller, procedure string) error {
		if !p.Allows(c.Role(), procedure) {
			return apperr.Forbidden("You are not allowed to perform this action.")
		}
		return nil
	}
}

// Guard holds the gate chains per access tag.
type Guard struct {
	chains map[Access][]Gate
}

// NewGuard builds the chains cheapest first. policy may be nil, in which case
// only the role gates apply.
func NewGuard(policy *Policy) *Guard {
	authed := []Gate{AuthGate}
	admin := []Gate{AuthGate, AdminGate}
	if policy != nil {
		authed = append(authed, policy.Gate())
		admin = append(admin, policy.Gate())
	}
	return &Guard{chains: map[Access][]Gate{
		Public: nil,
		Authed: authed,
		Admin:  admin,
	}}
}

// Check runs the chain for access and returns the first rejection.
func (g *Guard) Check(c auth.Caller, procedure string, access Access) error {
	for _, gate := range g.chains[access] {
		if err := gate(c, procedure); err != nil {
			return err
		}
	}
	return nil
}
