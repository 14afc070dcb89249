// Package rpc multiplexes named procedures behind one endpoint.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/auth"
	"github.com/ngeni/portal/internal/authz"
)

type Kind int

const (
	Query Kind = iota
	Mutation
)

func (k Kind) String() string {
	if k == Mutation {
		return "mutation"
	}
	return "query"
}

// Empty is the input of procedures that take none.
type Empty struct{}

// Handler is a procedure body. It sees validated input and the caller, nothing else.
type Handler[In, Out any] func(ctx context.Context, c auth.Caller, in In) (Out, error)

type Procedure interface {
	Name() string
	Access() authz.Access
	Kind() Kind
	call(ctx context.Context, c auth.Caller, raw []byte, v *validator.Validate) (any, error)
}

type normalizer interface{ Normalize() }

type checker interface{ Validate() error }

type procedure[In, Out any] struct {
	name   string
	access authz.Access
	kind   Kind
	fn     Handler[In, Out]
}

func NewQuery[In, Out any](name string, access authz.Access, fn Handler[In, Out]) Procedure {
	return &procedure[In, Out]{name: name, access: access, kind: Query, fn: fn}
}

func NewMutation[In, Out any](name string, access authz.Access, fn Handler[In, Out]) Procedure {
	return &procedure[In, Out]{name: name, access: access, kind: Mutation, fn: fn}
}

func (p *procedure[In, Out]) Name() string         { return p.name }
func (p *procedure[In, Out]) Access() authz.Access { return p.access }
func (p *procedure[In, Out]) Kind() Kind           { return p.kind }

func (p *procedure[In, Out]) call(ctx context.Context, c auth.Caller, raw []byte, v *validator.Validate) (any, error) {
	var in In

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, inputError(err, &in)
		}
	}

	if n, ok := any(&in).(normalizer); ok {
		n.Normalize()
	}

	if reflect.TypeOf(in) != nil && reflect.TypeOf(in).Kind() == reflect.Struct {
		if err := v.Struct(&in); err != nil {
			return nil, inputError(err, &in)
		}
	}

	if ch, ok := any(&in).(checker); ok {
		if err := ch.Validate(); err != nil {
			return nil, apperr.BadRequest(err.Error())
		}
	}

	return p.fn(ctx, c, in)
}

// Router holds the registered procedures and the guard that fronts them.
type Router struct {
	procs    map[string]Procedure
	guard    *authz.Guard
	validate *validator.Validate
}

func NewRouter(guard *authz.Guard) *Router {
	return &Router{
		procs:    map[string]Procedure{},
		guard:    guard,
		validate: NewValidator(),
	}
}

// Register panics on a duplicate name, the same way gin does for routes.
func (r *Router) Register(procs ...Procedure) {
	for _, p := range procs {
		if _, dup := r.procs[p.Name()]; dup {
			panic(fmt.Sprintf("rpc: procedure %q registered twice", p.Name()))
		}
		r.procs[p.Name()] = p
	}
}

func (r *Router) Lookup(name string) (Procedure, bool) {
	p, ok := r.procs[name]
	return p, ok
}

// Procedures lists everything registered, sorted by name.
func (r *Router) Procedures() []Procedure {
	out := make([]Procedure, 0, len(r.procs))
	for _, p := range r.procs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Call gates, decodes, validates and runs the named procedure, in that order.
func (r *Router) Call(ctx context.Context, c auth.Caller, name string, raw []byte) (any, error) {
	p, ok := r.procs[name]
	if !ok {
		return nil, apperr.NotFound(fmt.Sprintf("No procedure named %q.", name))
	}

	if err := r.guard.Check(c, p.Name(), p.Access()); err != nil {
		return nil, err
	}

	return p.call(ctx, c, raw, r.validate)
}
