// Package actorctx carries who is calling, and in which language, through a request context.
package actorctx

import (
	"context"

	"github.com/ngeni/portal/internal/auth"
)

type ctxKey int

const (
	keyCaller ctxKey = iota
	keyAcceptLanguage
)

func WithCaller(ctx context.Context, c auth.Caller) context.Context {
	return context.WithValue(ctx, keyCaller, c)
}

// CallerFrom returns the anonymous caller when none was attached.
func CallerFrom(ctx context.Context) auth.Caller {
	c, _ := ctx.Value(keyCaller).(auth.Caller)
	return c
}

func UserIDFrom(ctx context.Context) (string, bool) {
	id := CallerFrom(ctx).UserID()
	return id, id != ""
}

func WithAcceptLanguage(ctx context.Context, header string) context.Context {
	return context.WithValue(ctx, keyAcceptLanguage, header)
}

func AcceptLanguage(ctx context.Context) string {
	v, _ := ctx.Value(keyAcceptLanguage).(string)
	return v
}
