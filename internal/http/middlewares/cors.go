package middlewares

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const corsMaxAge = 10 * 60

// originPolicy matches exact origins and "https://*.example.com" style
// wildcards for preview deployments.
type originPolicy struct {
	exact     map[string]struct{}
	wildcards []wildcardOrigin
}

type wildcardOrigin struct {
	prefix string // "https://"
	suffix string // ".example.com"
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{exact: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if scheme, host, ok := strings.Cut(o, "://*."); ok {
			p.wildcards = append(p.wildcards, wildcardOrigin{prefix: scheme + "://", suffix: "." + host})
			continue
		}
		if o != "" {
			p.exact[o] = struct{}{}
		}
	}
	return p
}

func (p originPolicy) allows(origin string) bool {
	if _, ok := p.exact[origin]; ok {
		return true
	}
	for _, w := range p.wildcards {
		host, ok := strings.CutPrefix(origin, w.prefix)
		if ok && len(host) > len(w.suffix) && strings.HasSuffix(host, w.suffix) {
			return true
		}
	}
	return false
}

// CORSMiddleware echoes allowed origins with credentials since the session
// rides in a cookie. Preflights always end here.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	policy := newOriginPolicy(allowedOrigins)

	return func(ctx *gin.Context) {
		h := ctx.Writer.Header()
		h.Add("Vary", "Origin")

		origin := ctx.GetHeader("Origin")
		allowed := origin != "" && policy.allows(origin)
		if allowed {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Expose-Headers", "ETag,Retry-After,X-Request-Id")
		}

		if ctx.Request.Method != http.MethodOptions {
			ctx.Next()
			return
		}

		if allowed {
			h.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization,Content-Type,Accept-Language,If-None-Match,X-Request-Id")
			h.Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
		}
		ctx.AbortWithStatus(http.StatusNoContent)
	}
}
