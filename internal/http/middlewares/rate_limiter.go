package middlewares

import (
	"math"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ngeni/portal/internal/actorctx"
	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/http/handlers"
	"github.com/ngeni/portal/internal/observability"
)

const idleClientTTL = 10 * time.Minute

// RateLimiter keeps one token bucket per key.
type RateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	clients   map[string]*clientBucket
	now       func() time.Time
	lastSweep time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

// Allow takes one token for key. When none is left it reports how long until one is.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	b, ok := rl.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < idleClientTTL {
		return
	}
	rl.lastSweep = now
	for k, b := range rl.clients {
		if now.Sub(b.lastSeen) > idleClientTTL {
			delete(rl.clients, k)
		}
	}
}

// LimitRule selects the procedures one limiter covers and how callers are keyed.
type LimitRule struct {
	// A name ending in ".*" covers a whole namespace.
	Procedures []string
	Key        func(*gin.Context) string
	// Known reports registered procedures; other names are counted as "unknown".
	Known func(string) bool
}

// ProcedureLimit limits the procedures of rule on the rpc route.
// Procedures of one namespace share a bucket per key.
func (rl *RateLimiter) ProcedureLimit(rule LimitRule, prom *observability.Prom) gin.HandlerFunc {
	exact := map[string]bool{}
	var prefixes []string
	for _, p := range rule.Procedures {
		if ns, ok := strings.CutSuffix(p, ".*"); ok {
			prefixes = append(prefixes, ns+".")
			continue
		}
		exact[p] = true
	}

	limited := func(name string) bool {
		if exact[name] {
			return true
		}
		for _, p := range prefixes {
			if strings.HasPrefix(name, p) {
				return true
			}
		}
		return false
	}

	keyFn := rule.Key
	if keyFn == nil {
		keyFn = KeyByIP
	}

	return func(c *gin.Context) {
		name := c.Param("procedure")
		if !limited(name) {
			c.Next()
			return
		}

		key := keyFn(c)
		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}
		ns, _, _ := strings.Cut(name, ".")

		ok, wait := rl.Allow(key + "|" + ns)
		if !ok {
			label := name
			if rule.Known == nil || !rule.Known(name) {
				label = "unknown"
			}
			prom.ObserveRateLimited(label)
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			handlers.RespondError(c, apperr.TooManyRequests("Too many requests. Please try again shortly."))
			c.Abort()
			return
		}
		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// KeyByUserOrIP needs Identify to have run first.
func KeyByUserOrIP(c *gin.Context) string {
	if id, ok := actorctx.UserIDFrom(c.Request.Context()); ok {
		return "user:" + id
	}
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}

	return ip
}
