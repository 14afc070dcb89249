package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ngeni/portal/internal/apperr"
	"github.com/ngeni/portal/internal/http/handlers"
	"github.com/ngeni/portal/internal/http/middlewares"
	"github.com/ngeni/portal/internal/observability"
	"github.com/ngeni/portal/internal/rpc"
)

// RateLimitedProcedures are the anonymous entry points worth throttling per IP.
var RateLimitedProcedures = []string{"auth.login", "auth.register", "leads.create", "concierge.*"}

// WriteLimitedProcedures are signed-in mutations, throttled per user.
var WriteLimitedProcedures = []string{
	"auth.updateProfile",
	"projects.create", "projects.update", "projects.delete",
	"tasks.create", "tasks.update", "tasks.delete",
	"users.create", "users.updateRole", "users.delete",
	"leads.delete",
}

type Options struct {
	Env                string
	CORSOrigins        []string
	MaxBodyBytes       int64
	SecureCookies      bool
	RateLimitPerMinute int
	RateLimitBurst     int

	// WriteLimitPerMinute <= 0 leaves signed-in mutations unthrottled.
	WriteLimitPerMinute int
	WriteLimitBurst     int
}

type Deps struct {
	Log        *slog.Logger
	Procedures *rpc.Router
	Sessions   middlewares.SessionResolver
	Health     *handlers.HealthHandler
	Prom       *observability.Prom
	// Gatherer backs /metrics. Nil leaves the route out.
	Gatherer prometheus.Gatherer
}

func NewRouter(deps Deps, opts Options) *gin.Engine {
	if opts.Env != "dev" && opts.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("portal"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(deps.Log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(opts.SecureCookies))
	r.Use(middlewares.CORSMiddleware(opts.CORSOrigins))

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondError(ctx, apperr.NotFound("Route not found."))
	})

	health := deps.Health
	if health == nil {
		health = handlers.NewHealthHandler(nil)
	}
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	limiter := middlewares.NewRateLimiter(opts.RateLimitPerMinute, opts.RateLimitBurst)
	rpcHandler := handlers.NewRPCHandler(deps.Procedures, deps.Prom, opts.SecureCookies)

	api := r.Group("/api/rpc")
	api.Use(middlewares.NewAuthMiddleware(deps.Sessions, deps.Log).Identify())
	api.GET("", rpcHandler.List)

	known := func(name string) bool {
		if deps.Procedures == nil {
			return false
		}
		_, ok := deps.Procedures.Lookup(name)
		return ok
	}

	call := []gin.HandlerFunc{
		limiter.ProcedureLimit(middlewares.LimitRule{
			Procedures: RateLimitedProcedures,
			Key:        middlewares.KeyByIP,
			Known:      known,
		}, deps.Prom),
	}
	if opts.WriteLimitPerMinute > 0 {
		writes := middlewares.NewRateLimiter(opts.WriteLimitPerMinute, opts.WriteLimitBurst)
		call = append(call, writes.ProcedureLimit(middlewares.LimitRule{
			Procedures: WriteLimitedProcedures,
			Key:        middlewares.KeyByUserOrIP,
			Known:      known,
		}, deps.Prom))
	}
	call = append(call, rpcHandler.Call)
	api.GET("/:procedure", call...)
	api.POST("/:procedure",
		append([]gin.HandlerFunc{middlewares.MaxBodyBytes(opts.MaxBodyBytes), middlewares.RequireJSON()}, call...)...,
	)
	api.Handle(http.MethodPut, "/:procedure", methodNotSupported)
	api.Handle(http.MethodPatch, "/:procedure", methodNotSupported)
	api.Handle(http.MethodDelete, "/:procedure", methodNotSupported)

	return r
}

func methodNotSupported(ctx *gin.Context) {
	handlers.RespondError(ctx, apperr.New(apperr.KindMethodNotSupported, "Use GET for queries and POST for mutations."))
}
