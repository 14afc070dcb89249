// Package app assembles services and the procedure table from a set of stores.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ngeni/portal/internal/auth"
	"github.com/ngeni/portal/internal/authz"
	"github.com/ngeni/portal/internal/catalog"
	"github.com/ngeni/portal/internal/domain/task"
	"github.com/ngeni/portal/internal/notifications"
	"github.com/ngeni/portal/internal/observability"
	"github.com/ngeni/portal/internal/redisclient"
	"github.com/ngeni/portal/internal/repo/memory"
	"github.com/ngeni/portal/internal/repo/postgres"
	"github.com/ngeni/portal/internal/rpc"
	"github.com/ngeni/portal/internal/security"
	"github.com/ngeni/portal/internal/service"
)

// Stores is everything the services persist to.
type Stores struct {
	Users         service.UserStore
	Projects      service.ProjectStore
	Tasks         service.TaskStore
	Leads         service.LeadStore
	Revocations   auth.RevocationStore
	Conversations service.ConversationStore
}

// MemoryStores keeps every record in process. Used without a database and in tests.
func MemoryStores(conversationTTL time.Duration) Stores {
	s := memory.NewStore()
	return Stores{
		Users:         s.Users(),
		Projects:      s.Projects(),
		Tasks:         s.Tasks(),
		Leads:         s.Leads(),
		Revocations:   memory.NewRevocations(),
		Conversations: memory.NewConversations(conversationTTL),
	}
}

type Options struct {
	SessionSecret     string
	SessionTTL        time.Duration
	BcryptCost        int
	StrictTransitions bool
	LeadDedupWindow   time.Duration
	LeadStatsTTL      time.Duration
}

type Services struct {
	Auth      *service.AuthService
	Projects  *service.ProjectService
	Tasks     *service.TaskService
	Leads     *service.LeadService
	Users     *service.UserService
	Concierge *service.ConciergeService
}

type App struct {
	Sessions   *auth.Manager
	Hasher     security.Hasher
	Services   Services
	Procedures *rpc.Router
	stores     Stores
	log        *slog.Logger
}

// New wires the services over st. notifier may be nil.
func New(st Stores, notifier notifications.Notifier, opts Options, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	policy, err := authz.NewPolicy()
	if err != nil {
		return nil, err
	}

	sessions := auth.NewManager(opts.SessionSecret, opts.SessionTTL, st.Revocations)
	hasher := security.NewHasher(opts.BcryptCost)

	accounts := service.NewAuthService(st.Users, st.Projects, hasher, sessions, log)
	projects := service.NewProjectService(st.Projects, st.Tasks, st.Users)
	leads := service.NewLeadService(st.Leads, notifier, service.LeadServiceConfig{
		DedupWindow: opts.LeadDedupWindow,
		StatsTTL:    opts.LeadStatsTTL,
	}, log)

	svc := Services{
		Auth:      accounts,
		Projects:  projects,
		Tasks:     service.NewTaskService(st.Tasks, st.Projects, task.NewTransitionPolicy(opts.StrictTransitions)),
		Leads:     leads,
		Users:     service.NewUserService(st.Users, st.Projects, st.Tasks, accounts),
		Concierge: service.NewConciergeService(st.Conversations, st.Users, projects, leads, log),
	}

	procs := rpc.NewRouter(authz.NewGuard(policy))
	procs.Register(Procedures(svc)...)

	return &App{
		Sessions:   sessions,
		Hasher:     hasher,
		Services:   svc,
		Procedures: procs,
		stores:     st,
		log:        log,
	}, nil
}

// EnsureAdmin creates the bootstrap administrator when both email and password are set.
func (a *App) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := service.EnsureAdmin(ctx, a.stores.Users, a.Hasher, name, email, password, a.log)
	return err
}

// Procedures is the full procedure table with each entry's access tag.
func Procedures(s Services) []rpc.Procedure {
	return []rpc.Procedure{
		rpc.NewMutation("auth.register", authz.Public, s.Auth.Register),
		rpc.NewMutation("auth.login", authz.Public, s.Auth.Login),
		rpc.NewMutation("auth.logout", authz.Public, s.Auth.Logout),
		rpc.NewQuery("auth.me", authz.Authed, s.Auth.Me),
		rpc.NewMutation("auth.updateProfile", authz.Authed, s.Auth.UpdateProfile),

		rpc.NewQuery("projects.getAll", authz.Authed, s.Projects.GetAll),
		rpc.NewQuery("projects.getById", authz.Authed, s.Projects.GetByID),
		rpc.NewMutation("projects.create", authz.Admin, s.Projects.Create),
		rpc.NewMutation("projects.update", authz.Admin, s.Projects.Update),
		rpc.NewMutation("projects.delete", authz.Admin, s.Projects.Delete),
		rpc.NewQuery("projects.getStats", authz.Authed, s.Projects.GetStats),
		rpc.NewQuery("projects.getInvoices", authz.Authed, s.Projects.GetInvoices),

		rpc.NewQuery("tasks.getByProject", authz.Authed, s.Tasks.GetByProject),
		rpc.NewQuery("tasks.getBoard", authz.Authed, s.Tasks.GetBoard),
		rpc.NewMutation("tasks.create", authz.Admin, s.Tasks.Create),
		rpc.NewMutation("tasks.update", authz.Authed, s.Tasks.Update),
		rpc.NewMutation("tasks.delete", authz.Admin, s.Tasks.Delete),

		rpc.NewMutation("leads.create", authz.Public, s.Leads.Create),
		rpc.NewQuery("leads.getAll", authz.Admin, s.Leads.GetAll),
		rpc.NewQuery("leads.getById", authz.Admin, s.Leads.GetByID),
		rpc.NewMutation("leads.delete", authz.Admin, s.Leads.Delete),
		rpc.NewQuery("leads.getStats", authz.Admin, s.Leads.GetStats),

		rpc.NewQuery("users.getAll", authz.Admin, s.Users.GetAll),
		rpc.NewQuery("users.getById", authz.Admin, s.Users.GetByID),
		rpc.NewMutation("users.create", authz.Admin, s.Users.Create),
		rpc.NewMutation("users.updateRole", authz.Admin, s.Users.UpdateRole),
		rpc.NewMutation("users.delete", authz.Admin, s.Users.Delete),

		rpc.NewMutation("concierge.start", authz.Public, s.Concierge.Start),
		rpc.NewMutation("concierge.act", authz.Public, s.Concierge.Act),
		rpc.NewMutation("concierge.say", authz.Public, s.Concierge.Say),

		rpc.NewQuery("catalog.services", authz.Public, listServices),
	}
}

func listServices(context.Context, auth.Caller, rpc.Empty) ([]catalog.Service, error) {
	return catalog.All(), nil
}

// NotifierConfig selects the new-lead notifier.
type NotifierConfig struct {
	ResendAPIKey string
	From         string
	To           string
}

// NewLeadNotifier emails through Resend, behind a circuit breaker and retries,
// when a real key is configured. Otherwise new leads are only logged.
func NewLeadNotifier(cfg NotifierConfig, prom *observability.Prom, log *slog.Logger) notifications.Notifier {
	if !notifications.ResendConfigured(cfg.ResendAPIKey) || cfg.To == "" {
		log.Info("lead notifications: resend not configured, logging only")
		return notifications.NewLogNotifier(log)
	}
	protected := notifications.NewProtectedNotifier(
		notifications.NewResendNotifier(notifications.ResendConfig{
			APIKey: cfg.ResendAPIKey,
			From:   cfg.From,
			To:     cfg.To,
		}),
		notifications.ProtectedNotifierConfig{OnResult: prom.ObserveNotification},
	)
	return notifications.NewRetryingNotifier(protected, notifications.RetryConfig{})
}

// PostgresStores keeps records in Postgres. Sessions and conversations stay in
// process until WithRedis moves them.
func PostgresStores(pool *pgxpool.Pool, prom *observability.Prom, conversationTTL time.Duration) Stores {
	return Stores{
		Users:         postgres.NewUsersRepo(pool, prom),
		Projects:      postgres.NewProjectsRepo(pool, prom),
		Tasks:         postgres.NewTasksRepo(pool, prom),
		Leads:         postgres.NewLeadsRepo(pool, prom),
		Revocations:   memory.NewRevocations(),
		Conversations: memory.NewConversations(conversationTTL),
	}
}

// WithRedis moves revocations and conversations to Redis so every instance sees them.
func (s Stores) WithRedis(c *redisclient.Client, conversationTTL time.Duration) Stores {
	s.Revocations = redisclient.NewRevocations(c)
	s.Conversations = redisclient.NewConversations(c, conversationTTL)
	return s
}
