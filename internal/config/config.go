package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const devSessionSecret = "dev-only-session-secret-change-me-please"

type Config struct {
	Env  string `env:"APP_ENV" envDefault:"dev"`
	Port int    `env:"PORT" envDefault:"8080"`

	// Store picks the record backend: postgres or memory.
	Store       string `env:"STORE" envDefault:"postgres"`
	DBURL       string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER" envDefault:"portal"`
	DBPassword  string `env:"DB_PASSWORD" envDefault:"portal"`
	DBName      string `env:"DB_NAME" envDefault:"portal"`
	DBSSLMode   string `env:"DB_SSLMODE" envDefault:"disable"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"5"`
	MigrateOnUp bool   `env:"MIGRATE_ON_START" envDefault:"false"`

	// An empty RedisAddr keeps sessions and conversations in process.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"false"`
	BcryptCost    int           `env:"BCRYPT_COST" envDefault:"12"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminName     string `env:"ADMIN_NAME" envDefault:"Admin"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	EmailTo      string `env:"EMAIL_TO"`
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"NGENI <onboarding@resend.dev>"`

	CORSOrigins  []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	MaxBodyBytes int64    `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	LogLevel         string  `env:"LOG_LEVEL"`
	OTLPEndpoint     string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TraceSampleRatio float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1"`

	StrictTransitions  bool          `env:"TASK_STRICT_TRANSITIONS" envDefault:"false"`
	LeadDedupWindow    time.Duration `env:"LEAD_DEDUP_WINDOW" envDefault:"24h"`
	LeadStatsTTL       time.Duration `env:"LEAD_STATS_TTL" envDefault:"30s"`
	ConversationTTL    time.Duration `env:"CONCIERGE_TTL" envDefault:"2h"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST" envDefault:"5"`

	WriteLimitPerMinute int `env:"RATE_LIMIT_WRITES_PER_MINUTE" envDefault:"120"`
	WriteLimitBurst     int `env:"RATE_LIMIT_WRITES_BURST" envDefault:"30"`

	// ShutdownDrainDelay keeps serving after readyz turns 503, until load balancers notice.
	ShutdownDrainDelay time.Duration `env:"SHUTDOWN_DRAIN_DELAY" envDefault:"5s"`
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DBURL == "" {
		cfg.DBURL = cfg.buildDBURL()
	}
	if cfg.SessionSecret == "" && cfg.IsDev() {
		cfg.SessionSecret = devSessionSecret
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsDev() bool { return c.Env == "dev" || c.Env == "test" }

func (c Config) UsesMemoryStore() bool { return c.Store == "memory" }

func (c Config) Validate() error {
	var errs []error
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	} else if len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 characters"))
	}
	if c.Store != "postgres" && c.Store != "memory" {
		errs = append(errs, fmt.Errorf("STORE must be postgres or memory, got %q", c.Store))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be positive"))
	}
	if c.WriteLimitPerMinute > 0 && c.WriteLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WRITES_BURST must be positive"))
	}
	if c.ShutdownDrainDelay < 0 {
		errs = append(errs, errors.New("SHUTDOWN_DRAIN_DELAY must not be negative"))
	}
	return errors.Join(errs...)
}

func (c Config) buildDBURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
