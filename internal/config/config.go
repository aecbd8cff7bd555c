package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	PolicyInsert = "insert"
	PolicyUpsert = "upsert"
)

type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`

	// Storage
	StoreDriver          string `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURL             string `env:"MONGODB_URL" envDefault:"mongodb://localhost:27017/onboarding-db"`
	MongoDatabase        string `env:"MONGODB_DATABASE"`
	OnboardingCollection string `env:"ONBOARDING_COLLECTION" envDefault:"onboarding"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"onboarding"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// Questionnaire
	QuestionSetPath    string `env:"QUESTION_SET_PATH"`
	QuestionSetVersion string `env:"QUESTION_SET_VERSION" envDefault:"trading-v1"`
	SubmissionPolicy   string `env:"SUBMISSION_POLICY" envDefault:"upsert"`
	RequireAuth        bool   `env:"ONBOARDING_REQUIRE_AUTH" envDefault:"false"`
	DegradedMode       bool   `env:"DEGRADED_MODE" envDefault:"false"`
	RecentLimit        int    `env:"RECENT_LIMIT" envDefault:"50"`

	// JWT
	JWTSecret       string        `env:"JWT_SECRET"`
	JWTAccessExpiry time.Duration `env:"JWT_EXPIRES_IN" envDefault:"168h"`

	// Admin
	AdminToken string `env:"ADMIN_TOKEN"`

	// Server
	Port           string        `env:"PORT" envDefault:"9091"`
	CORSOrigins    string        `env:"CORS_ORIGINS" envDefault:"http://localhost:3000,http://localhost:5173,http://localhost:5174"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	RateLimit      int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`

	// Observability
	SentryDSN    string        `env:"SENTRY_DSN"`
	LogRetention time.Duration `env:"LOG_RETENTION" envDefault:"720h"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case DriverMongo, DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be mongo, postgres or memory, got %q", c.StoreDriver))
	}
	switch c.SubmissionPolicy {
	case PolicyInsert, PolicyUpsert:
	default:
		errs = append(errs, fmt.Errorf("SUBMISSION_POLICY must be insert or upsert, got %q", c.SubmissionPolicy))
	}
	if c.StoreDriver == DriverPostgres && c.DBPassword == "" {
		errs = append(errs, errors.New("DB_PASSWORD is required for the postgres driver"))
	}
	if c.RequireAuth && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required when ONBOARDING_REQUIRE_AUTH is set"))
	}
	if c.IsProduction() && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.RecentLimit <= 0 {
		errs = append(errs, fmt.Errorf("RECENT_LIMIT must be positive, got %d", c.RecentLimit))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}
