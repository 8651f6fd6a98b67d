package infra

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5434"`
	PGUser      string `env:"PGUSER" envDefault:"gemcade"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"gemcade"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"gemcade"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"20"`

	// Server
	APIPort        int  `env:"API_PORT" envDefault:"3100"`
	MigrateOnStart bool `env:"MIGRATE_ON_START" envDefault:"true"`

	// Sessions
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SessionHighRiskTTL time.Duration `env:"SESSION_HIGH_RISK_TTL" envDefault:"24h"`

	// Crash game
	CrashMaxMultiplier float64 `env:"CRASH_MAX_MULTIPLIER" envDefault:"1000"`
	CrashHouseEdge     float64 `env:"CRASH_HOUSE_EDGE" envDefault:"0.04"`

	// Wager limits
	SingleWagerMax int64 `env:"SINGLE_WAGER_MAX" envDefault:"100000"`
	DailyStakeMax  int64 `env:"DAILY_STAKE_MAX" envDefault:"500000"`
	DailyLossMax   int64 `env:"DAILY_LOSS_MAX" envDefault:"200000"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`

	// External services
	RandomOrgAPIKey string `env:"RANDOM_ORG_API_KEY"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for configuration that must not run in production.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass the origin check (local dev only).
func (c *Config) Validate() error {
	if c.SessionTTL <= 0 || c.SessionHighRiskTTL <= 0 {
		return fmt.Errorf("session TTLs must be positive")
	}
	if c.SessionHighRiskTTL > c.SessionTTL {
		return fmt.Errorf("SESSION_HIGH_RISK_TTL (%s) must not exceed SESSION_TTL (%s)", c.SessionHighRiskTTL, c.SessionTTL)
	}
	if c.CrashHouseEdge < 0 || c.CrashHouseEdge >= 0.5 {
		return fmt.Errorf("CRASH_HOUSE_EDGE %.2f out of range [0, 0.5)", c.CrashHouseEdge)
	}
	if c.CrashMaxMultiplier < 2 {
		return fmt.Errorf("CRASH_MAX_MULTIPLIER %.2f too low; minimum 2", c.CrashMaxMultiplier)
	}
	if c.SingleWagerMax <= 0 || c.DailyStakeMax <= 0 || c.DailyLossMax <= 0 {
		return fmt.Errorf("wager limits must be positive")
	}
	if c.AllowInsecureDefaults {
		return nil
	}
	// Credentialed cookies never pair with a wildcard origin; browsers
	// reject the combination and it invites CSRF from anywhere.
	if c.CORSAllowedOrigins == "*" {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS is the wildcard default; set an explicit origin or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
