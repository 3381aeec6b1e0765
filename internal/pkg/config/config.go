package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is shared by the storefront client runtime and the reference
// profile service; each reads the sections it needs.
type Config struct {
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Session SessionConfig
	Store   StoreConfig
	Profile ProfileAPIConfig
	Service ServiceConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

// SessionConfig drives the lifecycle monitor and the seller access gate.
type SessionConfig struct {
	InactivityTimeout time.Duration `env:"SESSION_INACTIVITY_TIMEOUT, default=24h"`
	SweepInterval     time.Duration `env:"SESSION_SWEEP_INTERVAL,     default=60s"`
	TrialDays         int           `env:"SELLER_TRIAL_DAYS,          default=30"`
	TrialWarningDays  int           `env:"SELLER_TRIAL_WARNING_DAYS,  default=5"`
}

// StoreConfig selects the durable credential store backend.
type StoreConfig struct {
	Backend   string `env:"STORE_BACKEND,   default=sqlite"`
	Path      string `env:"STORE_PATH,      default=./data/storefront.db"`
	Namespace string `env:"STORE_NAMESPACE, default=storefront"`
}

// ProfileAPIConfig points the client at the profile service.
type ProfileAPIConfig struct {
	BaseURL string        `env:"PROFILE_API_URL,     default=http://localhost:8080"`
	Timeout time.Duration `env:"PROFILE_API_TIMEOUT, default=10s"`
}

// ServiceConfig is only read by the profile service.
type ServiceConfig struct {
	Port           string        `env:"PORT,            default=8080"`
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       time.Duration `env:"TOKEN_TTL,       default=24h"`
	AccountBackend string        `env:"ACCOUNT_BACKEND, default=mongo"`
	LoginRate      float64       `env:"LOGIN_RATE,      default=5"`
	LoginBurst     int           `env:"LOGIN_BURST,     default=10"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=storefront"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith resolves configuration from an arbitrary lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if cfg.Session.InactivityTimeout <= 0 {
		return nil, fmt.Errorf("SESSION_INACTIVITY_TIMEOUT must be positive")
	}
	if cfg.Session.SweepInterval <= 0 {
		return nil, fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive")
	}
	return &cfg, nil
}
