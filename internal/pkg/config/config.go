package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

type Config struct {
	Port     string `env:"PORT,      default=3000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Backend BackendConfig
	Session SessionConfig

	Mongo MongoConfig
	Redis RedisConfig
}

// BackendConfig points at the training REST backend.
type BackendConfig struct {
	URL     string        `env:"BACKEND_URL,     default=http://localhost:8080/api"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT, default=15s"`
}

type SessionConfig struct {
	// Secret signs the session cookie. Required outside development.
	Secret        string        `env:"SESSION_SECRET"`
	TTL           time.Duration `env:"SESSION_TTL,     default=24h"`
	Store         string        `env:"SESSION_BACKEND, default=memory"`
	CredentialKey string        `env:"CREDENTIAL_KEY"`
	FlashTTL      time.Duration `env:"FLASH_TTL,       default=5s"`
	SecureCookie  bool          `env:"SESSION_SECURE_COOKIE, default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=kscst_portal"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// IsDevelopment reports whether the portal runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "" || strings.EqualFold(c.Env, "development")
}

// Validate checks the combinations envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.Session.Store {
	case BackendMemory, BackendRedis, BackendMongo:
	default:
		errs = append(errs, fmt.Errorf("SESSION_BACKEND must be one of memory, redis, mongo; got %q", c.Session.Store))
	}
	if c.Session.Secret == "" && !c.IsDevelopment() {
		errs = append(errs, errors.New("SESSION_SECRET is required outside development"))
	}
	if c.Session.FlashTTL <= 0 {
		errs = append(errs, errors.New("FLASH_TTL must be positive"))
	}
	if strings.TrimSpace(c.Backend.URL) == "" {
		errs = append(errs, errors.New("BACKEND_URL must not be empty"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads and validates configuration from l.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
