package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "LOGWATCH_"

type Config struct {
	Primary       Primary                   `koanf:"primary" validate:"required"`
	Server        ServerConfig              `koanf:"server" validate:"required"`
	Ingest        VariantConfig             `koanf:"ingest"`
	Entrypoint    VariantConfig             `koanf:"entrypoint"`
	Token         TokenConfig               `koanf:"token"`
	Database      DatabaseConfig            `koanf:"database"`
	MySQL         MySQLConfig               `koanf:"mysql"`
	Redis         RedisConfig               `koanf:"redis"`
	Sinks         map[string]map[string]any `koanf:"sinks"`
	Observability *ObservabilityConfig      `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required,oneof=development staging production test"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	// MaxBodyBytes caps the raw request body before it is decoded.
	MaxBodyBytes int64 `koanf:"max_body_bytes" validate:"gt=0"`
	// AdminKey guards the admin routes; empty disables them.
	AdminKey string `koanf:"admin_key"`
}

// VariantConfig configures one admission route.
type VariantConfig struct {
	Enabled      bool          `koanf:"enabled"`
	Sink         string        `koanf:"sink" validate:"required_if=Enabled true"`
	RequireToken bool          `koanf:"require_token"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
}

type TokenConfig struct {
	Store     string        `koanf:"store" validate:"omitempty,oneof=postgres mysql"`
	Cache     string        `koanf:"cache" validate:"oneof=memory redis file none"`
	CacheTTL  time.Duration `koanf:"cache_ttl" validate:"gt=0"`
	CacheSize int           `koanf:"cache_size" validate:"gt=0"`
	CacheDir  string        `koanf:"cache_dir"`
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	Migrate         bool          `koanf:"migrate"`
}

// URL renders the connection string understood by pgx.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

type MySQLConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL    string `koanf:"url"`
	Prefix string `koanf:"prefix"`
}

// Default returns the configuration used for every key the environment
// leaves unset.
func Default() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
			MaxBodyBytes: 4 << 20,
		},
		Ingest: VariantConfig{
			Enabled: true,
			Sink:    "s3",
			Timeout: 5 * time.Second,
		},
		Entrypoint: VariantConfig{
			Sink:    "lambda",
			Timeout: 5 * time.Second,
		},
		Token: TokenConfig{
			Cache:     "memory",
			CacheTTL:  time.Minute,
			CacheSize: 10000,
			Timeout:   5 * time.Second,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
			Migrate: true,
		},
		MySQL: MySQLConfig{
			Host: "localhost",
			Port: 3306,
		},
	}
}

// LoadConfig loads the configuration from environment variables using koanf.
// Keys use dots for nesting, e.g. LOGWATCH_SERVER.PORT or
// LOGWATCH_SINKS.S3.BUCKET. A .env file in the working directory is read
// first when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("could not read .env: %w", err)
	}

	k := koanf.New(".")
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load initial env variables: %w", err)
	}

	mainConfig := Default()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	// Observability is a pointer so an absent section can be told apart from a zero one.
	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}
	mainConfig.Observability.ServiceName = "logwatch"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Validate(); err != nil {
		return nil, err
	}
	return mainConfig, nil
}

// Validate checks struct tags and the rules that span sections.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !c.Ingest.Enabled && !c.Entrypoint.Enabled {
		return errors.New("invalid config: at least one of ingest or entrypoint must be enabled")
	}
	if (c.Ingest.Enabled && c.Ingest.RequireToken) || (c.Entrypoint.Enabled && c.Entrypoint.RequireToken) {
		if c.Token.Store == "" {
			return errors.New("invalid config: token.store is required when a route requires a token")
		}
	}
	switch c.Token.Store {
	case "postgres":
		if c.Database.Host == "" || c.Database.Name == "" || c.Database.User == "" {
			return errors.New("invalid config: database.host, database.name and database.user are required for the postgres token store")
		}
	case "mysql":
		if c.MySQL.Host == "" || c.MySQL.Name == "" || c.MySQL.User == "" {
			return errors.New("invalid config: mysql.host, mysql.name and mysql.user are required for the mysql token store")
		}
	}
	if c.Token.Store != "" && c.Token.Cache == "redis" && c.Redis.URL == "" {
		return errors.New("invalid config: redis.url is required for the redis token cache")
	}
	if c.Observability != nil {
		if err := c.Observability.Validate(); err != nil {
			return fmt.Errorf("invalid observability config: %w", err)
		}
	}
	return nil
}

// SinkConfig returns the raw settings of a sink section, never nil.
func (c *Config) SinkConfig(name string) map[string]any {
	if section, ok := c.Sinks[name]; ok && section != nil {
		return section
	}
	return map[string]any{}
}

// RequiresTokens reports whether any enabled route resolves access tokens.
func (c *Config) RequiresTokens() bool {
	return (c.Ingest.Enabled && c.Ingest.RequireToken) || (c.Entrypoint.Enabled && c.Entrypoint.RequireToken)
}
