package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Primary.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.EqualValues(t, 4<<20, cfg.Server.MaxBodyBytes)
	assert.True(t, cfg.Ingest.Enabled)
	assert.Equal(t, "s3", cfg.Ingest.Sink)
	assert.False(t, cfg.Entrypoint.Enabled)
	assert.Equal(t, "memory", cfg.Token.Cache)
	assert.Equal(t, time.Minute, cfg.Token.CacheTTL)
	require.NotNil(t, cfg.Observability)
	assert.Equal(t, "logwatch", cfg.Observability.ServiceName)
	assert.Equal(t, "development", cfg.Observability.Environment)
	assert.False(t, cfg.Observability.NewRelicEnabled())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("LOGWATCH_PRIMARY.ENV", "production")
	t.Setenv("LOGWATCH_SERVER.PORT", "9000")
	t.Setenv("LOGWATCH_SERVER.READ_TIMEOUT", "3s")
	t.Setenv("LOGWATCH_INGEST.SINK", "elasticsearch")
	t.Setenv("LOGWATCH_INGEST.REQUIRE_TOKEN", "true")
	t.Setenv("LOGWATCH_ENTRYPOINT.ENABLED", "true")
	t.Setenv("LOGWATCH_ENTRYPOINT.SINK", "nats")
	t.Setenv("LOGWATCH_TOKEN.STORE", "mysql")
	t.Setenv("LOGWATCH_TOKEN.CACHE_TTL", "30s")
	t.Setenv("LOGWATCH_MYSQL.NAME", "logwatch")
	t.Setenv("LOGWATCH_MYSQL.USER", "app")
	t.Setenv("LOGWATCH_SINKS.ELASTICSEARCH.ADDRESSES", "http://es:9200")
	t.Setenv("LOGWATCH_OBSERVABILITY.LOGGING.LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Primary.Env)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "elasticsearch", cfg.Ingest.Sink)
	assert.True(t, cfg.Ingest.RequireToken)
	assert.True(t, cfg.Entrypoint.Enabled)
	assert.Equal(t, "nats", cfg.Entrypoint.Sink)
	assert.Equal(t, "mysql", cfg.Token.Store)
	assert.Equal(t, 30*time.Second, cfg.Token.CacheTTL)
	assert.Equal(t, 3306, cfg.MySQL.Port)
	assert.Equal(t, "http://es:9200", cfg.SinkConfig("elasticsearch")["addresses"])
	assert.Empty(t, cfg.SinkConfig("kafka"))
	assert.Equal(t, zerolog.DebugLevel, cfg.Observability.ZerologLevel())
	assert.Equal(t, "production", cfg.Observability.Environment)
	assert.True(t, cfg.RequiresTokens())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown environment", map[string]string{"LOGWATCH_PRIMARY.ENV": "qa"}},
		{"token required without store", map[string]string{"LOGWATCH_INGEST.REQUIRE_TOKEN": "true"}},
		{"unknown token store", map[string]string{"LOGWATCH_TOKEN.STORE": "dynamo"}},
		{"postgres store without database", map[string]string{
			"LOGWATCH_TOKEN.STORE":   "postgres",
			"LOGWATCH_DATABASE.NAME": "",
		}},
		{"redis cache without url", map[string]string{
			"LOGWATCH_TOKEN.STORE": "mysql",
			"LOGWATCH_TOKEN.CACHE": "redis",
			"LOGWATCH_MYSQL.NAME":  "logwatch",
			"LOGWATCH_MYSQL.USER":  "app",
		}},
		{"all routes disabled", map[string]string{"LOGWATCH_INGEST.ENABLED": "false"}},
		{"bad log level", map[string]string{"LOGWATCH_OBSERVABILITY.LOGGING.LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_URL(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss", Name: "logwatch", SSLMode: "require"}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/logwatch?sslmode=require", d.URL())
}
