package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akave-ai/logwatch/internal/config"
	"github.com/akave-ai/logwatch/internal/infrastructure/sinks"
)

type recordingSink struct {
	name   string
	mode   sinks.Mode
	closed *[]string
}

func (s *recordingSink) Name() string                                  { return s.name }
func (s *recordingSink) Mode() sinks.Mode                              { return s.mode }
func (s *recordingSink) Forward(context.Context, sinks.Envelope) error { return nil }
func (s *recordingSink) Close() error {
	*s.closed = append(*s.closed, s.name)
	return nil
}

type recordingFactory struct {
	name   string
	mode   sinks.Mode
	closed *[]string
}

func (f *recordingFactory) Name() string { return f.name }
func (f *recordingFactory) ConfigSpec() sinks.SinkTypeInfo {
	return sinks.SinkTypeInfo{Type: f.name, Mode: f.mode}
}
func (f *recordingFactory) Create(context.Context, sinks.Config) (sinks.Sink, error) {
	return &recordingSink{name: f.name, mode: f.mode, closed: f.closed}, nil
}

func testRegistry(closed *[]string) *sinks.Registry {
	reg := sinks.NewRegistry()
	reg.Register(&recordingFactory{name: "store", mode: sinks.Durable, closed: closed})
	reg.Register(&recordingFactory{name: "queue", mode: sinks.Dispatch, closed: closed})
	return reg
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Observability = config.DefaultObservabilityConfig()
	cfg.Ingest.Sink = "store"
	cfg.Entrypoint.Enabled = true
	cfg.Entrypoint.Sink = "queue"
	return cfg
}

func TestNew_WiresBothVariants(t *testing.T) {
	var closed []string
	a, err := newWithRegistry(context.Background(), testConfig(), zerolog.Nop(), testRegistry(&closed))
	require.NoError(t, err)

	body := `{"time":"2023-01-01T00:00:00Z","message":"m","level":"debug","request":null,"exception":null,"context":null}`
	for path, want := range map[string]int{"/ingest": http.StatusCreated, "/entrypoint": http.StatusCreated} {
		rec := httptest.NewRecorder()
		a.Server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
		assert.Equal(t, want, rec.Code, path)
	}

	a.Close()
	assert.Equal(t, []string{"queue", "store"}, closed)
}

func TestNew_RejectsModeMismatch(t *testing.T) {
	var closed []string
	cfg := testConfig()
	cfg.Ingest.Sink = "queue"

	_, err := newWithRegistry(context.Background(), cfg, zerolog.Nop(), testRegistry(&closed))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires durable")
	assert.Equal(t, []string{"queue"}, closed)
}

func TestNew_TokenRouteNeedsStore(t *testing.T) {
	var closed []string
	cfg := testConfig()
	cfg.Ingest.RequireToken = true

	_, err := newWithRegistry(context.Background(), cfg, zerolog.Nop(), testRegistry(&closed))
	assert.Error(t, err)
}

func TestNew_UnknownSink(t *testing.T) {
	var closed []string
	cfg := testConfig()
	cfg.Entrypoint.Sink = "carrier-pigeon"

	_, err := newWithRegistry(context.Background(), cfg, zerolog.Nop(), testRegistry(&closed))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown sink type "carrier-pigeon"`)
	assert.Contains(t, err.Error(), "available: queue, store")
	assert.Equal(t, []string{"store"}, closed)
}
