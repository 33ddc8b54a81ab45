package searchsink

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/akave-ai/logwatch/internal/infrastructure/sinks"
)

const typeName = "elasticsearch"

func init() {
	sinks.Register(&Factory{})
}

// Factory creates search index sinks. Registers as "elasticsearch".
type Factory struct{}

func (f *Factory) Name() string {
	return typeName
}

func (f *Factory) ConfigSpec() sinks.SinkTypeInfo {
	return sinks.SinkTypeInfo{
		Type:        typeName,
		Mode:        sinks.Durable,
		Description: "Indexes each accepted event into a daily index named <prefix>YYYY-MM-DD, document id = event uuid.",
		Fields: []sinks.ConfigField{
			{Name: "addresses", Type: "list", Required: true, Description: "Comma separated node URLs", Example: "http://localhost:9200"},
			{Name: "username", Type: "string", Required: false, Description: "Basic auth user"},
			{Name: "password", Type: "string", Required: false, Description: "Basic auth password"},
			{Name: "api_key", Type: "string", Required: false, Description: "Base64 encoded API key; takes precedence over basic auth"},
			{Name: "index_prefix", Type: "string", Required: false, Description: "Prepended to the daily index name", Example: "logwatch-"},
		},
	}
}

func (f *Factory) ValidateConfig(cfg sinks.Config) error {
	if len(cfg.Strings("addresses")) == 0 {
		return fmt.Errorf("%s sink: missing addresses", typeName)
	}
	return nil
}

func (f *Factory) Create(_ context.Context, cfg sinks.Config) (sinks.Sink, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Strings("addresses"),
		Username:  cfg.String("username", ""),
		Password:  cfg.String("password", ""),
		APIKey:    cfg.String("api_key", ""),
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: new client: %w", err)
	}
	return New(client, cfg.String("index_prefix", "")), nil
}
