package natssink

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/akave-ai/logwatch/internal/infrastructure/sinks"
)

const typeName = "nats"

func init() {
	sinks.Register(&Factory{})
}

// Factory creates NATS core publish sinks. Registers as "nats".
type Factory struct{}

func (f *Factory) Name() string {
	return typeName
}

func (f *Factory) ConfigSpec() sinks.SinkTypeInfo {
	return sinks.SinkTypeInfo{
		Type:        typeName,
		Mode:        sinks.Dispatch,
		Description: "Publishes the raw request on a NATS subject and waits for the server to acknowledge the flush.",
		Fields: []sinks.ConfigField{
			{Name: "url", Type: "string", Required: true, Description: "Server URL(s), comma separated", Example: "nats://localhost:4222"},
			{Name: "subject", Type: "string", Required: true, Description: "Subject to publish on", Example: "logwatch.entrypoint"},
			{Name: "username", Type: "string", Required: false, Description: "User for user/password auth"},
			{Name: "password", Type: "string", Required: false, Description: "Password for user/password auth"},
			{Name: "token", Type: "string", Required: false, Description: "Token auth"},
			{Name: "connect_timeout", Type: "duration", Required: false, Description: "Dial timeout", Example: "2s"},
		},
	}
}

func (f *Factory) ValidateConfig(cfg sinks.Config) error {
	return cfg.Require(typeName, "url", "subject")
}

func (f *Factory) Create(_ context.Context, cfg sinks.Config) (sinks.Sink, error) {
	opts := []nats.Option{
		nats.Name("logwatch"),
		nats.Timeout(cfg.Duration("connect_timeout", 2*time.Second)),
	}
	if user := cfg.String("username", ""); user != "" {
		opts = append(opts, nats.UserInfo(user, cfg.String("password", "")))
	}
	if tok := cfg.String("token", ""); tok != "" {
		opts = append(opts, nats.Token(tok))
	}
	conn, err := nats.Connect(cfg.String("url", ""), opts...)
	if err != nil {
		return nil, fmt.Errorf("nats: connect: %w", err)
	}
	return New(conn, cfg.String("subject", ""), conn.Close), nil
}
