package kafkasink

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/akave-ai/logwatch/internal/infrastructure/sinks"
)

const typeName = "kafka"

func init() {
	sinks.Register(&Factory{})
}

// Factory creates Kafka producer sinks. Registers as "kafka".
type Factory struct{}

func (f *Factory) Name() string {
	return typeName
}

func (f *Factory) ConfigSpec() sinks.SinkTypeInfo {
	return sinks.SinkTypeInfo{
		Type:        typeName,
		Mode:        sinks.Dispatch,
		Description: "Produces the raw request to a Kafka topic and waits for the broker acknowledgement.",
		Fields: []sinks.ConfigField{
			{Name: "brokers", Type: "list", Required: true, Description: "Comma separated broker addresses", Example: "localhost:9092"},
			{Name: "topic", Type: "string", Required: true, Description: "Destination topic", Example: "logwatch-entrypoint"},
			{Name: "client_id", Type: "string", Required: false, Description: "Client id reported to brokers", Example: "logwatch"},
			{Name: "acks", Type: "string", Required: false, Description: "Required acks: none, leader or all", Example: "all"},
			{Name: "timeout", Type: "duration", Required: false, Description: "Broker produce timeout", Example: "5s"},
		},
	}
}

func (f *Factory) ValidateConfig(cfg sinks.Config) error {
	if err := cfg.Require(typeName, "topic"); err != nil {
		return err
	}
	if len(cfg.Strings("brokers")) == 0 {
		return fmt.Errorf("%s sink: missing brokers", typeName)
	}
	if _, err := requiredAcks(cfg.String("acks", "all")); err != nil {
		return err
	}
	return nil
}

func (f *Factory) Create(_ context.Context, cfg sinks.Config) (sinks.Sink, error) {
	sc, err := producerConfig(cfg)
	if err != nil {
		return nil, err
	}
	producer, err := sarama.NewSyncProducer(cfg.Strings("brokers"), sc)
	if err != nil {
		return nil, fmt.Errorf("kafka: new producer: %w", err)
	}
	return New(producer, cfg.String("topic", "")), nil
}

func producerConfig(cfg sinks.Config) (*sarama.Config, error) {
	acks, err := requiredAcks(cfg.String("acks", "all"))
	if err != nil {
		return nil, err
	}
	sc := sarama.NewConfig()
	sc.ClientID = cfg.String("client_id", "logwatch")
	sc.Producer.RequiredAcks = acks
	sc.Producer.Timeout = cfg.Duration("timeout", 5*time.Second)
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.Retry.Max = 0
	return sc, nil
}

func requiredAcks(s string) (sarama.RequiredAcks, error) {
	switch s {
	case "none":
		return sarama.NoResponse, nil
	case "leader":
		return sarama.WaitForLocal, nil
	case "all":
		return sarama.WaitForAll, nil
	}
	return 0, fmt.Errorf("%s sink: invalid acks %q", typeName, s)
}
