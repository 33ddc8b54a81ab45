// Package kafkasink produces raw requests to a Kafka topic.
package kafkasink

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/akave-ai/logwatch/internal/infrastructure/sinks"
)

// Sink is a dispatch sink backed by a sarama.SyncProducer.
type Sink struct {
	producer sarama.SyncProducer
	topic    string
}

// New returns a Sink producing to topic.
func New(producer sarama.SyncProducer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

func (s *Sink) Name() string     { return typeName }
func (s *Sink) Mode() sinks.Mode { return sinks.Dispatch }

// Forward sends one message and waits for the acknowledgement. SendMessage
// takes no context, so a cancelled ctx abandons the wait; the message may
// still be delivered.
func (s *Sink) Forward(ctx context.Context, env sinks.Envelope) error {
	value, err := env.RawJSON()
	if err != nil {
		return fmt.Errorf("%w: kafka: encode request: %w", sinks.ErrSinkUnavailable, err)
	}
	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Value: sarama.ByteEncoder(value),
	}

	done := make(chan error, 1)
	go func() {
		_, _, err := s.producer.SendMessage(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: kafka: produce %s: %w", sinks.ErrSinkUnavailable, s.topic, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: kafka: produce %s: %w", sinks.ErrSinkUnavailable, s.topic, ctx.Err())
	}
}

func (s *Sink) Close() error {
	return s.producer.Close()
}
