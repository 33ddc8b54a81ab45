// Package objectsink writes accepted log records to object storage, one
// object per event.
package objectsink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akave-ai/logwatch/internal/infrastructure/sinks"
	"github.com/akave-ai/logwatch/internal/storage"
)

const contentType = "application/json"

// ObjectWriter is the subset of storage.S3Client the sink uses.
type ObjectWriter interface {
	Bucket() string
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// Sink is a durable sink storing each record under <prefix><uuid>.json.
type Sink struct {
	writer ObjectWriter
	prefix string
}

// New returns a Sink writing through w.
func New(w ObjectWriter, prefix string) *Sink {
	return &Sink{writer: w, prefix: prefix}
}

func (s *Sink) Name() string     { return typeName }
func (s *Sink) Mode() sinks.Mode { return sinks.Durable }

// Key returns the object key for an event id.
func (s *Sink) Key(id string) string {
	return s.prefix + id + ".json"
}

func (s *Sink) Forward(ctx context.Context, env sinks.Envelope) error {
	if env.Record.Meta.UUID == "" {
		return fmt.Errorf("%w: s3: record has no uuid", sinks.ErrSinkUnavailable)
	}
	data, err := json.Marshal(env.Record)
	if err != nil {
		return fmt.Errorf("%w: s3: encode record: %w", sinks.ErrSinkUnavailable, err)
	}
	key := s.Key(env.Record.Meta.UUID)
	if err := s.writer.PutObject(ctx, key, data, contentType); err != nil {
		location := "s3://" + s.writer.Bucket() + "/" + key
		if code := storage.ErrorCode(err); code != "" {
			return fmt.Errorf("%w: s3: put %s (%s): %w", sinks.ErrSinkUnavailable, location, code, err)
		}
		return fmt.Errorf("%w: s3: put %s: %w", sinks.ErrSinkUnavailable, location, err)
	}
	return nil
}

func (s *Sink) Close() error { return nil }
