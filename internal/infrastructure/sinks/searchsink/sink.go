// Package searchsink indexes accepted log records into a search cluster.
package searchsink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/akave-ai/logwatch/internal/infrastructure/sinks"
)

const indexDateLayout = "2006-01-02"

// Sink is a durable sink writing one document per event into a daily index.
type Sink struct {
	transport esapi.Transport
	prefix    string
}

// New returns a Sink. transport is usually an *elasticsearch.Client.
func New(transport esapi.Transport, prefix string) *Sink {
	return &Sink{transport: transport, prefix: prefix}
}

func (s *Sink) Name() string     { return typeName }
func (s *Sink) Mode() sinks.Mode { return sinks.Durable }

// IndexName returns the index for events received at t; the date is taken in UTC.
func (s *Sink) IndexName(t time.Time) string {
	return s.prefix + t.UTC().Format(indexDateLayout)
}

func (s *Sink) Forward(ctx context.Context, env sinks.Envelope) error {
	meta := env.Record.Meta
	if meta.UUID == "" {
		return fmt.Errorf("%w: elasticsearch: record has no uuid", sinks.ErrSinkUnavailable)
	}
	received := meta.ReceivedAt
	if received.IsZero() {
		received = time.Now()
	}
	body, err := json.Marshal(env.Record)
	if err != nil {
		return fmt.Errorf("%w: elasticsearch: encode record: %w", sinks.ErrSinkUnavailable, err)
	}

	index := s.IndexName(received)
	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: meta.UUID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.transport)
	if err != nil {
		return fmt.Errorf("%w: elasticsearch: index %s: %w", sinks.ErrSinkUnavailable, index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("%w: elasticsearch: index %s: status %d: %s", sinks.ErrSinkUnavailable, index, res.StatusCode, bytes.TrimSpace(detail))
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

func (s *Sink) Close() error { return nil }
