// Package natssink publishes raw requests on a NATS subject.
package natssink

import (
	"context"
	"fmt"
	"time"

	"github.com/akave-ai/logwatch/internal/infrastructure/sinks"
)

// flushTimeout applies when Forward is called without a deadline; the
// flush round trip requires one.
const flushTimeout = 5 * time.Second

// Publisher is the subset of *nats.Conn the sink uses.
type Publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// Sink is a dispatch sink. Forward returns once the server has processed the
// publish; delivery to subscribers is not awaited.
type Sink struct {
	pub     Publisher
	subject string
	closeFn func()
}

// New returns a Sink publishing on subject. closeFn, when non-nil, releases
// the connection on Close.
func New(pub Publisher, subject string, closeFn func()) *Sink {
	return &Sink{pub: pub, subject: subject, closeFn: closeFn}
}

func (s *Sink) Name() string     { return typeName }
func (s *Sink) Mode() sinks.Mode { return sinks.Dispatch }

func (s *Sink) Forward(ctx context.Context, env sinks.Envelope) error {
	data, err := env.RawJSON()
	if err != nil {
		return fmt.Errorf("%w: nats: encode request: %w", sinks.ErrSinkUnavailable, err)
	}
	if err := s.pub.Publish(s.subject, data); err != nil {
		return fmt.Errorf("%w: nats: publish %s: %w", sinks.ErrSinkUnavailable, s.subject, err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := s.pub.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("%w: nats: flush %s: %w", sinks.ErrSinkUnavailable, s.subject, err)
	}
	return nil
}

func (s *Sink) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
