// Package admission decides whether an inbound log payload is accepted and
// forwards accepted payloads to the configured sink.
package admission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/akave-ai/logwatch/internal/infrastructure/sinks"
	"github.com/akave-ai/logwatch/internal/metrics"
	"github.com/akave-ai/logwatch/internal/model"
	"github.com/akave-ai/logwatch/internal/schema"
	"github.com/akave-ai/logwatch/internal/sizeguard"
	"github.com/akave-ai/logwatch/internal/token"
)

const (
	DefaultTimeout      = 5 * time.Second
	DefaultMaxBodyBytes = 4 << 20
)

// TokenResolver maps a bearer credential to a scope.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (model.Scope, error)
}

// Request is one inbound HTTP request as seen by the pipeline.
type Request struct {
	Body          io.Reader
	Authorization string
	Method        string
	Path          string
	Query         string
	Headers       map[string][]string
	RequestID     string
}

// Options configures a Pipeline.
type Options struct {
	// Variant names the route; it labels metrics and logs.
	Variant   string
	Profile   schema.Profile
	Validator *schema.Validator
	Sink      sinks.Sink
	// Resolver is consulted when set; nil admits anonymous payloads.
	Resolver TokenResolver
	// Timeout bounds the sink call.
	Timeout      time.Duration
	MaxBodyBytes int64
	// MaxPayloadBytes overrides the size estimate ceiling; zero keeps
	// sizeguard.MaxPayloadBytes.
	MaxPayloadBytes int
	Logger          zerolog.Logger
	NewUUID         func() string
	Now             func() time.Time
}

// Pipeline runs decode, size guard, schema validation, token resolution and
// forwarding, in that order, and maps the first failure to a response.
type Pipeline struct {
	opts Options
}

// New returns a Pipeline. Validator and Sink are required.
func New(opts Options) (*Pipeline, error) {
	if opts.Sink == nil {
		return nil, errors.New("admission: sink is required")
	}
	if opts.Validator == nil {
		opts.Validator = schema.New()
	}
	if _, err := schema.SchemaFor(opts.Profile); err != nil {
		return nil, fmt.Errorf("admission: %w", err)
	}
	if opts.Variant == "" {
		opts.Variant = string(opts.Profile)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.NewUUID == nil {
		opts.NewUUID = func() string { return uuid.NewString() }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{opts: opts}, nil
}

// Variant returns the route name the pipeline serves.
func (p *Pipeline) Variant() string { return p.opts.Variant }

// Admit handles one request. It never panics on untrusted input and never
// returns validation detail to the caller.
func (p *Pipeline) Admit(ctx context.Context, req Request) Result {
	log := p.opts.Logger.With().
		Str("variant", p.opts.Variant).
		Str("request_id", req.RequestID).
		Logger()

	res := p.admit(ctx, req, log)
	metrics.Admissions.WithLabelValues(p.opts.Variant, string(res.Outcome)).Inc()

	switch res.Outcome {
	case OutcomeAccepted:
		log.Debug().Str("uuid", res.UUID).Msg("payload accepted")
	case OutcomeSinkUnavailable, OutcomeTokenStoreError:
		log.Error().Err(res.Err).Str("outcome", string(res.Outcome)).Msg("payload not forwarded")
	default:
		ev := log.Info().Err(res.Err).Str("outcome", string(res.Outcome))
		var verr *schema.ValidationError
		if errors.As(res.Err, &verr) {
			ev = ev.Str("field", verr.Field).Str("rule", string(verr.Rule))
		}
		ev.Msg("payload rejected")
	}
	return res
}

func (p *Pipeline) admit(ctx context.Context, req Request, log zerolog.Logger) Result {
	raw, err := p.readBody(req.Body)
	if err != nil {
		if errors.Is(err, sizeguard.ErrPayloadTooLarge) {
			return reject(http.StatusRequestEntityTooLarge, OutcomeTooLarge, MessageTooLarge, err)
		}
		return reject(http.StatusBadRequest, OutcomeMalformed, MessageMalformed, err)
	}

	doc, err := decode(raw)
	if err != nil {
		return reject(http.StatusBadRequest, OutcomeMalformed, MessageMalformed, err)
	}

	if err := p.checkSize(doc); err != nil {
		return reject(http.StatusRequestEntityTooLarge, OutcomeTooLarge, MessageTooLarge, err)
	}

	normalized, err := p.opts.Validator.Validate(p.opts.Profile, doc)
	if err != nil {
		return reject(http.StatusUnprocessableEntity, OutcomeSchemaViolation, MessageInvalid, err)
	}

	var scope *model.Scope
	if p.opts.Resolver != nil {
		s, err := p.resolve(ctx, req.Authorization)
		switch {
		case err == nil:
			scope = &s
		case errors.Is(err, token.ErrMissingToken),
			errors.Is(err, token.ErrTokenNotFound),
			errors.Is(err, token.ErrTokenRevoked):
			return reject(http.StatusUnauthorized, OutcomeUnauthorized, MessageUnauthorized, err)
		default:
			return failure(OutcomeTokenStoreError, err)
		}
	}

	env := sinks.Envelope{
		Record: p.record(normalized, scope),
		Raw: model.RawRequest{
			Method:  req.Method,
			Path:    req.Path,
			Query:   req.Query,
			Headers: req.Headers,
			Body:    string(raw),
		},
	}
	if err := p.forward(ctx, env); err != nil {
		return failure(OutcomeSinkUnavailable, err)
	}

	if p.opts.Sink.Mode() == sinks.Durable {
		id := env.Record.Meta.UUID
		return Result{Status: http.StatusCreated, Body: AcceptedBody{UUID: id}, Outcome: OutcomeAccepted, UUID: id}
	}
	return Result{Status: http.StatusCreated, Outcome: OutcomeAccepted}
}

func (p *Pipeline) readBody(body io.Reader) ([]byte, error) {
	if body == nil {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedRequest)
	}
	raw, err := io.ReadAll(io.LimitReader(body, p.opts.MaxBodyBytes+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: body exceeds %d bytes", sizeguard.ErrPayloadTooLarge, maxErr.Limit)
		}
		return nil, fmt.Errorf("%w: read body: %w", ErrMalformedRequest, err)
	}
	if int64(len(raw)) > p.opts.MaxBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", sizeguard.ErrPayloadTooLarge, p.opts.MaxBodyBytes)
	}
	return raw, nil
}

// decode parses exactly one JSON value. Numbers stay json.Number so integer
// checks see the literal.
func decode(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedRequest)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrMalformedRequest)
	}
	return doc, nil
}

func (p *Pipeline) checkSize(doc any) error {
	if p.opts.MaxPayloadBytes > 0 {
		return sizeguard.CheckLimit(doc, p.opts.MaxPayloadBytes)
	}
	return sizeguard.Check(doc)
}

func (p *Pipeline) resolve(ctx context.Context, header string) (model.Scope, error) {
	raw, err := token.ExtractBearer(header)
	if err != nil {
		return model.Scope{}, err
	}
	return p.opts.Resolver.Resolve(ctx, raw)
}

func (p *Pipeline) record(data map[string]any, scope *model.Scope) model.Record {
	meta := model.Meta{
		UUID:       p.opts.NewUUID(),
		ReceivedAt: p.opts.Now().UTC(),
	}
	if scope != nil {
		account, env := scope.AccountID, scope.EnvironmentID
		meta.AccountID = &account
		meta.EnvironmentID = &env
	}
	return model.Record{Data: data, Meta: meta}
}

func (p *Pipeline) forward(ctx context.Context, env sinks.Envelope) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	start := time.Now()
	err := p.opts.Sink.Forward(ctx, env)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.SinkDuration.WithLabelValues(p.opts.Sink.Name(), result).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, sinks.ErrSinkUnavailable) {
		err = fmt.Errorf("%w: %s: %w", sinks.ErrSinkUnavailable, p.opts.Sink.Name(), err)
	}
	return err
}
