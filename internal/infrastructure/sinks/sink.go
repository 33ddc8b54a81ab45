// Package sinks defines the destinations accepted log payloads are forwarded
// to. Concrete sink types live in subpackages and register their Factory with
// GlobalRegistry in init().
package sinks

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/akave-ai/logwatch/internal/model"
)

// ErrSinkUnavailable wraps every failure to hand a payload to a sink.
var ErrSinkUnavailable = errors.New("sink unavailable")

// Mode tells the admission pipeline what a successful Forward means.
type Mode string

const (
	// Durable sinks store the normalized record; success means it is stored.
	Durable Mode = "durable"
	// Dispatch sinks receive the raw request one-way; success means it was
	// accepted for processing.
	Dispatch Mode = "dispatch"
)

// Envelope carries both renditions of an accepted payload. Durable sinks
// read Record, dispatch sinks read Raw.
type Envelope struct {
	Record model.Record
	Raw    model.RawRequest
}

// RawJSON encodes the raw request handed to dispatch sinks.
func (e Envelope) RawJSON() ([]byte, error) {
	return json.Marshal(e.Raw)
}

// Sink is implemented by all sink types. Forward must honour ctx
// cancellation and must not retry internally.
type Sink interface {
	Name() string
	Mode() Mode
	Forward(ctx context.Context, env Envelope) error
	Close() error
}
