package sinks

import "context"

// Factory creates a Sink from config.
// Each sink type (s3, elasticsearch, lambda, ...) implements and registers a Factory.
// ConfigSpec declares which configuration fields this sink type needs.
type Factory interface {
	Name() string
	ConfigSpec() SinkTypeInfo
	Create(ctx context.Context, cfg Config) (Sink, error)
}
