// Package lambdasink hands raw requests to an asynchronously invoked function.
package lambdasink

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/akave-ai/logwatch/internal/infrastructure/sinks"
)

// Invoker is the subset of *lambda.Client the sink uses.
type Invoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// Sink is a dispatch sink. A nil error means the invocation was queued by
// the service, not that the function ran.
type Sink struct {
	invoker   Invoker
	function  string
	qualifier string
}

// New returns a Sink invoking function through inv.
func New(inv Invoker, function, qualifier string) *Sink {
	return &Sink{invoker: inv, function: function, qualifier: qualifier}
}

func (s *Sink) Name() string     { return typeName }
func (s *Sink) Mode() sinks.Mode { return sinks.Dispatch }

func (s *Sink) Forward(ctx context.Context, env sinks.Envelope) error {
	payload, err := env.RawJSON()
	if err != nil {
		return fmt.Errorf("%w: lambda: encode request: %w", sinks.ErrSinkUnavailable, err)
	}
	in := &lambda.InvokeInput{
		FunctionName:   aws.String(s.function),
		InvocationType: types.InvocationTypeEvent,
		Payload:        payload,
	}
	if s.qualifier != "" {
		in.Qualifier = aws.String(s.qualifier)
	}
	out, err := s.invoker.Invoke(ctx, in)
	if err != nil {
		return fmt.Errorf("%w: lambda: invoke %s: %w", sinks.ErrSinkUnavailable, s.function, err)
	}
	if out.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: lambda: invoke %s: status %d", sinks.ErrSinkUnavailable, s.function, out.StatusCode)
	}
	return nil
}

func (s *Sink) Close() error { return nil }
