package lambdasink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akave-ai/logwatch/internal/infrastructure/sinks"
	"github.com/akave-ai/logwatch/internal/model"
)

type fakeInvoker struct {
	in     *lambda.InvokeInput
	status int32
	err    error
}

func (f *fakeInvoker) Invoke(_ context.Context, in *lambda.InvokeInput, _ ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &lambda.InvokeOutput{StatusCode: f.status}, nil
}

func rawEnvelope() sinks.Envelope {
	return sinks.Envelope{Raw: model.RawRequest{
		Method:  http.MethodPost,
		Path:    "/entrypoint",
		Headers: map[string][]string{"Content-Type": {"application/json"}},
		Body:    `{"time":"2024-01-01T00:00:00Z"}`,
	}}
}

func TestSink_ForwardInvokesAsync(t *testing.T) {
	inv := &fakeInvoker{status: http.StatusAccepted}
	s := New(inv, "logwatch-ingest", "live")

	require.NoError(t, s.Forward(context.Background(), rawEnvelope()))

	require.NotNil(t, inv.in)
	assert.Equal(t, "logwatch-ingest", aws.ToString(inv.in.FunctionName))
	assert.Equal(t, "live", aws.ToString(inv.in.Qualifier))
	assert.Equal(t, types.InvocationTypeEvent, inv.in.InvocationType)

	var raw model.RawRequest
	require.NoError(t, json.Unmarshal(inv.in.Payload, &raw))
	assert.Equal(t, "/entrypoint", raw.Path)
	assert.Equal(t, `{"time":"2024-01-01T00:00:00Z"}`, raw.Body)
}

func TestSink_ForwardFailures(t *testing.T) {
	err := New(&fakeInvoker{err: errors.New("throttled")}, "fn", "").Forward(context.Background(), rawEnvelope())
	assert.ErrorIs(t, err, sinks.ErrSinkUnavailable)

	err = New(&fakeInvoker{status: http.StatusOK}, "fn", "").Forward(context.Background(), rawEnvelope())
	assert.ErrorIs(t, err, sinks.ErrSinkUnavailable)
	assert.Contains(t, err.Error(), "status 200")
}

func TestSink_Mode(t *testing.T) {
	s := New(&fakeInvoker{}, "fn", "")
	assert.Equal(t, sinks.Dispatch, s.Mode())
	assert.Equal(t, "lambda", s.Name())
	assert.NoError(t, s.Close())
}

func TestFactory_RequiresFunctionName(t *testing.T) {
	_, err := sinks.GlobalRegistry.Create(context.Background(), "lambda", sinks.Config{})
	assert.EqualError(t, err, "lambda sink: missing function_name")

	s, err := sinks.GlobalRegistry.Create(context.Background(), "lambda", sinks.Config{
		"function_name": "fn",
		"access_key":    "key",
		"secret_key":    "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, sinks.Dispatch, s.Mode())
}
