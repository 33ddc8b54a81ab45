package objectsink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akave-ai/logwatch/internal/infrastructure/sinks"
	"github.com/akave-ai/logwatch/internal/model"
)

type fakeWriter struct {
	key         string
	data        []byte
	contentType string
	err         error
}

func (w *fakeWriter) Bucket() string { return "logwatch-events" }

func (w *fakeWriter) PutObject(_ context.Context, key string, data []byte, contentType string) error {
	w.key, w.data, w.contentType = key, data, contentType
	return w.err
}

func testRecord() model.Record {
	account := int64(7)
	return model.Record{
		Data: map[string]any{"message": "boom", "level": "error"},
		Meta: model.Meta{
			UUID:       "0b6c8a5e-4f0e-4a4c-9d55-3f9b7f1f3f10",
			AccountID:  &account,
			ReceivedAt: time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestSink_ForwardWritesUUIDKey(t *testing.T) {
	w := &fakeWriter{}
	s := New(w, "")

	require.NoError(t, s.Forward(context.Background(), sinks.Envelope{Record: testRecord()}))

	assert.Equal(t, "0b6c8a5e-4f0e-4a4c-9d55-3f9b7f1f3f10.json", w.key)
	assert.Equal(t, "application/json", w.contentType)

	var got model.Record
	require.NoError(t, json.Unmarshal(w.data, &got))
	assert.Equal(t, "boom", got.Data["message"])
	require.NotNil(t, got.Meta.AccountID)
	assert.Equal(t, int64(7), *got.Meta.AccountID)
	assert.Nil(t, got.Meta.EnvironmentID)
}

func TestSink_Prefix(t *testing.T) {
	s := New(&fakeWriter{}, "events/")
	assert.Equal(t, "events/abc.json", s.Key("abc"))
	assert.Equal(t, sinks.Durable, s.Mode())
	assert.Equal(t, "s3", s.Name())
}

func TestSink_ForwardFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("connection reset")}
	s := New(w, "")

	err := s.Forward(context.Background(), sinks.Envelope{Record: testRecord()})
	require.Error(t, err)
	assert.ErrorIs(t, err, sinks.ErrSinkUnavailable)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Contains(t, err.Error(), "s3://logwatch-events/0b6c8a5e-4f0e-4a4c-9d55-3f9b7f1f3f10.json")
}

func TestSink_ForwardRequiresUUID(t *testing.T) {
	w := &fakeWriter{}
	err := New(w, "").Forward(context.Background(), sinks.Envelope{})
	assert.ErrorIs(t, err, sinks.ErrSinkUnavailable)
	assert.Empty(t, w.key)
}

func TestFactory_Registered(t *testing.T) {
	info, ok := sinks.GlobalRegistry.GetTypeInfo("s3")
	require.True(t, ok)
	assert.Equal(t, sinks.Durable, info.Mode)

	_, err := sinks.GlobalRegistry.Create(context.Background(), "s3", sinks.Config{})
	assert.EqualError(t, err, "s3 sink: missing bucket")
}
