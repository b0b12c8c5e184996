package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	failures int
	messages []kafka.Message
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.failures > 0 {
		w.failures--
		return errors.New("broker unavailable")
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublish_EncodesKeyAndValue(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "index.complete")
	require.NoError(t, p.Publish(context.Background(), Event{
		Key:   "cacm",
		Value: map[string]int{"documents": 2},
	}))

	require.Len(t, w.messages, 1)
	assert.Equal(t, "cacm", string(w.messages[0].Key))
	var got map[string]int
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &got))
	assert.Equal(t, 2, got["documents"])
}

func TestPublish_RetriesTransientFailure(t *testing.T) {
	w := &fakeWriter{failures: 1}
	p := NewProducerWithWriter(w, "t")
	p.retry.InitialDelay = time.Millisecond
	require.NoError(t, p.Publish(context.Background(), Event{Key: "k", Value: 1}))
	assert.Len(t, w.messages, 1)
}

func TestPublish_GivesUp(t *testing.T) {
	w := &fakeWriter{failures: 10}
	p := NewProducerWithWriter(w, "t")
	p.retry.InitialDelay = time.Millisecond
	err := p.Publish(context.Background(), Event{Key: "k", Value: 1})
	assert.Error(t, err)
	assert.Empty(t, w.messages)
}

func TestPublish_DoesNotRetryPermanentError(t *testing.T) {
	w := &permanentWriter{}
	p := NewProducerWithWriter(w, "t")
	p.retry.InitialDelay = time.Millisecond
	err := p.Publish(context.Background(), Event{Key: "k", Value: 1})
	assert.ErrorIs(t, err, kafka.MessageSizeTooLarge)
	assert.Equal(t, 1, w.calls)
}

type permanentWriter struct{ calls int }

func (w *permanentWriter) WriteMessages(context.Context, ...kafka.Message) error {
	w.calls++
	return kafka.MessageSizeTooLarge
}

func (w *permanentWriter) Close() error { return nil }

func TestPublish_RejectsUnencodableValue(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{}, "t")
	err := p.Publish(context.Background(), Event{Key: "k", Value: make(chan int)})
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewProducerWithWriter(w, "t").Close())
	assert.True(t, w.closed)
}
