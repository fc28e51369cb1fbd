package remote

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMemory_GetMissingIsNull(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	doc, err := m.Get(context.Background(), CollectionOrders)
	require.NoError(t, err)
	assert.True(t, IsNull(doc))
}

func TestMemory_SetRejectsInvalidJSON(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	err := m.Set(context.Background(), CollectionOrders, json.RawMessage(`{"a":`))
	require.Error(t, err)
}

func TestMemory_WatchEchoesWrites(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	values := make(chan json.RawMessage, 8)
	done := make(chan error, 1)
	go func() {
		done <- m.Watch(ctx, CollectionOrders, func(doc json.RawMessage) { values <- doc }, nil)
	}()

	first := receive(t, values)
	assert.True(t, IsNull(first), "initial value should be null, got %s", first)

	require.NoError(t, m.Set(ctx, CollectionOrders, json.RawMessage(`{"a":{"id":"a"}}`)))
	assert.JSONEq(t, `{"a":{"id":"a"}}`, string(receive(t, values)))

	require.NoError(t, m.Set(ctx, CollectionHistory, json.RawMessage(`[]`)))
	select {
	case doc := <-values:
		t.Fatalf("watcher of orders received history write %s", doc)
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestMemory_CloseStopsWatchers(t *testing.T) {
	m := NewMemory()

	done := make(chan error, 1)
	go func() {
		done <- m.Watch(context.Background(), CollectionHistory, func(json.RawMessage) {}, nil)
	}()

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrClosed))
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after Close")
	}

	_, err := m.Get(context.Background(), CollectionHistory)
	assert.ErrorIs(t, err, ErrClosed)
}

func receive(t *testing.T, ch <-chan json.RawMessage) json.RawMessage {
	t.Helper()
	select {
	case doc := <-ch:
		return doc
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for watch value")
		return nil
	}
}
