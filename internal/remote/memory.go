package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory is an in-process Backend. Writes are echoed to every watcher
// asynchronously, the way a realtime database echoes a client's own writes.
type Memory struct {
	mu       sync.Mutex
	docs     map[string]json.RawMessage
	watchers map[string]map[*watcher]struct{}
	closed   chan struct{}
	once     sync.Once
}

var _ Backend = (*Memory)(nil)

// NewMemory returns an empty in-process backend.
func NewMemory() *Memory {
	return &Memory{
		docs:     make(map[string]json.RawMessage),
		watchers: make(map[string]map[*watcher]struct{}),
		closed:   make(chan struct{}),
	}
}

// Get returns the stored document or Null.
func (m *Memory) Get(ctx context.Context, collection string) (json.RawMessage, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[collection]
	if !ok {
		return Null, nil
	}
	return normalize(doc), nil
}

// Set stores doc and queues it for every watcher of the collection.
func (m *Memory) Set(ctx context.Context, collection string, doc json.RawMessage) error {
	if err := m.check(ctx); err != nil {
		return err
	}
	if !IsNull(doc) && !json.Valid(doc) {
		return fmt.Errorf("set %s: document is not valid JSON", collection)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := normalize(doc)
	m.docs[collection] = stored
	for w := range m.watchers[collection] {
		w.offer(stored)
	}
	return nil
}

// Watch delivers the current document and then every later write.
func (m *Memory) Watch(ctx context.Context, collection string, onValue func(json.RawMessage), _ func(error)) error {
	if err := m.check(ctx); err != nil {
		return err
	}

	w := &watcher{ch: make(chan json.RawMessage, 1)}
	m.mu.Lock()
	if m.watchers[collection] == nil {
		m.watchers[collection] = make(map[*watcher]struct{})
	}
	m.watchers[collection][w] = struct{}{}
	current, ok := m.docs[collection]
	if !ok {
		current = Null
	}
	w.offer(normalize(current))
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.watchers[collection], w)
		m.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.closed:
			return ErrClosed
		case doc := <-w.ch:
			onValue(doc)
		}
	}
}

// Close stops every watcher. It is safe to call more than once.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.closed) })
	return nil
}

func (m *Memory) check(ctx context.Context) error {
	select {
	case <-m.closed:
		return ErrClosed
	default:
	}
	return ctx.Err()
}

// watcher holds at most one pending document; a newer write replaces an
// undelivered older one.
type watcher struct {
	ch chan json.RawMessage
}

func (w *watcher) offer(doc json.RawMessage) {
	select {
	case <-w.ch:
	default:
	}
	w.ch <- doc
}
