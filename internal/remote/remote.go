package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
)

// Collection names shared by every backend.
const (
	CollectionOrders  = "orders"
	CollectionHistory = "history"
)

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("remote backend closed")

// Null is the document value of an empty or missing collection.
var Null = json.RawMessage("null")

// Backend is an opaque document store holding one JSON document per collection.
type Backend interface {
	// Get returns the current document, or Null when the collection is empty.
	Get(ctx context.Context, collection string) (json.RawMessage, error)
	// Set overwrites the whole collection document.
	Set(ctx context.Context, collection string, doc json.RawMessage) error
	// Watch blocks until ctx is done, calling onValue with the current document
	// first and again after every change, including the caller's own writes.
	// Transient failures go to onError while the watch keeps reconnecting.
	Watch(ctx context.Context, collection string, onValue func(json.RawMessage), onError func(error)) error
	Close() error
}

// IsNull reports whether doc is empty or the JSON null literal.
func IsNull(doc json.RawMessage) bool {
	trimmed := bytes.TrimSpace(doc)
	return len(trimmed) == 0 || bytes.Equal(trimmed, Null)
}

func normalize(doc json.RawMessage) json.RawMessage {
	if IsNull(doc) {
		return Null
	}
	return bytes.Clone(doc)
}
