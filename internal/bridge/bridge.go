package bridge

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/five82/courier/internal/order"
	"github.com/five82/courier/internal/remote"
)

// Bridge mirrors the "orders" and "history" collections between the local
// store and a remote backend. Writes overwrite whole collections; the last
// writer wins.
type Bridge struct {
	backend remote.Backend
	onError func(error)
}

// New returns a Bridge over backend. onError receives decode and watch
// failures; it may be nil.
func New(backend remote.Backend, onError func(error)) *Bridge {
	if onError == nil {
		onError = func(error) {}
	}
	return &Bridge{backend: backend, onError: onError}
}

// Subscribe watches both collections until ctx is done. Each callback fires
// with the current value first and again after every remote change,
// including echoes of this client's own writes. Undecodable values are
// reported to the error hook and skipped.
func (b *Bridge) Subscribe(ctx context.Context, onOrders func(map[string]order.Order), onHistory func([]order.HistoryEntry)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.backend.Watch(ctx, remote.CollectionOrders, func(doc json.RawMessage) {
			orders, err := DecodeOrders(doc)
			if err != nil {
				b.onError(err)
				return
			}
			onOrders(orders)
		}, b.watchError(remote.CollectionOrders))
	})
	g.Go(func() error {
		return b.backend.Watch(ctx, remote.CollectionHistory, func(doc json.RawMessage) {
			entries, err := DecodeHistory(doc)
			if err != nil {
				b.onError(err)
				return
			}
			onHistory(entries)
		}, b.watchError(remote.CollectionHistory))
	})
	return g.Wait()
}

// PushOrders overwrites the remote orders collection with a full snapshot.
func (b *Bridge) PushOrders(ctx context.Context, orders map[string]order.Order) error {
	if len(orders) == 0 {
		return b.backend.Set(ctx, remote.CollectionOrders, remote.Null)
	}
	doc, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("encode orders: %w", err)
	}
	if err := b.backend.Set(ctx, remote.CollectionOrders, doc); err != nil {
		return fmt.Errorf("push orders: %w", err)
	}
	return nil
}

// AppendHistory reads the history collection, appends entry, and writes the
// whole collection back. Concurrent appenders race like PushOrders.
func (b *Bridge) AppendHistory(ctx context.Context, entry order.HistoryEntry) error {
	current, err := b.backend.Get(ctx, remote.CollectionHistory)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	entries, err := DecodeHistory(current)
	if err != nil {
		return err
	}
	doc, err := json.Marshal(append(entries, entry))
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := b.backend.Set(ctx, remote.CollectionHistory, doc); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

func (b *Bridge) watchError(collection string) func(error) {
	return func(err error) {
		b.onError(fmt.Errorf("watch %s: %w", collection, err))
	}
}

// DecodeOrders parses an orders document. null decodes to an empty map and
// an order without an id takes its key.
func DecodeOrders(doc json.RawMessage) (map[string]order.Order, error) {
	orders := make(map[string]order.Order)
	if remote.IsNull(doc) {
		return orders, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	for key, value := range raw {
		if remote.IsNull(value) {
			continue
		}
		var o order.Order
		if err := json.Unmarshal(value, &o); err != nil {
			return nil, fmt.Errorf("decode order %s: %w", key, err)
		}
		if o.ID == "" {
			o.ID = key
		}
		orders[o.ID] = o
	}
	return orders, nil
}

// DecodeHistory parses a history document given as an array or as an object
// keyed by index, which is how sparse arrays come back from a realtime
// database. Entries are returned in index order; null holes are dropped.
func DecodeHistory(doc json.RawMessage) ([]order.HistoryEntry, error) {
	if remote.IsNull(doc) {
		return nil, nil
	}

	var items []json.RawMessage
	switch trimmed := strings.TrimSpace(string(doc)); {
	case strings.HasPrefix(trimmed, "["):
		if err := json.Unmarshal(doc, &items); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
	case strings.HasPrefix(trimmed, "{"):
		var keyed map[string]json.RawMessage
		if err := json.Unmarshal(doc, &keyed); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		keys := lo.Keys(keyed)
		slices.SortFunc(keys, compareIndexKeys)
		items = lo.Map(keys, func(k string, _ int) json.RawMessage { return keyed[k] })
	default:
		return nil, fmt.Errorf("decode history: unexpected document %.40q", trimmed)
	}

	items = lo.Reject(items, func(item json.RawMessage, _ int) bool { return remote.IsNull(item) })
	entries := make([]order.HistoryEntry, 0, len(items))
	for i, item := range items {
		var entry order.HistoryEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			return nil, fmt.Errorf("decode history entry %d: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// compareIndexKeys orders numeric keys numerically, ahead of any other keys.
func compareIndexKeys(a, b string) int {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return cmp.Compare(ai, bi)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return strings.Compare(a, b)
}
