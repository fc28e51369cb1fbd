// Package state holds the in-memory order board shared by the sync bridge, the
// tracker, and the UI.
//
// # Overview
//
// Store is a keyed container mapping order id to order.Order. It mirrors the
// remote "orders" collection and is the single source of truth for rendering.
// It also caches the last "history" value and the health of the remote sync.
//
//	Bridge callbacks ──→ tracker ──→ store.ReplaceAll / SetHistory
//	Operator actions ──→ tracker ──→ store.Upsert / Remove
//	UI redraw        ←── store.Snapshot()
//
// # Contract
//
// The store performs no validation and has no side effects: a mutation is
// never followed by a push or a redraw from inside this package. The tracker
// sequences those steps explicitly, which keeps the store testable alone.
//
// # Concurrency
//
// Writes take the exclusive lock and reads the shared lock. Every read returns
// copies (maps.Clone, slices.Clone), so callers may mutate results freely.
// The lock is never held during network I/O or rendering.
//
// # Sync Health
//
// RecordSyncError keeps the previous data and counts consecutive failures;
// any remote value (ReplaceAll or SetHistory) resets the counter. A snapshot
// reports IsOffline once two failures happened in a row, which the header
// renders as an offline badge.
//
// # Usage Example
//
//	var store state.Store // ready to use
//	store.ReplaceAll(remoteOrders)
//	snap := store.Snapshot()
//	for _, o := range snap.Orders { // sorted by id
//		render(o)
//	}
package state
