package tracker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/five82/courier/internal/bridge"
	"github.com/five82/courier/internal/order"
	"github.com/five82/courier/internal/remote"
	"github.com/five82/courier/internal/state"
)

// Drives the tracker against the in-memory backend through the real bridge,
// so every local write comes back as a remote echo.
func TestTracker_RoundTripsThroughBridge(t *testing.T) {
	defer goleak.VerifyNone(t)

	backend := remote.NewMemory()
	defer backend.Close()

	store := &state.Store{}
	var tr *Tracker
	b := bridge.New(backend, func(err error) { tr.ApplyError(err) })
	tr = New(Options{Store: store, Sync: b})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Subscribe(ctx, tr.ApplyOrders, tr.ApplyHistory) }()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool { return tr.Snapshot().HasOrders }, 2*time.Second, 5*time.Millisecond)

	o, err := tr.Create(ctx, order.Input{EventName: "Gala", Address: "Main 1", DeliveryTime: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	require.NoError(t, tr.ConfirmDelivery(ctx, o.ID, false, time.Time{}))

	require.Eventually(t, func() bool {
		snap := tr.Snapshot()
		return len(snap.History) == 1 && len(snap.Orders) == 1 && snap.Orders[0].Status == order.StatusDelivered
	}, 2*time.Second, 5*time.Millisecond)

	snap := tr.Snapshot()
	assert.Equal(t, o.ID, snap.History[0].ID)
	assert.False(t, snap.History[0].ReturnScheduled)
	assert.Zero(t, snap.ConsecutiveFailures)
}

func TestTracker_CreateBeforeFirstSnapshotKeepsRemoteOrders(t *testing.T) {
	ctx := context.Background()
	backend := remote.NewMemory()
	defer backend.Close()

	existing := map[string]order.Order{
		"A": {ID: "A", EventName: "Spring Gala", Address: "Hall 2", Status: order.StatusPending, DeliveryTime: time.Now().Add(time.Hour).Truncate(time.Millisecond)},
	}
	doc, err := json.Marshal(existing)
	require.NoError(t, err)
	require.NoError(t, backend.Set(ctx, remote.CollectionOrders, doc))

	b := bridge.New(backend, func(error) {})
	tr := New(Options{Store: &state.Store{}, Sync: b})

	in := order.Input{EventName: "Picnic", Address: "Park 3", DeliveryTime: time.Now().Add(2 * time.Hour)}
	_, err = tr.Create(ctx, in)
	require.ErrorIs(t, err, ErrNotSynced)
	assert.Empty(t, tr.Snapshot().Orders)

	remoteOrders := func() map[string]order.Order {
		doc, err := backend.Get(ctx, remote.CollectionOrders)
		require.NoError(t, err)
		orders, err := bridge.DecodeOrders(doc)
		require.NoError(t, err)
		return orders
	}
	require.Contains(t, remoteOrders(), "A")

	tr.ApplyOrders(remoteOrders())
	o, err := tr.Create(ctx, in)
	require.NoError(t, err)

	after := remoteOrders()
	assert.Len(t, after, 2)
	assert.Contains(t, after, "A")
	assert.Contains(t, after, o.ID)
}
