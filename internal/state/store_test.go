package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/courier/internal/order"
)

func testOrder(id string, status order.Status) order.Order {
	return order.Order{
		ID:           id,
		EventName:    "Event " + id,
		Address:      "Street " + id,
		DeliveryTime: time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC),
		Status:       status,
		CreatedAt:    time.Date(2025, 6, 13, 9, 0, 0, 0, time.UTC),
	}
}

func TestStore_ZeroValueIsUsable(t *testing.T) {
	var s Store

	if _, ok := s.Get("missing"); ok {
		t.Fatal("Get on empty store returned ok=true")
	}
	if s.Remove("missing") {
		t.Fatal("Remove on empty store returned true")
	}
	if got := s.All(); len(got) != 0 {
		t.Fatalf("All() = %v, want empty", got)
	}
	snap := s.Snapshot()
	if snap.HasOrders || snap.IsOffline() || snap.LastError != nil {
		t.Fatalf("zero snapshot = %#v", snap)
	}
}

func TestStore_UpsertGetRemove(t *testing.T) {
	var s Store

	s.Upsert(testOrder("b", order.StatusPending))
	s.Upsert(testOrder("a", order.StatusPending))

	got, ok := s.Get("a")
	if !ok || got.EventName != "Event a" {
		t.Fatalf("Get(a) = %#v, %v", got, ok)
	}

	updated := testOrder("a", order.StatusDelivered)
	s.Upsert(updated)
	got, _ = s.Get("a")
	if got.Status != order.StatusDelivered {
		t.Fatalf("Upsert did not replace; status = %s", got.Status)
	}
	if len(s.All()) != 2 {
		t.Fatalf("All() len = %d, want 2", len(s.All()))
	}

	if !s.Remove("a") {
		t.Fatal("Remove(a) = false, want true")
	}
	if _, ok := s.Get("a"); ok {
		t.Fatal("order a still present after Remove")
	}
}

func TestStore_ReplaceAllIsolatesCallerMap(t *testing.T) {
	var s Store

	in := map[string]order.Order{
		"x": testOrder("x", order.StatusPending),
		"y": testOrder("y", order.StatusReturnScheduled),
	}
	s.ReplaceAll(in)
	delete(in, "x")

	if _, ok := s.Get("x"); !ok {
		t.Fatal("ReplaceAll should copy the caller's map")
	}

	out := s.Orders()
	out["z"] = testOrder("z", order.StatusPending)
	if _, ok := s.Get("z"); ok {
		t.Fatal("Orders() should return a copy")
	}

	s.ReplaceAll(nil)
	if len(s.All()) != 0 {
		t.Fatal("ReplaceAll(nil) should empty the store")
	}
	s.Upsert(testOrder("n", order.StatusPending))
	if _, ok := s.Get("n"); !ok {
		t.Fatal("Upsert after ReplaceAll(nil) lost the order")
	}
}

func TestStore_SnapshotSortedAndCloned(t *testing.T) {
	var s Store

	s.ReplaceAll(map[string]order.Order{
		"c": testOrder("c", order.StatusPending),
		"a": testOrder("a", order.StatusPending),
		"b": testOrder("b", order.StatusDelivered),
	})
	s.SetHistory([]order.HistoryEntry{{ID: "h1"}})

	snap := s.Snapshot()
	ids := make([]string, 0, len(snap.Orders))
	for _, o := range snap.Orders {
		ids = append(ids, o.ID)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, ids); diff != "" {
		t.Fatalf("snapshot order ids mismatch (-want +got):\n%s", diff)
	}
	if !snap.HasOrders {
		t.Fatal("HasOrders = false after ReplaceAll")
	}

	// Returned snapshot should be independent of the stored one.
	snap.Orders[0].EventName = "mutated"
	snap.History[0].ID = "mutated"
	again := s.Snapshot()
	if again.Orders[0].EventName != "Event a" {
		t.Fatalf("Snapshot should clone orders; got %q", again.Orders[0].EventName)
	}
	if got := s.History(); got[0].ID != "h1" {
		t.Fatalf("Snapshot should clone history; got %q", got[0].ID)
	}
}

func TestStore_SyncErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.ReplaceAll(map[string]order.Order{"a": testOrder("a", order.StatusPending)})

	before := time.Now()
	origErr := errors.New("boom")
	s.RecordSyncError(origErr)

	snap := s.Snapshot()
	if len(snap.Orders) != 1 {
		t.Fatalf("orders changed on error: %#v", snap.Orders)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if !errors.Is(snap.LastError, origErr) {
		t.Fatal("LastError should wrap the recorded error")
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}

	s.RecordSyncError(nil)
	if s.Snapshot().ConsecutiveFailures != 1 {
		t.Fatal("RecordSyncError(nil) should be ignored")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	s.RecordSyncError(errors.New("fail 1"))
	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 1 {
		t.Fatalf("ConsecutiveFailures = %d, want 1", snap.ConsecutiveFailures)
	}
	if snap.IsOffline() {
		t.Fatal("IsOffline() = true, want false with 1 failure")
	}

	// Second failure - now offline
	s.RecordSyncError(errors.New("fail 2"))
	if !s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = false, want true with 2 failures")
	}

	// A remote value resets the counter
	s.SetHistory(nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() || snap.LastError != nil {
		t.Fatalf("snapshot after success = %#v", snap)
	}
}
