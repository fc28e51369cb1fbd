package ui

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/courier/internal/order"
)

var boardNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestBuildCards(t *testing.T) {
	orders := []order.Order{
		{
			ID:           "c",
			EventName:    "Late Lunch",
			Status:       order.StatusPending,
			DeliveryTime: boardNow.Add(-10 * time.Minute),
		},
		{
			ID:           "a",
			EventName:    "Spring Gala",
			Status:       order.StatusPending,
			DeliveryTime: boardNow.Add(2 * time.Hour),
		},
		{
			ID:           "b",
			EventName:    "Board Retreat",
			Status:       order.StatusReturnScheduled,
			DeliveryTime: boardNow.Add(-3 * time.Hour),
			ReturnTime:   boardNow.Add(30 * time.Minute),
		},
		{
			ID:              "d",
			EventName:       "Picnic",
			Status:          order.StatusDelivered,
			DeliveryTime:    boardNow.Add(-5 * time.Hour),
			ReturnTime:      boardNow.Add(-time.Hour),
			ReturnCompleted: true,
		},
	}

	cards := buildCards(orders, boardNow)

	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, ids); diff != "" {
		t.Fatalf("card order mismatch (-want +got):\n%s", diff)
	}

	a, b, c, d := cards[0], cards[1], cards[2], cards[3]

	if a.Class != order.ClassYellow || a.DeliveryLeft != "2h 0m" || a.DeliveryStruck || !a.CanDeliver || a.ShowReturn {
		t.Fatalf("pending card = %+v", a)
	}
	if a.Badge != "Delivery" {
		t.Fatalf("pending badge = %q", a.Badge)
	}

	if b.Class != order.ClassBlue || !b.DeliveryStruck || !b.ShowReturn || b.ReturnStruck || !b.CanComplete || b.CanDeliver {
		t.Fatalf("pickup card = %+v", b)
	}
	if b.ReturnLeft != "0h 30m" {
		t.Fatalf("pickup ReturnLeft = %q, want 0h 30m", b.ReturnLeft)
	}

	if c.Class != order.ClassRed || c.DeliveryLeft != expiredLabel {
		t.Fatalf("late card = %+v", c)
	}

	if d.Class != order.ClassPurple || !d.ShowReturn || !d.ReturnStruck || d.ReturnLeft != expiredLabel || d.Badge != "Done" {
		t.Fatalf("completed pickup card = %+v", d)
	}
}

func TestBuildCards_DeliveredWithoutPickupHidesReturn(t *testing.T) {
	cards := buildCards([]order.Order{{
		ID:           "x",
		Status:       order.StatusDelivered,
		DeliveryTime: boardNow.Add(-time.Hour),
	}}, boardNow)

	if cards[0].ShowReturn {
		t.Fatalf("delivered card without pickup shows a return line")
	}
	if !cards[0].DeliveryStruck {
		t.Fatalf("delivered card delivery time should be struck")
	}
}

func TestTimerTargets(t *testing.T) {
	cards := []cardView{
		{ID: "a", Status: order.StatusPending, DeliveryTime: boardNow.Add(time.Hour)},
		{ID: "b", Status: order.StatusReturnScheduled, DeliveryTime: boardNow, ReturnTime: boardNow.Add(2 * time.Hour)},
		{ID: "c", Status: order.StatusDelivered, DeliveryTime: boardNow.Add(-time.Hour)},
	}

	want := []timerTarget{
		{Key: "a", Target: boardNow.Add(time.Hour)},
		{Key: "b", Target: boardNow},
		{Key: "return-b", Target: boardNow.Add(2 * time.Hour)},
		{Key: "c", Target: boardNow.Add(-time.Hour)},
	}
	if diff := cmp.Diff(want, timerTargets(cards)); diff != "" {
		t.Fatalf("timer targets mismatch (-want +got):\n%s", diff)
	}
}

func TestGridColumns(t *testing.T) {
	cases := map[int]int{
		0:   1,
		36:  1,
		73:  2,
		120: 3,
	}
	for width, want := range cases {
		if got := gridColumns(width); got != want {
			t.Fatalf("gridColumns(%d) = %d, want %d", width, got, want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("shortID(abc) = %q", got)
	}
	if got := shortID("0190b8a4-7c2e-7d11-9a3b-5f6e7d8c9b0a"); got != "…7d8c9b0a" {
		t.Fatalf("shortID(uuid) = %q", got)
	}
}
