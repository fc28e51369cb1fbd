package order

import (
	"fmt"
	"sort"
	"time"
)

// DeliveredRetention is how long a delivered order stays on the board.
const DeliveredRetention = 4 * time.Hour

// Create builds a pending order from validated operator input.
func Create(in Input, id string, now time.Time) (Order, error) {
	in, err := in.Validate()
	if err != nil {
		return Order{}, err
	}
	return Order{
		ID:           id,
		EventName:    in.EventName,
		Address:      in.Address,
		DeliveryTime: in.DeliveryTime,
		Status:       StatusPending,
		CreatedAt:    now,
	}, nil
}

// ConfirmDelivery marks a pending order as dropped off. With a return the order waits for
// pickup and no history is written yet; without one it is finished and a history entry is
// returned.
func ConfirmDelivery(o Order, hasReturn bool, returnTime time.Time, now time.Time) (Order, *HistoryEntry, error) {
	if o.Status != StatusPending {
		return o, nil, fmt.Errorf("confirm delivery of %s order: %w", o.Status, ErrInvalidTransition)
	}
	if hasReturn {
		if returnTime.IsZero() {
			return o, nil, &ValidationError{Fields: map[string]string{"return time": "is required"}}
		}
		o.Status = StatusReturnScheduled
		o.ReturnTime = returnTime
		return o, nil, nil
	}

	o.Status = StatusDelivered
	o.DeliveredAt = now
	entry := historyFor(o, now)
	return o, &entry, nil
}

// CompleteReturn finalizes a scheduled pickup.
func CompleteReturn(o Order, now time.Time) (Order, HistoryEntry, error) {
	if o.Status != StatusReturnScheduled {
		return o, HistoryEntry{}, fmt.Errorf("complete return of %s order: %w", o.Status, ErrInvalidTransition)
	}
	o.Status = StatusDelivered
	o.ReturnCompleted = true
	o.DeliveredAt = now
	return o, historyFor(o, now), nil
}

// Edit overwrites the descriptive fields. Status is left untouched whatever it is.
func Edit(o Order, in Input) (Order, error) {
	in, err := in.Validate()
	if err != nil {
		return o, err
	}
	o.EventName = in.EventName
	o.Address = in.Address
	o.DeliveryTime = in.DeliveryTime
	return o, nil
}

// ExpireDelivered returns the ids of delivered orders older than DeliveredRetention, sorted.
func ExpireDelivered(orders map[string]Order, now time.Time) []string {
	var expired []string
	for id, o := range orders {
		if o.Status != StatusDelivered || o.DeliveredAt.IsZero() {
			continue
		}
		if now.Sub(o.DeliveredAt) > DeliveredRetention {
			expired = append(expired, id)
		}
	}
	sort.Strings(expired)
	return expired
}

func historyFor(o Order, now time.Time) HistoryEntry {
	entry := HistoryEntry{
		ID:              o.ID,
		EventName:       o.EventName,
		Address:         o.Address,
		CreatedAt:       o.CreatedAt,
		DeliveryTime:    o.DeliveryTime,
		DeliveredAt:     o.DeliveredAt,
		ReturnScheduled: o.HasReturn(),
		ReturnTime:      o.ReturnTime,
	}
	if o.ReturnCompleted && o.Status == StatusDelivered {
		entry.ReturnCompletedAt = now
	}
	return entry
}
