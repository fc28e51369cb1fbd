package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of an order.
type Status string

// remember to add new statuses to the validStatuses map
const (
	StatusPending         Status = "pending"
	StatusReturnScheduled Status = "return_scheduled"
	StatusDelivered       Status = "delivered"
)

var validStatuses = map[Status]struct{}{
	StatusPending:         {},
	StatusReturnScheduled: {},
	StatusDelivered:       {},
}

// ParseStatus converts a wire value into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := validStatuses[status]; ok {
		return status, nil
	}
	return "", fmt.Errorf("invalid order status %q", s)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := validStatuses[s]
	return ok
}

// Order is a delivery tracked from creation until it leaves the active board.
type Order struct {
	ID              string
	EventName       string
	Address         string
	DeliveryTime    time.Time
	Status          Status
	CreatedAt       time.Time
	DeliveredAt     time.Time // zero unless delivered
	ReturnTime      time.Time // zero unless a pickup was scheduled
	ReturnCompleted bool
}

// HasReturn reports whether a pickup was ever scheduled for the order.
func (o Order) HasReturn() bool {
	return !o.ReturnTime.IsZero()
}

// HistoryEntry is the read-only record written when an order reaches a terminal state.
type HistoryEntry struct {
	ID                string
	EventName         string
	Address           string
	CreatedAt         time.Time
	DeliveryTime      time.Time
	DeliveredAt       time.Time
	ReturnScheduled   bool
	ReturnTime        time.Time
	ReturnCompletedAt time.Time
}

// orderDoc is the document shape stored remotely. Timestamps are epoch milliseconds.
type orderDoc struct {
	ID              string `json:"id"`
	EventName       string `json:"eventName"`
	Address         string `json:"address"`
	DeliveryTime    int64  `json:"deliveryTime"`
	Status          string `json:"status"`
	CreatedAt       int64  `json:"createdAt"`
	DeliveredAt     *int64 `json:"deliveredAt,omitempty"`
	ReturnTime      *int64 `json:"returnTime,omitempty"`
	ReturnCompleted *bool  `json:"returnCompleted,omitempty"`
}

// MarshalJSON encodes the order in its remote document form.
func (o Order) MarshalJSON() ([]byte, error) {
	doc := orderDoc{
		ID:           o.ID,
		EventName:    o.EventName,
		Address:      o.Address,
		DeliveryTime: toMillis(o.DeliveryTime),
		Status:       string(o.Status),
		CreatedAt:    toMillis(o.CreatedAt),
		DeliveredAt:  optionalMillis(o.DeliveredAt),
		ReturnTime:   optionalMillis(o.ReturnTime),
	}
	if o.ReturnCompleted {
		done := true
		doc.ReturnCompleted = &done
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes a remote order document.
func (o *Order) UnmarshalJSON(data []byte) error {
	var doc orderDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	status, err := ParseStatus(doc.Status)
	if err != nil {
		return err
	}
	*o = Order{
		ID:           doc.ID,
		EventName:    doc.EventName,
		Address:      doc.Address,
		DeliveryTime: fromMillis(doc.DeliveryTime),
		Status:       status,
		CreatedAt:    fromMillis(doc.CreatedAt),
		DeliveredAt:  fromOptionalMillis(doc.DeliveredAt),
		ReturnTime:   fromOptionalMillis(doc.ReturnTime),
	}
	if doc.ReturnCompleted != nil {
		o.ReturnCompleted = *doc.ReturnCompleted
	}
	return nil
}

// historyDoc keeps absent timestamps as explicit nulls.
type historyDoc struct {
	ID                string `json:"id"`
	EventName         string `json:"eventName"`
	Address           string `json:"address"`
	CreatedAt         int64  `json:"createdAt"`
	DeliveryTime      int64  `json:"deliveryTime"`
	DeliveredAt       *int64 `json:"deliveredAt"`
	ReturnScheduled   bool   `json:"returnScheduled"`
	ReturnTime        *int64 `json:"returnTime"`
	ReturnCompletedAt *int64 `json:"returnCompletedAt"`
}

// MarshalJSON encodes the entry in its remote document form.
func (h HistoryEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(historyDoc{
		ID:                h.ID,
		EventName:         h.EventName,
		Address:           h.Address,
		CreatedAt:         toMillis(h.CreatedAt),
		DeliveryTime:      toMillis(h.DeliveryTime),
		DeliveredAt:       optionalMillis(h.DeliveredAt),
		ReturnScheduled:   h.ReturnScheduled,
		ReturnTime:        optionalMillis(h.ReturnTime),
		ReturnCompletedAt: optionalMillis(h.ReturnCompletedAt),
	})
}

// UnmarshalJSON decodes a remote history document.
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	var doc historyDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*h = HistoryEntry{
		ID:                doc.ID,
		EventName:         doc.EventName,
		Address:           doc.Address,
		CreatedAt:         fromMillis(doc.CreatedAt),
		DeliveryTime:      fromMillis(doc.DeliveryTime),
		DeliveredAt:       fromOptionalMillis(doc.DeliveredAt),
		ReturnScheduled:   doc.ReturnScheduled,
		ReturnTime:        fromOptionalMillis(doc.ReturnTime),
		ReturnCompletedAt: fromOptionalMillis(doc.ReturnCompletedAt),
	}
	return nil
}

// ErrInvalidTransition is returned when an operation does not apply to the order's status.
var ErrInvalidTransition = errors.New("invalid status transition")

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func optionalMillis(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func fromOptionalMillis(ms *int64) time.Time {
	if ms == nil {
		return time.Time{}
	}
	return fromMillis(*ms)
}
