package order

import (
	"fmt"
	"time"
)

// Class is the color bucket a card is drawn with.
type Class string

const (
	ClassBlue   Class = "blue"   // pickup scheduled
	ClassPurple Class = "purple" // delivered
	ClassGreen  Class = "green"  // more than a day out
	ClassYellow Class = "yellow" // more than an hour out
	ClassRed    Class = "red"    // due within the hour or late
)

// StatusClass derives the card color from status and time to delivery.
func StatusClass(o Order, now time.Time) Class {
	switch o.Status {
	case StatusReturnScheduled:
		return ClassBlue
	case StatusDelivered:
		return ClassPurple
	}
	until := o.DeliveryTime.Sub(now)
	switch {
	case until > 24*time.Hour:
		return ClassGreen
	case until > time.Hour:
		return ClassYellow
	default:
		return ClassRed
	}
}

// TimeRemaining formats the time left until target as "{h}h {m}m", truncating.
// ok is false once target is not in the future.
func TimeRemaining(target, now time.Time) (text string, ok bool) {
	diff := target.Sub(now)
	if diff <= 0 {
		return "", false
	}
	hours := int64(diff / time.Hour)
	minutes := int64((diff % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes), true
}

// Countdown is TimeRemaining with seconds, used by ticking card timers.
func Countdown(target, now time.Time) (text string, ok bool) {
	diff := target.Sub(now)
	if diff <= 0 {
		return "", false
	}
	hours := int64(diff / time.Hour)
	minutes := int64((diff % time.Hour) / time.Minute)
	seconds := int64((diff % time.Minute) / time.Second)
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds), true
}
