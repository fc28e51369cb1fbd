package order

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
)

// ErrInvalidInput marks operator input that failed validation.
var ErrInvalidInput = errors.New("invalid input")

// Input carries the operator-editable fields of an order.
type Input struct {
	EventName    string    `validate:"required"`
	Address      string    `validate:"required"`
	DeliveryTime time.Time `validate:"required"`
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return strings.Join(parts, ", ")
}

// Unwrap lets callers match ErrInvalidInput with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

var validator = sync.OnceValue(func() *validatorv10.Validate {
	return validatorv10.New()
})

// fieldLabels maps struct fields to the names operators see in forms.
var fieldLabels = map[string]string{
	"EventName":    "event name",
	"Address":      "address",
	"DeliveryTime": "delivery time",
}

// Validate trims the input and checks required fields.
func (in Input) Validate() (Input, error) {
	in.EventName = strings.TrimSpace(in.EventName)
	in.Address = strings.TrimSpace(in.Address)

	if err := validator().Struct(in); err != nil {
		var fieldErrs validatorv10.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return in, fmt.Errorf("validate input: %w", err)
		}
		out := &ValidationError{Fields: map[string]string{}}
		for _, fe := range fieldErrs {
			label := fieldLabels[fe.StructField()]
			if label == "" {
				label = fe.StructField()
			}
			out.Fields[label] = "is " + fe.Tag()
		}
		return in, out
	}
	return in, nil
}

// Accepted layouts for operator-entered times, most specific first.
var inputLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// InputLayout is the layout forms prefill and display.
const InputLayout = "2006-01-02 15:04"

// ParseLocalTime parses an operator-entered wall-clock time in loc.
func ParseLocalTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: time %q, want YYYY-MM-DD HH:MM", ErrInvalidInput, value)
}
