// Package schedule decides whether a proposed side-event window may join the
// shared conference calendar. It is pure: callers load the booked windows and
// pass them in, so the rules can be exercised without a database.
package schedule

import (
	"errors"
	"time"
)

// ErrInvalidInterval is returned when an interval does not end strictly after
// it starts.
var ErrInvalidInterval = errors.New("end_time must be after start_time")

// Interval is a half-open time window [Start, End).
type Interval struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// NewInterval builds an interval and rejects zero-length or inverted windows.
func NewInterval(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if err := iv.Check(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Check reports ErrInvalidInterval unless Start < End.
func (iv Interval) Check() error {
	if iv.Start.IsZero() || iv.End.IsZero() || !iv.End.After(iv.Start) {
		return ErrInvalidInterval
	}
	return nil
}

// Equal compares both endpoints as instants, so the same moment expressed in
// different locations is still equal.
func (iv Interval) Equal(o Interval) bool {
	return iv.Start.Equal(o.Start) && iv.End.Equal(o.End)
}

// Duration is End minus Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether a and b share at least one instant. A shared
// endpoint alone is not an overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}
