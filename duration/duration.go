// Package duration maps an offer's duration type onto a concrete end date.
//
// End dates are always derived from the persisted start date, never from
// the wall clock at read time, so replaying a write yields the same value.
package duration

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknown is returned for a duration type with no defined length.
var ErrUnknown = errors.New("duration: unknown duration type")

// Type is the billing duration of a subscription or add-on offer.
type Type int

const (
	ThreeMonths Type = 1
	SixMonths   Type = 2
	OneYear     Type = 3
	// TwoMinutes exists for demos and expiry testing.
	TwoMinutes Type = 4
)

var names = map[Type]string{
	ThreeMonths: "ThreeMonths",
	SixMonths:   "SixMonths",
	OneYear:     "OneYear",
	TwoMinutes:  "TwoMinutes",
}

// String returns the enum name, e.g. "SixMonths".
func (t Type) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Valid reports whether t has a defined length.
func (t Type) Valid() bool {
	_, ok := names[t]
	return ok
}

// Parse resolves an enum name back to its Type.
func Parse(s string) (Type, error) {
	for t, n := range names {
		if n == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknown, s)
}

// EndDate returns start advanced by the length of t. Month based lengths
// clamp to the last day of the target month, so Aug 31 + 6 months is Feb 28.
// The time of day and location of start are kept.
func EndDate(start time.Time, t Type) (time.Time, error) {
	switch t {
	case ThreeMonths:
		return addMonths(start, 3), nil
	case SixMonths:
		return addMonths(start, 6), nil
	case OneYear:
		return addMonths(start, 12), nil
	case TwoMinutes:
		return start.Add(2 * time.Minute), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %d", ErrUnknown, int(t))
	}
}

// addMonths moves t by n calendar months without rolling an overflowing
// day into the following month.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()

	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	return time.Date(first.Year(), first.Month(), min(d, daysIn(first)), hh, mm, ss, t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in t's month.
func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
