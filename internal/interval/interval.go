package interval

import (
	"errors"
	"time"
)

var ErrInvalidInterval = errors.New("interval start must be before its end")

// Interval is a half-open time range [From, To). Both bounds are kept in UTC so
// comparisons never depend on the offset a client happened to send.
type Interval struct {
	From time.Time
	To   time.Time
}

func New(from, to time.Time) (Interval, error) {
	from = from.UTC()
	to = to.UTC()

	if !from.Before(to) {
		return Interval{}, ErrInvalidInterval
	}

	return Interval{From: from, To: to}, nil
}

// Overlaps reports whether two half-open intervals intersect. Intervals that
// share only a boundary point do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.From.Before(other.To) && other.From.Before(iv.To)
}

// Contains reports whether t falls inside the interval: From <= t < To.
func (iv Interval) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(iv.From) && t.Before(iv.To)
}

// CanAccept decides whether candidate may be admitted next to the existing
// intervals. Any overlap, however small, is a conflict.
func CanAccept(existing []Interval, candidate Interval) bool {
	for _, iv := range existing {
		if candidate.Overlaps(iv) {
			return false
		}
	}
	return true
}

// AvailableAt reports whether no existing interval covers the given instant.
// An empty list is available at every instant.
func AvailableAt(existing []Interval, t time.Time) bool {
	for _, iv := range existing {
		if iv.Contains(t) {
			return false
		}
	}
	return true
}
