package createdat

import (
	"fmt"
	"time"
)

// DateRange bounds acceptable timestamps. A zero bound is unbounded.
// Both bounds are exclusive.
type DateRange struct {
	Min time.Time
	Max time.Time
}

// Contains reports whether t lies strictly between Min and Max.
func (r DateRange) Contains(t time.Time) bool {
	return r.afterMin(t) && r.beforeMax(t)
}

func (r DateRange) afterMin(t time.Time) bool {
	return r.Min.IsZero() || t.After(r.Min)
}

func (r DateRange) beforeMax(t time.Time) bool {
	return r.Max.IsZero() || t.Before(r.Max)
}

func (r DateRange) String() string {
	return fmt.Sprintf("(%s, %s)", bound(r.Min), bound(r.Max))
}

func bound(t time.Time) string {
	if t.IsZero() {
		return "unbounded"
	}
	return t.Format(time.DateTime)
}
