package schema

import (
	"fmt"
	"time"
)

// Valid reports whether the frequency is one of the supported tags.
func (f Frequency) Valid() bool {
	_, ok := ValidFrequencies[f]
	return ok
}

// ParseFrequency validates a frequency tag.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.Valid() {
		return "", fmt.Errorf("frequency %q is not one of %v", s, AllFrequencies)
	}
	return f, nil
}

// Step returns the next calendar point strictly after t for the frequency.
// Anchored frequencies (month, quarter and year starts and ends) roll forward
// to the next anchor, so an unaligned t still lands on the calendar.
// The clock time of t is preserved.
func (f Frequency) Step(t time.Time) time.Time {
	y, m, _ := t.Date()
	hh, mm, ss := t.Clock()
	ns := t.Nanosecond()
	loc := t.Location()
	at := func(year int, month time.Month, day int) time.Time {
		return time.Date(year, month, day, hh, mm, ss, ns, loc)
	}
	// Day 0 of a month normalizes to the last day of the previous month.
	switch f {
	case BusinessDay:
		next := t.AddDate(0, 0, 1)
		for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
			next = next.AddDate(0, 0, 1)
		}
		return next
	case Week:
		return t.AddDate(0, 0, 7)
	case MonthStart:
		return at(y, m+1, 1)
	case MonthEnd:
		return firstAfter(t, at(y, m+1, 0), at(y, m+2, 0))
	case QuarterStart:
		q := (int(m)-1)/3*3 + 1
		return at(y, time.Month(q+3), 1)
	case QuarterEnd:
		q := (int(m)-1)/3*3 + 1
		return firstAfter(t, at(y, time.Month(q+3), 0), at(y, time.Month(q+6), 0))
	case YearStart:
		return at(y+1, time.January, 1)
	case YearEnd:
		return firstAfter(t, at(y, time.December, 31), at(y+1, time.December, 31))
	default:
		return t.AddDate(0, 0, 1)
	}
}

// firstAfter picks the period end of t's own period unless t already sits on it.
func firstAfter(t, current, next time.Time) time.Time {
	if current.After(t) {
		return current
	}
	return next
}

// Range returns n successive calendar points after t.
func (f Frequency) Range(t time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	cur := t
	for i := range out {
		cur = f.Step(cur)
		out[i] = cur
	}
	return out
}
