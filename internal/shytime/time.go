// Package shytime implements SHYBOX's time point and time range model:
// calendar instants at minute resolution, closed intervals with an
// explicit frequency, and strftime-style formatting.
package shytime

import (
	"fmt"
	"strings"
	"time"
)

// Freq is an iteration frequency over a Range.
type Freq string

const (
	Hourly  Freq = "h"
	Daily   Freq = "D"
	Monthly Freq = "M"
)

// Point is a calendar instant truncated to minute resolution.
type Point struct {
	t time.Time
}

// NewPoint truncates t to minute resolution and wraps it in a Point.
func NewPoint(t time.Time) Point {
	return Point{t: t.Truncate(time.Minute)}
}

// Time returns the underlying time.Time.
func (p Point) Time() time.Time { return p.t }

// IsZero reports whether p is the zero Point.
func (p Point) IsZero() bool { return p.t.IsZero() }

// Before reports whether p occurs before o.
func (p Point) Before(o Point) bool { return p.t.Before(o.t) }

// After reports whether p occurs after o.
func (p Point) After(o Point) bool { return p.t.After(o.t) }

// Equal reports whether p and o denote the same instant.
func (p Point) Equal(o Point) bool { return p.t.Equal(o.t) }

// Add returns p advanced by d.
func (p Point) Add(d time.Duration) Point { return NewPoint(p.t.Add(d)) }

// String renders p using the canonical "200601021504" layout.
func (p Point) String() string { return p.t.Format("200601021504") }

// refLayouts lists the point parse layouts SHYBOX accepts, in the order
// ParsePoint tries them.
var refLayouts = []string{
	"200601021504",
	"20060102150405",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"20060102",
}

// ParsePoint parses s using the first matching layout among the ones
// SHYBOX's settings and command-line surfaces are known to produce.
func ParsePoint(s string) (Point, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range refLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewPoint(t), nil
		} else {
			lastErr = err
		}
	}
	return Point{}, fmt.Errorf("shytime: could not parse time %q: %w", s, lastErr)
}

// Step returns the Point one frequency unit after p.
func (f Freq) Step(p Point) Point {
	switch f {
	case Hourly:
		return p.Add(time.Hour)
	case Daily:
		return p.Add(24 * time.Hour)
	case Monthly:
		t := p.Time()
		return NewPoint(time.Date(t.Year(), t.Month()+1, t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location()))
	default:
		return p
	}
}

// Duration returns the approximate duration of one step of f (a
// Handle uses it to step a period backwards). Monthly steps are not of
// fixed length, so Monthly is approximated as 30 days.
func (f Freq) Duration() time.Duration {
	switch f {
	case Hourly:
		return time.Hour
	case Daily:
		return 24 * time.Hour
	case Monthly:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}
