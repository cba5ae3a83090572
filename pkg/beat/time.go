// Package beat implements the beat-time value types and the beat expression
// arithmetic DSL used throughout MTXT.
package beat

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Time is a nonnegative position on a beat timeline: whole beats plus a
// fractional beat in [0,1).
type Time struct {
	Whole uint32
	Frac  float32
}

// Zero is the origin of the beat timeline.
var Zero = Time{}

// FromFloat64 builds a Time from a nonnegative real number of beats.
func FromFloat64(v float64) Time {
	if v < 0 {
		v = 0
	}
	whole := math.Floor(v)
	return Time{Whole: uint32(whole), Frac: float32(v - whole)}
}

// Float64 returns the beat position as a real number of beats.
func (t Time) Float64() float64 {
	return float64(t.Whole) + float64(t.Frac)
}

// Add returns t+other, carrying a fractional overflow into whole beats.
func (t Time) Add(other Time) Time {
	return FromFloat64(t.Float64() + other.Float64())
}

// Sub returns t-other. It fails if the result would be negative, since a
// Time is never allowed to go below zero.
func (t Time) Sub(other Time) (Time, error) {
	v := t.Float64() - other.Float64()
	if v < -1e-9 {
		return Zero, fmt.Errorf("beat time underflow: %s - %s", t, other)
	}
	if v < 0 {
		v = 0
	}
	return FromFloat64(v), nil
}

// mul multiplies two beat times treating both as real numbers. Unexported:
// multiplying two arbitrary beat times has no defined meaning outside the
// expression DSL, so general callers never get to reach for it directly.
func (t Time) mul(other Time) Time {
	return FromFloat64(t.Float64() * other.Float64())
}

// Compare returns -1, 0, or 1 as t is less than, equal to, or greater than
// other.
func (t Time) Compare(other Time) int {
	a, b := t.Float64(), other.Float64()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Less reports whether t sorts strictly before other.
func (t Time) Less(other Time) bool {
	return t.Compare(other) < 0
}

// ParseTime parses a plain decimal beat-time literal such as "1.25" or "2".
// It never accepts a "/" — that is BeatFraction's literal, not Time's.
func ParseTime(s string) (Time, error) {
	if strings.Contains(s, "/") {
		return Zero, fmt.Errorf("not a beat time literal: %q", s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Zero, fmt.Errorf("invalid beat time %q: %w", s, err)
	}
	if v < 0 {
		return Zero, fmt.Errorf("beat time cannot be negative: %q", s)
	}
	return FromFloat64(v), nil
}

// String renders the canonical decimal form: variable precision with
// trailing zeros trimmed, and a decimal point present whenever the
// fractional part is nonzero.
func (t Time) String() string {
	if t.Frac == 0 {
		return strconv.FormatUint(uint64(t.Whole), 10)
	}
	v := math.Round(t.Float64()*1e6) / 1e6
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-0" {
		s = "0"
	}
	return s
}
