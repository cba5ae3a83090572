package beat

import (
	"fmt"
	"strconv"
	"strings"
)

// Fraction is an exact rational num/denom, denom > 0. It is only ever
// produced by parsing the literal "N/D" form of a beat value.
type Fraction struct {
	Num   uint32
	Denom uint32
}

// NewFraction validates and builds a Fraction.
func NewFraction(num, denom uint32) (Fraction, error) {
	if denom == 0 {
		return Fraction{}, fmt.Errorf("fraction denominator cannot be zero")
	}
	return Fraction{Num: num, Denom: denom}, nil
}

// ParseFraction parses the strict "N/D" literal form (no surrounding
// whitespace, no signs, exactly one slash).
func ParseFraction(s string) (Fraction, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return Fraction{}, fmt.Errorf("invalid fraction format: %q", s)
	}
	num, err := parseStrictUint32(parts[0])
	if err != nil {
		return Fraction{}, fmt.Errorf("invalid numerator %q: %w", parts[0], err)
	}
	denom, err := parseStrictUint32(parts[1])
	if err != nil {
		return Fraction{}, fmt.Errorf("invalid denominator %q: %w", parts[1], err)
	}
	return NewFraction(num, denom)
}

// parseStrictUint32 rejects signs, whitespace, and non-integer forms that
// strconv.ParseUint would otherwise tolerate as a prefix match.
func parseStrictUint32(s string) (uint32, error) {
	if s == "" || strings.ContainsAny(s, " \t-+.") {
		return 0, fmt.Errorf("not an unsigned integer: %q", s)
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// ToBeatTime converts the fraction to a beat time by real division,
// computing whole and fractional parts directly in float64 rather than
// truncating to a whole part first and taking fract() of the remainder,
// which loses precision for fractions >= 1.
func (f Fraction) ToBeatTime() Time {
	whole := f.Num / f.Denom
	frac := (float64(f.Num) - float64(whole)*float64(f.Denom)) / float64(f.Denom)
	return Time{Whole: whole, Frac: float32(frac)}
}

// String renders the fraction in its canonical "N/D" literal form.
func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Denom)
}
