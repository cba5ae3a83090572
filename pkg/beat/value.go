package beat

import "strings"

// Value is either a plain beat Time or an exact Fraction literal. literal
// holds the exact source text it was parsed from, so String() can reproduce
// the input verbatim instead of re-deriving a canonicalized rendering (a
// Time like "1.0" and "1" are numerically identical but not the same
// lexeme).
type Value struct {
	fraction   Fraction
	time       Time
	isFraction bool
	literal    string
}

// TimeValue wraps a Time as a Value.
func TimeValue(t Time) Value { return Value{time: t} }

// FractionValue wraps a Fraction as a Value.
func FractionValue(f Fraction) Value { return Value{fraction: f, isFraction: true} }

// IsFraction reports whether the value is a Fraction literal rather than a
// plain Time literal.
func (v Value) IsFraction() bool { return v.isFraction }

// AsTime converts the value to a Time, dividing out a Fraction if needed.
func (v Value) AsTime() Time {
	if v.isFraction {
		return v.fraction.ToBeatTime()
	}
	return v.time
}

// String renders the value in its original literal form.
func (v Value) String() string {
	if v.literal != "" {
		return v.literal
	}
	if v.isFraction {
		return v.fraction.String()
	}
	return v.time.String()
}

// parseValue parses one flat lexeme into a Value: a literal containing "/"
// is a Fraction, anything else is a Time. The raw lexeme is kept so the
// value's String() form reproduces exactly what was parsed.
func parseValue(s string) (Value, error) {
	if strings.Contains(s, "/") {
		f, err := ParseFraction(s)
		if err != nil {
			return Value{}, err
		}
		v := FractionValue(f)
		v.literal = s
		return v, nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return Value{}, err
	}
	v := TimeValue(t)
	v.literal = s
	return v, nil
}

// Operator is one of the three beat arithmetic operators.
type Operator int

const (
	Plus Operator = iota
	Minus
	Multiply
)

// String renders the operator's literal symbol.
func (op Operator) String() string {
	switch op {
	case Plus:
		return "+"
	case Minus:
		return "-"
	case Multiply:
		return "*"
	default:
		return "?"
	}
}
