package beat

import (
	"math"
	"testing"
)

func TestParseValidExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"1.25", 1.25},
		{"1.0+1/4", 1.25},
		{"1/4+1.0", 1.25},
		{"1/2*2/3", 1.0 / 3.0},
		{"9/5*5/7*9/11*7/13+2.3", 0.5664336 + 2.3},
		{"1.33+4/5*6/5+1.0", 1.33 + 0.96 + 1.0},
		{"2.0-1/4", 1.75},
		{"4/1*5/6", 20.0 / 6.0},
		{"1/3*2/5+5/7*7/11+11/13*13/17", 1.234937},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.input, err)
			}
			if math.Abs(expr.Value()-tt.expected) > 1e-5 {
				t.Errorf("Parse(%q).Value() = %v, want %v", tt.input, expr.Value(), tt.expected)
			}
			if got := expr.String(); got != tt.input {
				t.Errorf("Parse(%q).String() = %q, want %q", tt.input, got, tt.input)
			}
		})
	}
}

func TestParseInvalidExpressions(t *testing.T) {
	cases := []string{"2-4*5/6", "1.33+4.2*6/5", "1/2/3", "1 + 2", "1.5/2", "1-2"}

	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			if _, err := Parse(input); err == nil {
				t.Errorf("Parse(%q) should have failed", input)
			}
		})
	}
}

func TestParseErrorKinds(t *testing.T) {
	tests := []struct {
		input string
		kind  ErrorKind
	}{
		{"", EmptyExpression},
		{"1 + 2", SpaceDisallowed},
		{"*2/3", BadMultiplyPosition},
		{"2/3*", BadMultiplyPosition},
		{"2-4*5/6", BadMultiplyOperand},
		{"1-2", NegativeResult},
		{"1/2/3", BadFraction},
		{"abc", BadNumber},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) should have failed", tt.input)
			}
			be, ok := err.(*Error)
			if !ok {
				t.Fatalf("Parse(%q) error is not *beat.Error: %T", tt.input, err)
			}
			if be.Kind != tt.kind {
				t.Errorf("Parse(%q) kind = %v, want %v", tt.input, be.Kind, tt.kind)
			}
		})
	}
}

func TestParseIndependentOfAdditiveGrouping(t *testing.T) {
	a, err := Parse("1.0+2.0+3.0")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("3.0+1.0+2.0")
	if err != nil {
		t.Fatal(err)
	}
	if a.Value() != b.Value() {
		t.Errorf("additive grouping changed result: %v != %v", a.Value(), b.Value())
	}
}
