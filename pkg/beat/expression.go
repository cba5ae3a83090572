package beat

import (
	"fmt"
	"strings"
)

// ErrorKind classifies why a beat expression failed to parse or evaluate.
type ErrorKind int

const (
	EmptyExpression ErrorKind = iota
	SpaceDisallowed
	BadMultiplyPosition
	BadMultiplyOperand
	NegativeResult
	BadFraction
	BadNumber
)

func (k ErrorKind) String() string {
	switch k {
	case EmptyExpression:
		return "EmptyExpression"
	case SpaceDisallowed:
		return "SpaceDisallowed"
	case BadMultiplyPosition:
		return "BadMultiplyPosition"
	case BadMultiplyOperand:
		return "BadMultiplyOperand"
	case NegativeResult:
		return "NegativeResult"
	case BadFraction:
		return "BadFraction"
	case BadNumber:
		return "BadNumber"
	default:
		return "Unknown"
	}
}

// Error is a beat-expression parse or evaluation failure.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Msg }

func errf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

type item struct {
	value    Value
	operator Operator
	isOp     bool
}

// Expression is an ordered sequence of alternating values and operators
// parsed from a whitespace-free beat arithmetic literal. Multiplication
// binds tighter than addition/subtraction in evaluation, though parsing
// itself is flat.
type Expression struct {
	items []item
}

// Parse parses a beat expression literal, validating every formatting and
// arithmetic rule before returning.
func Parse(s string) (*Expression, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, errf(EmptyExpression, "expression is empty")
	}
	if strings.ContainsAny(trimmed, " \t") {
		return nil, errf(SpaceDisallowed, "spaces are not allowed in beat expressions: %q", s)
	}

	var items []item
	var lexeme strings.Builder
	flush := func() error {
		if lexeme.Len() == 0 {
			return nil
		}
		v, err := parseValue(lexeme.String())
		if err != nil {
			if strings.Contains(lexeme.String(), "/") {
				return errf(BadFraction, "%v", err)
			}
			return errf(BadNumber, "%v", err)
		}
		items = append(items, item{value: v})
		lexeme.Reset()
		return nil
	}

	for _, c := range trimmed {
		switch c {
		case '+', '-', '*':
			if err := flush(); err != nil {
				return nil, err
			}
			op := Plus
			switch c {
			case '-':
				op = Minus
			case '*':
				op = Multiply
			}
			items = append(items, item{operator: op, isOp: true})
		default:
			lexeme.WriteRune(c)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	for i, it := range items {
		if !it.isOp || it.operator != Multiply {
			continue
		}
		if i == 0 || i == len(items)-1 {
			return nil, errf(BadMultiplyPosition, "multiply operator at the start or end of expression: %q", s)
		}
		if items[i-1].isOp || !items[i-1].value.IsFraction() {
			return nil, errf(BadMultiplyOperand, "multiplication operands must be explicit fractions: %s", items[i-1].value)
		}
		if items[i+1].isOp || !items[i+1].value.IsFraction() {
			return nil, errf(BadMultiplyOperand, "multiplication operands must be explicit fractions: %s", items[i+1].value)
		}
	}

	for i, it := range items {
		if it.isOp == (i%2 == 0) {
			return nil, errf(BadNumber, "expected alternating values and operators in %q", s)
		}
	}
	if len(items)%2 == 0 {
		return nil, errf(BadNumber, "expression ends with an operator: %q", s)
	}

	expr := &Expression{items: items}
	pos, neg := expr.evaluateSums()
	if pos.Less(neg) {
		return nil, errf(NegativeResult, "negative expression result: %s", expr)
	}

	return expr, nil
}

// evaluateSums walks the flat item list maintaining a current product term
// and a current sign, committing each term to pos or neg on +/- (or at the
// end). This two-pass accumulation — commit every term before subtracting —
// avoids failing on a transient negative subtotal before all positive terms
// are known.
func (e *Expression) evaluateSums() (Time, Time) {
	if len(e.items) == 0 {
		return Zero, Zero
	}

	pos, neg := Zero, Zero
	var current *Time
	op := Plus

	commit := func() {
		if current == nil {
			return
		}
		switch op {
		case Plus:
			pos = pos.Add(*current)
		case Minus:
			neg = neg.Add(*current)
		}
		current = nil
	}

	for _, it := range e.items {
		if it.isOp {
			switch it.operator {
			case Plus, Minus:
				commit()
				op = it.operator
			case Multiply:
				// folded into the term below
			}
			continue
		}
		vt := it.value.AsTime()
		if current == nil {
			t := vt
			current = &t
		} else {
			t := current.mul(vt)
			current = &t
		}
	}
	commit()

	return pos, neg
}

// AsTime evaluates the expression to a beat Time. Parse already validated
// that the result is nonnegative.
func (e *Expression) AsTime() Time {
	pos, neg := e.evaluateSums()
	t, err := pos.Sub(neg)
	if err != nil {
		return Zero
	}
	return t
}

// Value returns the expression's evaluated result as a float64 number of
// beats.
func (e *Expression) Value() float64 {
	return e.AsTime().Float64()
}

// String reconstructs the original literal: parse(expr).String() == expr
// for any valid input.
func (e *Expression) String() string {
	var b strings.Builder
	for _, it := range e.items {
		if it.isOp {
			b.WriteString(it.operator.String())
		} else {
			b.WriteString(it.value.String())
		}
	}
	return b.String()
}
