package hopfile

import "github.com/unkn0wn-root/nethop/internal/errdef"

type Operator int

// Unknown is a sentinel: ParseOperator never returns it and it always
// evaluates to false.
const (
	Unknown Operator = iota
	Equals
	NotEquals
	Contains
	StartsWith
	GreaterThan
	SmallerThan
	GreaterThanOrEqual
	SmallerThanOrEqual
)

var operatorSymbols = map[Operator]string{
	Equals:             "=",
	NotEquals:          "!=",
	Contains:           "~",
	StartsWith:         "^",
	GreaterThan:        ">",
	SmallerThan:        "<",
	GreaterThanOrEqual: ">=",
	SmallerThanOrEqual: "<=",
}

var symbolOperators = func() map[string]Operator {
	out := make(map[string]Operator, len(operatorSymbols))
	for op, sym := range operatorSymbols {
		out[sym] = op
	}
	return out
}()

func (o Operator) Symbol() string {
	if sym, ok := operatorSymbols[o]; ok {
		return sym
	}
	return "--"
}

func (o Operator) String() string {
	return o.Symbol()
}

// Numeric reports whether the operator compares both sides as numbers.
func (o Operator) Numeric() bool {
	switch o {
	case GreaterThan, SmallerThan, GreaterThanOrEqual, SmallerThanOrEqual:
		return true
	default:
		return false
	}
}

// ParseOperator resolves an assertion symbol.
func ParseOperator(symbol string) (Operator, error) {
	if op, ok := symbolOperators[symbol]; ok {
		return op, nil
	}
	return Unknown, errdef.New(errdef.CodeParse, "unknown operator symbol %q", symbol)
}

// Operators lists every parseable operator in declaration order.
func Operators() []Operator {
	return []Operator{
		Equals,
		NotEquals,
		Contains,
		StartsWith,
		GreaterThan,
		SmallerThan,
		GreaterThanOrEqual,
		SmallerThanOrEqual,
	}
}
