// Package assert evaluates assertion lines against decoded responses.
// Evaluation never fails: anything that cannot be compared is false.
package assert

import (
	"errors"
	"strconv"
	"strings"

	"github.com/unkn0wn-root/nethop/internal/hopfile"
)

const (
	KeyStatus = "status"
	KeyBody   = "body"
)

type Result struct {
	Case   hopfile.TestCase
	Actual string
	Passed bool
}

// Resolve returns the left-hand value for key. Unknown headers resolve to the
// empty string.
func Resolve(key string, resp *hopfile.Response) string {
	if resp == nil {
		return ""
	}
	switch key {
	case KeyBody:
		return resp.Body
	case KeyStatus:
		return resp.StatusText()
	default:
		value, _ := resp.Header(key)
		return value
	}
}

func Compare(op hopfile.Operator, left, right string) bool {
	switch op {
	case hopfile.Equals:
		return left == right
	case hopfile.NotEquals:
		return left != right
	case hopfile.Contains:
		return strings.Contains(left, right)
	case hopfile.StartsWith:
		return strings.HasPrefix(left, right)
	}
	if op.Numeric() {
		return compareNumbers(op, left, right)
	}
	return false
}

func compareNumbers(op hopfile.Operator, left, right string) bool {
	l, ok := parseNumber(left)
	if !ok {
		return false
	}
	r, ok := parseNumber(right)
	if !ok {
		return false
	}
	switch op {
	case hopfile.GreaterThan:
		return l > r
	case hopfile.SmallerThan:
		return l < r
	case hopfile.GreaterThanOrEqual:
		return l >= r
	case hopfile.SmallerThanOrEqual:
		return l <= r
	default:
		return false
	}
}

// parseNumber accepts out of range values as the signed infinity or zero
// that ParseFloat rounds them to.
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

func Evaluate(tc hopfile.TestCase, resp *hopfile.Response) bool {
	return Compare(tc.Operation, Resolve(tc.Key, resp), tc.Value)
}

// Check is Evaluate plus the resolved value, for reporting.
func Check(tc hopfile.TestCase, resp *hopfile.Response) Result {
	actual := Resolve(tc.Key, resp)
	return Result{
		Case:   tc,
		Actual: actual,
		Passed: Compare(tc.Operation, actual, tc.Value),
	}
}
