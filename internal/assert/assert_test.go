package assert

import (
	"testing"

	"github.com/unkn0wn-root/nethop/internal/hopfile"
)

func response(status uint16, body string) *hopfile.Response {
	return &hopfile.Response{
		Status:  status,
		Headers: "Content-Type: application/json\r\nX-Latency: 12.5\r\n",
		Body:    body,
	}
}

func TestEvaluateStatus(t *testing.T) {
	tc := hopfile.TestCase{Key: "status", Operation: hopfile.Equals, Value: "200"}
	if !Evaluate(tc, response(200, "")) {
		t.Fatalf("expected status 200 to match")
	}
	if Evaluate(tc, response(404, "")) {
		t.Fatalf("expected status 404 not to match")
	}
}

func TestEvaluateBodyContains(t *testing.T) {
	tc := hopfile.TestCase{Key: "body", Operation: hopfile.Contains, Value: "ok"}
	if !Evaluate(tc, response(200, `{"result": "ok"}`)) {
		t.Fatalf("expected body to contain ok")
	}
	if Evaluate(tc, response(200, `{"result": "fail"}`)) {
		t.Fatalf("expected body without ok to fail")
	}
}

func TestEvaluateHeaders(t *testing.T) {
	resp := response(200, "")
	cases := []struct {
		tc   hopfile.TestCase
		want bool
	}{
		{hopfile.TestCase{Key: "content-type", Operation: hopfile.StartsWith, Value: "application/"}, true},
		{hopfile.TestCase{Key: "CONTENT-TYPE", Operation: hopfile.Equals, Value: "application/json"}, true},
		{hopfile.TestCase{Key: "x-latency", Operation: hopfile.SmallerThan, Value: "20"}, true},
		{hopfile.TestCase{Key: "x-missing", Operation: hopfile.Equals, Value: ""}, true},
		{hopfile.TestCase{Key: "x-missing", Operation: hopfile.NotEquals, Value: "anything"}, true},
		{hopfile.TestCase{Key: "x-missing", Operation: hopfile.GreaterThan, Value: "0"}, false},
	}
	for _, c := range cases {
		if got := Evaluate(c.tc, resp); got != c.want {
			t.Fatalf("%s: expected %v, got %v", c.tc, c.want, got)
		}
	}
}

func TestCompareOperators(t *testing.T) {
	cases := []struct {
		op          hopfile.Operator
		left, right string
		want        bool
	}{
		{hopfile.Equals, "a", "a", true},
		{hopfile.Equals, "a", "A", false},
		{hopfile.NotEquals, "a", "b", true},
		{hopfile.NotEquals, "a", "a", false},
		{hopfile.Contains, "hello world", "lo wo", true},
		{hopfile.Contains, "hello", "world", false},
		{hopfile.StartsWith, "hello", "he", true},
		{hopfile.StartsWith, "hello", "lo", false},
		{hopfile.GreaterThan, "10", "9", true},
		{hopfile.GreaterThan, "9", "10", false},
		{hopfile.SmallerThan, "1.5", "2", true},
		{hopfile.GreaterThanOrEqual, "2", "2.0", true},
		{hopfile.SmallerThanOrEqual, "-1", "-1", true},
		{hopfile.SmallerThanOrEqual, "3", "2", false},
		{hopfile.GreaterThan, "1e400", "5", true},
		{hopfile.SmallerThan, "-1e400", "5", true},
		{hopfile.SmallerThanOrEqual, "1e-400", "0", true},
		{hopfile.GreaterThan, "120", "abc", false},
		{hopfile.SmallerThan, "abc", "120", false},
		{hopfile.GreaterThanOrEqual, " 5", "5", false},
		{hopfile.Unknown, "a", "a", false},
		{hopfile.Operator(99), "a", "a", false},
	}
	for _, c := range cases {
		if got := Compare(c.op, c.left, c.right); got != c.want {
			t.Fatalf("%q %s %q: expected %v, got %v", c.left, c.op, c.right, c.want, got)
		}
	}
}

func TestNonNumericComparisonIsSoftFailure(t *testing.T) {
	tc := hopfile.TestCase{Key: "latency", Operation: hopfile.GreaterThan, Value: "abc"}
	if Evaluate(tc, response(200, "")) {
		t.Fatalf("expected non numeric comparison to evaluate false")
	}
}

func TestCheckReportsActualValue(t *testing.T) {
	tc := hopfile.TestCase{Key: "status", Operation: hopfile.Equals, Value: "201"}
	res := Check(tc, response(200, ""))
	if res.Passed {
		t.Fatalf("expected failure")
	}
	if res.Actual != "200" || res.Case != tc {
		t.Fatalf("unexpected result %+v", res)
	}
	if Resolve("body", nil) != "" {
		t.Fatalf("expected empty value for nil response")
	}
}
