package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/unkn0wn-root/nethop/internal/assert"
	"github.com/unkn0wn-root/nethop/internal/errdef"
	"github.com/unkn0wn-root/nethop/internal/hopfile"
)

type step struct {
	resp *hopfile.Response
	err  error
}

type fakeTransport struct {
	steps []step
	sent  []*hopfile.Request
}

func (f *fakeTransport) Do(_ context.Context, req *hopfile.Request) (*hopfile.Response, error) {
	i := len(f.sent)
	f.sent = append(f.sent, req)
	if i >= len(f.steps) {
		return nil, fmt.Errorf("unexpected request %d", i)
	}
	return f.steps[i].resp, f.steps[i].err
}

type recorder struct {
	events []string
}

func (r *recorder) RequestStarted(i int, req *hopfile.Request) {
	r.events = append(r.events, fmt.Sprintf("start %d %s", i, req.URL))
}

func (r *recorder) CaseChecked(i int, res assert.Result) {
	r.events = append(r.events, fmt.Sprintf("case %d %s %v", i, res.Case, res.Passed))
}

func (r *recorder) CasesFinished(i int, sum Summary) {
	r.events = append(r.events, fmt.Sprintf("summary %d %d/%d/%d", i, sum.Total, sum.Passed, sum.Failed))
}

func (r *recorder) ResponseReceived(i int, _ *hopfile.Request, resp *hopfile.Response) {
	r.events = append(r.events, fmt.Sprintf("response %d %d", i, resp.Status))
}

func (r *recorder) RequestFailed(i int, _ *hopfile.Request, err error) {
	r.events = append(r.events, fmt.Sprintf("failed %d %v", i, err))
}

func ok(status uint16, body string) step {
	return step{resp: &hopfile.Response{
		Status:  status,
		Headers: "Content-Type: text/plain\r\n",
		Body:    body,
	}}
}

func TestRunEvaluatesCasesAndDisplaysOthers(t *testing.T) {
	reqs := []*hopfile.Request{
		{Method: "GET", URL: "/plain"},
		{Method: "GET", URL: "/checked", TestCases: []hopfile.TestCase{
			{Key: "status", Operation: hopfile.Equals, Value: "200"},
			{Key: "body", Operation: hopfile.Contains, Value: "ok"},
			{Key: "status", Operation: hopfile.GreaterThan, Value: "abc"},
		}},
	}
	tr := &fakeTransport{steps: []step{ok(200, "hello"), ok(200, "all ok")}}
	rec := &recorder{}

	report, err := New(WithReporter(rec)).Run(context.Background(), tr, reqs)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	want := []string{
		"start 0 /plain",
		"response 0 200",
		"start 1 /checked",
		"case 1 status = 200 true",
		"case 1 body ~ ok true",
		"case 1 status > abc false",
		"summary 1 3/2/1",
	}
	if len(rec.events) != len(want) {
		t.Fatalf("unexpected events %q", rec.events)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Fatalf("event %d: expected %q, got %q", i, want[i], rec.events[i])
		}
	}

	if report.Totals != (Summary{Total: 3, Passed: 2, Failed: 1}) {
		t.Fatalf("unexpected totals %+v", report.Totals)
	}
	if !report.Failed() {
		t.Fatalf("expected report to record a failed assertion")
	}
	if len(report.Results) != 2 || report.Results[0].Cases != nil {
		t.Fatalf("unexpected results %+v", report.Results)
	}
	if report.Latency.Count != 2 {
		t.Fatalf("expected latency over 2 requests, got %d", report.Latency.Count)
	}
}

func TestRunStopsAtFirstTransportError(t *testing.T) {
	reqs := []*hopfile.Request{
		{Method: "GET", URL: "/one"},
		{Method: "POST", URL: "/two"},
		{Method: "GET", URL: "/three"},
	}
	sendErr := errdef.New(errdef.CodeContent, "empty body sent to POST request")
	tr := &fakeTransport{steps: []step{ok(200, ""), {err: sendErr}, ok(200, "")}}
	rec := &recorder{}

	report, err := New(WithReporter(rec)).Run(context.Background(), tr, reqs)
	if err == nil {
		t.Fatalf("expected batch error")
	}
	if len(tr.sent) != 2 {
		t.Fatalf("expected third request never to be attempted, sent %d", len(tr.sent))
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Index != 1 {
		t.Fatalf("expected RequestError for index 1, got %v", err)
	}
	if !errors.Is(err, sendErr) || !errdef.Is(err, errdef.CodeContent) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	if got := err.Error(); got != "request 2 (POST /two): content: empty body sent to POST request" {
		t.Fatalf("unexpected message %q", got)
	}

	last := rec.events[len(rec.events)-1]
	if last != "failed 1 content: empty body sent to POST request" {
		t.Fatalf("expected failure to be reported last, got %q", last)
	}
	if len(report.Results) != 2 || report.Results[1].Err == nil {
		t.Fatalf("expected partial report with failing result, got %+v", report.Results)
	}
}

func TestRunMeasuresDurations(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	r := New()
	r.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * 10 * time.Millisecond)
	}

	tr := &fakeTransport{steps: []step{ok(200, ""), ok(200, "")}}
	report, err := r.Run(context.Background(), tr, []*hopfile.Request{{Method: "GET", URL: "/a"}, {Method: "GET", URL: "/b"}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for _, res := range report.Results {
		if res.Duration != 10*time.Millisecond {
			t.Fatalf("expected 10ms per request, got %s", res.Duration)
		}
	}
	if report.Duration != 50*time.Millisecond {
		t.Fatalf("expected 50ms batch duration, got %s", report.Duration)
	}
}

func TestRunRecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	reqs := []*hopfile.Request{
		{Method: "GET", URL: "/a", TestCases: []hopfile.TestCase{{Key: "status", Operation: hopfile.Equals, Value: "500"}}},
		{Method: "GET", URL: "/b"},
	}
	tr := &fakeTransport{steps: []step{ok(200, ""), {err: errors.New("boom")}}}
	if _, err := New(WithTracer(tp.Tracer("test"))).Run(context.Background(), tr, reqs); err == nil {
		t.Fatalf("expected error")
	}

	spans := sr.Ended()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	names := []string{spans[0].Name(), spans[1].Name(), spans[2].Name()}
	if names[0] != "nethop.request" || names[1] != "nethop.request" || names[2] != "nethop.batch" {
		t.Fatalf("unexpected span order %v", names)
	}
	for _, s := range spans {
		if s.Status().Code != codes.Error {
			t.Fatalf("expected span %s to be marked as error", s.Name())
		}
	}
	if spans[0].Parent().SpanID() != spans[2].SpanContext().SpanID() {
		t.Fatalf("expected request span to be a child of the batch span")
	}
}
