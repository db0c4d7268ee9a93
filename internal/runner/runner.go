package runner

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/unkn0wn-root/nethop/internal/analysis"
	"github.com/unkn0wn-root/nethop/internal/assert"
	"github.com/unkn0wn-root/nethop/internal/hopfile"
)

// Transport performs one full request/response cycle on the live connection.
type Transport interface {
	Do(ctx context.Context, req *hopfile.Request) (*hopfile.Response, error)
}

// Reporter receives progress while a batch runs. Index is zero based.
type Reporter interface {
	RequestStarted(index int, req *hopfile.Request)
	CaseChecked(index int, res assert.Result)
	CasesFinished(index int, sum Summary)
	ResponseReceived(index int, req *hopfile.Request, resp *hopfile.Response)
	RequestFailed(index int, req *hopfile.Request, err error)
}

type Summary struct {
	Total  int
	Passed int
	Failed int
}

func (s *Summary) add(passed bool) {
	s.Total++
	if passed {
		s.Passed++
	} else {
		s.Failed++
	}
}

type RequestResult struct {
	Index    int
	Request  *hopfile.Request
	Response *hopfile.Response
	Cases    []assert.Result
	Summary  Summary
	Duration time.Duration
	Err      error
}

type Report struct {
	Results  []RequestResult
	Totals   Summary
	Latency  analysis.Latency
	Duration time.Duration
}

// Failed reports whether any assertion in the batch failed.
func (r Report) Failed() bool {
	return r.Totals.Failed > 0
}

// RequestError identifies the request that stopped the batch.
type RequestError struct {
	Index   int
	Request *hopfile.Request
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request %d (%s %s): %v", e.Index+1, e.Request.Method, e.Request.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

type Runner struct {
	reporter Reporter
	tracer   trace.Tracer
	now      func() time.Time
}

type Option func(*Runner)

func WithReporter(rep Reporter) Option {
	return func(r *Runner) {
		if rep != nil {
			r.reporter = rep
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

func New(opts ...Option) *Runner {
	r := &Runner{
		reporter: nopReporter{},
		tracer:   noop.NewTracerProvider().Tracer(""),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the requests in order over tr. The first transport, protocol
// or content error stops the batch; later requests are never sent. Failed
// assertions only count against the report.
func (r *Runner) Run(ctx context.Context, tr Transport, reqs []*hopfile.Request) (Report, error) {
	ctx, span := r.tracer.Start(ctx, "nethop.batch", trace.WithAttributes(
		attribute.Int("nethop.requests", len(reqs)),
	))
	defer span.End()

	start := r.now()
	report := Report{Results: make([]RequestResult, 0, len(reqs))}
	durations := make([]time.Duration, 0, len(reqs))

	finish := func() {
		report.Duration = r.now().Sub(start)
		report.Latency = analysis.Summarize(durations)
		span.SetAttributes(
			attribute.Int("nethop.assertions.passed", report.Totals.Passed),
			attribute.Int("nethop.assertions.failed", report.Totals.Failed),
		)
	}

	for i, req := range reqs {
		res, err := r.runOne(ctx, tr, i, req)
		report.Results = append(report.Results, res)
		if err != nil {
			finish()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return report, err
		}
		durations = append(durations, res.Duration)
		report.Totals.Total += res.Summary.Total
		report.Totals.Passed += res.Summary.Passed
		report.Totals.Failed += res.Summary.Failed
	}

	finish()
	return report, nil
}

func (r *Runner) runOne(ctx context.Context, tr Transport, i int, req *hopfile.Request) (RequestResult, error) {
	ctx, span := r.tracer.Start(ctx, "nethop.request", trace.WithAttributes(
		attribute.Int("nethop.request.index", i),
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", req.URL),
	))
	defer span.End()

	res := RequestResult{Index: i, Request: req}
	r.reporter.RequestStarted(i, req)

	started := r.now()
	resp, err := tr.Do(ctx, req)
	res.Duration = r.now().Sub(started)
	if err != nil {
		reqErr := &RequestError{Index: i, Request: req, Err: err}
		res.Err = reqErr
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.reporter.RequestFailed(i, req, err)
		return res, reqErr
	}
	res.Response = resp
	span.SetAttributes(attribute.Int("http.response.status_code", int(resp.Status)))

	if len(req.TestCases) == 0 {
		r.reporter.ResponseReceived(i, req, resp)
		return res, nil
	}

	res.Cases = make([]assert.Result, 0, len(req.TestCases))
	for _, tc := range req.TestCases {
		checked := assert.Check(tc, resp)
		res.Cases = append(res.Cases, checked)
		res.Summary.add(checked.Passed)
		r.reporter.CaseChecked(i, checked)
	}
	r.reporter.CasesFinished(i, res.Summary)

	span.SetAttributes(
		attribute.Int("nethop.assertions.passed", res.Summary.Passed),
		attribute.Int("nethop.assertions.failed", res.Summary.Failed),
	)
	if res.Summary.Failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d assertion(s) failed", res.Summary.Failed))
	}
	return res, nil
}

type nopReporter struct{}

func (nopReporter) RequestStarted(int, *hopfile.Request)                      {}
func (nopReporter) CaseChecked(int, assert.Result)                            {}
func (nopReporter) CasesFinished(int, Summary)                                {}
func (nopReporter) ResponseReceived(int, *hopfile.Request, *hopfile.Response) {}
func (nopReporter) RequestFailed(int, *hopfile.Request, error)                {}
