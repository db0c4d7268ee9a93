// Package render prints batch progress and results to a terminal.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alecthomas/chroma/quick"
	"github.com/aymanbagabas/go-udiff"
	"github.com/mattn/go-runewidth"

	"github.com/unkn0wn-root/nethop/internal/assert"
	"github.com/unkn0wn-root/nethop/internal/hopfile"
	"github.com/unkn0wn-root/nethop/internal/runner"
	"github.com/unkn0wn-root/nethop/internal/theme"
	"github.com/unkn0wn-root/nethop/internal/wire"
)

const defaultWidth = 72

// Pager displays long content outside the scrolling console output.
type Pager interface {
	Show(title, content string) error
}

type Options struct {
	Out       io.Writer
	Theme     theme.Theme
	Highlight bool
	Pager     Pager
	// Width caps the rendered length of values in case lines.
	Width int
}

type Console struct {
	out       io.Writer
	th        theme.Theme
	highlight bool
	pager     Pager
	width     int
}

var _ runner.Reporter = (*Console)(nil)

func New(opts Options) *Console {
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	return &Console{
		out:       opts.Out,
		th:        opts.Theme,
		highlight: opts.Highlight,
		pager:     opts.Pager,
		width:     width,
	}
}

func (c *Console) Banner(version string) {
	fmt.Fprintln(c.out, c.th.Brand.Render("NetHop "+version))
}

// WorkspaceLoaded lists the query files gathered next to config.hop.
func (c *Console) WorkspaceLoaded(files []string) {
	for _, f := range files {
		fmt.Fprintf(c.out, "%s %s\n", c.th.Muted.Render("added"), f)
	}
	if len(files) == 0 {
		fmt.Fprintln(c.out, c.th.Warning.Render("Only config.hop was found."))
		return
	}
	fmt.Fprintln(c.out, c.th.Success.Render(fmt.Sprintf("%d additional hop file(s) found.", len(files))))
}

func (c *Console) Prepared(conn hopfile.Connection, count int) {
	fmt.Fprintf(c.out, "%s %s\n", c.th.Muted.Render("target"), c.th.URL.Render(conn.Scheme()+"://"+conn.Address()))
	fmt.Fprintf(c.out, "%s %d\n", c.th.Muted.Render("queries"), count)
}

func (c *Console) Connecting(conn hopfile.Connection) {
	fmt.Fprintf(c.out, "Connecting to %s\n", c.th.URL.Render(conn.Address()))
}

// Connected confirms the live stream and its transport.
func (c *Console) Connected(conn hopfile.Connection, secure bool) {
	via := "plain TCP"
	if secure {
		via = "TLS"
	}
	fmt.Fprintf(c.out, "%s %s %s\n", c.th.Success.Render("Connected to"), c.th.URL.Render(conn.Address()), c.th.Muted.Render("over "+via))
}

func (c *Console) Cancelled() {
	fmt.Fprintln(c.out, c.th.Warning.Render("Cancelled"))
}

func (c *Console) RequestStarted(i int, req *hopfile.Request) {
	fmt.Fprintf(c.out, "\n%s %s %s\n",
		c.th.Muted.Render(fmt.Sprintf("[%d]", i+1)),
		c.th.Method.Render(req.Method),
		c.th.URL.Render(req.URL),
	)
}

func (c *Console) CaseChecked(_ int, res assert.Result) {
	line := fmt.Sprintf("Case: %s %s %s",
		c.th.Key.Render(res.Case.Key),
		res.Case.Operation.Symbol(),
		c.th.Value.Render(c.clip(res.Case.Value)),
	)
	if res.Passed {
		fmt.Fprintf(c.out, "  %s %s\n", line, c.th.Success.Render("Passed"))
		return
	}
	fmt.Fprintf(c.out, "  %s %s %s\n", line, c.th.Error.Render("Failed"),
		c.th.Muted.Render("(got "+c.clip(res.Actual)+")"))
	if diff := bodyDiff(res); diff != "" {
		for _, l := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
			fmt.Fprintf(c.out, "    %s\n", c.diffLine(l))
		}
	}
}

func (c *Console) CasesFinished(_ int, sum runner.Summary) {
	fmt.Fprintln(c.out, c.th.Summary.Render(summaryLine(sum)))
}

func (c *Console) ResponseReceived(i int, req *hopfile.Request, resp *hopfile.Response) {
	view := c.responseView(resp)
	if c.pager != nil {
		title := fmt.Sprintf("[%d] %s %s", i+1, req.Method, req.URL)
		if err := c.pager.Show(title, view); err == nil {
			return
		}
	}
	fmt.Fprintln(c.out, view)
}

func (c *Console) RequestFailed(_ int, _ *hopfile.Request, err error) {
	fmt.Fprintf(c.out, "  %s %v\n", c.th.Error.Render("Error"), err)
}

// BatchReport prints assertion totals and request latency for the batch.
func (c *Console) BatchReport(report runner.Report) {
	fmt.Fprintln(c.out)
	if report.Totals.Total > 0 {
		fmt.Fprintln(c.out, c.th.Summary.Render("All cases "+summaryLine(report.Totals)))
	}
	lat := report.Latency
	if lat.Count == 0 {
		return
	}
	fmt.Fprintf(c.out, "%s %d request(s) in %s | min %s | mean %s | median %s | p95 %s | max %s\n",
		c.th.Muted.Render("latency"),
		lat.Count,
		round(report.Duration),
		round(lat.Min),
		round(lat.Mean),
		round(lat.Median),
		round(lat.P95),
		round(lat.Max),
	)
}

func (c *Console) responseView(resp *hopfile.Response) string {
	var b strings.Builder
	status := c.th.Success
	if resp.Status >= 400 {
		status = c.th.Error
	}
	b.WriteString(c.th.Key.Render("Status: "))
	b.WriteString(status.Render(resp.StatusText()))
	b.WriteByte('\n')
	if ct, ok := resp.Header("content-type"); ok {
		b.WriteString(c.th.Key.Render("Content-Type: "))
		b.WriteString(ct)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(c.body(resp))
	return b.String()
}

func (c *Console) body(resp *hopfile.Response) string {
	if !c.highlight || resp.Body == "" {
		return resp.Body
	}
	ct, _ := resp.Header("content-type")
	if wire.MIMEType(ct) != "application/json" {
		return resp.Body
	}
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, resp.Body, "json", "terminal16m", "monokai"); err != nil {
		return resp.Body
	}
	return buf.String()
}

func (c *Console) diffLine(l string) string {
	switch {
	case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"), strings.HasPrefix(l, "@@"):
		return c.th.Muted.Render(l)
	case strings.HasPrefix(l, "+"):
		return c.th.Success.Render(l)
	case strings.HasPrefix(l, "-"):
		return c.th.Error.Render(l)
	default:
		return l
	}
}

var escaper = strings.NewReplacer("\r", `\r`, "\n", `\n`, "\t", `\t`)

func (c *Console) clip(s string) string {
	return runewidth.Truncate(escaper.Replace(s), c.width, "…")
}

// bodyDiff is only produced for failed body equality cases.
func bodyDiff(res assert.Result) string {
	if res.Passed || res.Case.Key != assert.KeyBody || res.Case.Operation != hopfile.Equals {
		return ""
	}
	want := ensureTrailingNewline(res.Case.Value)
	got := ensureTrailingNewline(res.Actual)
	if want == got {
		return ""
	}
	return udiff.Unified("expected", "actual", want, got)
}

func ensureTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func summaryLine(sum runner.Summary) string {
	return fmt.Sprintf("total: %d, passed: %d, failed: %d", sum.Total, sum.Passed, sum.Failed)
}

func round(d time.Duration) time.Duration {
	switch {
	case d >= time.Second:
		return d.Round(time.Millisecond)
	case d >= time.Millisecond:
		return d.Round(10 * time.Microsecond)
	default:
		return d
	}
}
