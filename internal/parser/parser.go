package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/unkn0wn-root/nethop/internal/errdef"
	"github.com/unkn0wn-root/nethop/internal/hopfile"
)

const (
	markerConnectOpen  = "<connect>"
	markerConnectClose = "</connect>"
	markerQueryOpen    = "<query>"
	markerQueryClose   = "</query>"
	markerBodyOpen     = "<body>"
	markerBodyClose    = "</body>"
	markerAssertOpen   = "<assert>"
	markerAssertClose  = "</assert>"
)

// Parse runs the connection pass and the request pass over the same cleaned
// script.
func Parse(script string) (hopfile.Connection, []*hopfile.Request, error) {
	conn, err := ParseConnection(script)
	if err != nil {
		return hopfile.Connection{}, nil, err
	}
	requests, err := ParseRequests(script)
	if err != nil {
		return hopfile.Connection{}, nil, err
	}
	return conn, requests, nil
}

type line struct {
	num  int
	text string
}

func (l line) trimmed() string {
	return strings.TrimSpace(l.text)
}

// cleanLines drops comment lines and empty lines while remembering the
// original line number of everything it keeps.
func cleanLines(script string) []line {
	script = strings.ReplaceAll(script, "\r\n", "\n")
	raw := strings.Split(script, "\n")
	out := make([]line, 0, len(raw))
	for i, text := range raw {
		if text == "" || strings.HasPrefix(strings.TrimSpace(text), "#") {
			continue
		}
		out = append(out, line{num: i + 1, text: text})
	}
	return out
}

// Clean returns the script without comment and empty lines. Every kept line
// is terminated by a newline.
func Clean(script string) string {
	var b strings.Builder
	for _, ln := range cleanLines(script) {
		b.WriteString(ln.text)
		b.WriteByte('\n')
	}
	return b.String()
}

func syntaxErr(ln line, format string, args ...any) error {
	return errdef.New(errdef.CodeParse, "line %d: %s", ln.num, fmt.Sprintf(format, args...))
}

// splitKeyValue keeps the key's case; keys match exactly.
func splitKeyValue(s string) (string, string, bool) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), true
}

// ParseConnection reads the <connect> block, which must open the script.
func ParseConnection(script string) (hopfile.Connection, error) {
	cleaned := Clean(script)
	if strings.Count(cleaned, markerConnectOpen) > 1 {
		return hopfile.Connection{}, errdef.New(errdef.CodeParse, "multiple connect headers found")
	}

	lines := cleanLines(script)
	if len(lines) == 0 || lines[0].trimmed() != markerConnectOpen {
		return findConnection(lines)
	}

	conn := hopfile.Connection{Port: hopfile.DefaultSecurePort, Secure: true}
	portSet := false
	closed := false
	for _, ln := range lines[1:] {
		text := ln.trimmed()
		if text == markerConnectClose {
			closed = true
			break
		}
		if text == "" {
			continue
		}

		if key, value, ok := splitKeyValue(text); ok {
			switch key {
			case "host":
				conn.Host = value
			case "port":
				port, err := strconv.ParseUint(value, 10, 16)
				if err != nil || port == 0 {
					return hopfile.Connection{}, syntaxErr(ln, "invalid port %q", value)
				}
				conn.Port = uint16(port)
				portSet = true
			default:
				return hopfile.Connection{}, syntaxErr(ln, "invalid connect parameter %q", key)
			}
			continue
		}

		switch text {
		case "unsafe":
			conn.Secure = false
			if !portSet {
				conn.Port = hopfile.DefaultPlainPort
			}
		default:
			return hopfile.Connection{}, syntaxErr(ln, "invalid connect option %q", text)
		}
	}

	if !closed {
		return hopfile.Connection{}, syntaxErr(lines[0], "unterminated %s block", markerConnectOpen)
	}
	if conn.Host == "" {
		return hopfile.Connection{}, errdef.New(errdef.CodeParse, "connection host not specified")
	}
	return conn, nil
}

// findConnection would locate a connect block anywhere in the script. No
// policy exists for that yet, so it always fails.
func findConnection(lines []line) (hopfile.Connection, error) {
	if len(lines) == 0 {
		return hopfile.Connection{}, errdef.New(errdef.CodeParse, "script is empty")
	}
	return hopfile.Connection{}, syntaxErr(
		lines[0],
		"script must start with a %s block; searching the whole script for a connection header is not supported",
		markerConnectOpen,
	)
}

type state int

const (
	stateIdle state = iota
	stateConnect
	stateQuery
	stateBody
	stateAssert
)

func (s state) String() string {
	switch s {
	case stateConnect:
		return markerConnectOpen
	case stateQuery:
		return markerQueryOpen
	case stateBody:
		return markerBodyOpen
	case stateAssert:
		return markerAssertOpen
	default:
		return "top level"
	}
}

type requestParser struct {
	state    state
	opened   map[state]line
	current  *hopfile.Request
	requests []*hopfile.Request
}

// ParseRequests returns every <query> block in declaration order.
func ParseRequests(script string) ([]*hopfile.Request, error) {
	p := &requestParser{
		opened:   make(map[state]line, 4),
		requests: make([]*hopfile.Request, 0, strings.Count(script, markerQueryOpen)),
	}
	for _, ln := range cleanLines(script) {
		if err := p.processLine(ln); err != nil {
			return nil, err
		}
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return p.requests, nil
}

func isMarker(s string) bool {
	switch s {
	case markerConnectOpen, markerConnectClose,
		markerQueryOpen, markerQueryClose,
		markerBodyOpen, markerBodyClose,
		markerAssertOpen, markerAssertClose:
		return true
	default:
		return false
	}
}

func (p *requestParser) enter(s state, ln line) {
	p.state = s
	p.opened[s] = ln
}

func (p *requestParser) processLine(ln line) error {
	switch p.state {
	case stateConnect:
		return p.handleConnect(ln)
	case stateQuery:
		return p.handleQuery(ln)
	case stateBody:
		return p.handleBody(ln)
	case stateAssert:
		return p.handleAssert(ln)
	default:
		return p.handleIdle(ln)
	}
}

func (p *requestParser) handleIdle(ln line) error {
	text := ln.trimmed()
	switch {
	case text == "":
		return nil
	case text == markerConnectOpen:
		p.enter(stateConnect, ln)
		return nil
	case text == markerQueryOpen:
		p.current = hopfile.NewRequest(ln.num)
		p.enter(stateQuery, ln)
		return nil
	case isMarker(text):
		return syntaxErr(ln, "unexpected %s outside a query block", text)
	default:
		return syntaxErr(ln, "unexpected content outside a query block: %q", text)
	}
}

// Connect lines are validated by ParseConnection.
func (p *requestParser) handleConnect(ln line) error {
	if ln.trimmed() == markerConnectClose {
		p.state = stateIdle
	}
	return nil
}

func (p *requestParser) handleQuery(ln line) error {
	text := ln.trimmed()
	switch text {
	case "":
		return nil
	case markerQueryClose:
		return p.closeQuery(ln)
	case markerBodyOpen:
		p.enter(stateBody, ln)
		return nil
	case markerAssertOpen:
		p.enter(stateAssert, ln)
		return nil
	}
	if isMarker(text) {
		return syntaxErr(ln, "unexpected %s inside a query block", text)
	}

	key, value, ok := splitKeyValue(text)
	if !ok {
		return syntaxErr(ln, "expected key=value, got %q", text)
	}
	switch key {
	case "url":
		p.current.URL = value
	case "method":
		if value == "" {
			return syntaxErr(ln, "method must not be empty")
		}
		p.current.Method = strings.ToUpper(value)
	case "content-type":
		p.current.ContentType = strings.ToLower(value)
	default:
		return syntaxErr(ln, "unknown key %q", key)
	}
	return nil
}

func (p *requestParser) closeQuery(ln line) error {
	if p.current.URL == "" {
		return syntaxErr(ln, "query opened on line %d has no url", p.current.Line)
	}
	p.requests = append(p.requests, p.current)
	p.current = nil
	p.state = stateIdle
	return nil
}

// Body lines are captured verbatim, blank ones included.
func (p *requestParser) handleBody(ln line) error {
	if ln.trimmed() == markerBodyClose {
		p.state = stateQuery
		return nil
	}
	p.current.Body += ln.text + "\n"
	return nil
}

func (p *requestParser) handleAssert(ln line) error {
	text := ln.trimmed()
	switch {
	case text == "":
		return nil
	case text == markerAssertClose:
		p.state = stateQuery
		return nil
	case isMarker(text):
		return syntaxErr(ln, "unexpected %s inside an assert block", text)
	}

	tc, err := parseAssertion(ln, text)
	if err != nil {
		return err
	}
	p.current.TestCases = append(p.current.TestCases, tc)
	return nil
}

func parseAssertion(ln line, text string) (hopfile.TestCase, error) {
	tokens := splitAssertion(text)
	if len(tokens) != 3 {
		return hopfile.TestCase{}, syntaxErr(
			ln,
			"invalid assertion %q: expected key, operator and value, got %d token(s)",
			text,
			len(tokens),
		)
	}
	op, err := hopfile.ParseOperator(tokens[1])
	if err != nil {
		return hopfile.TestCase{}, syntaxErr(ln, "unknown operator symbol %q in assertion %q", tokens[1], text)
	}
	return hopfile.TestCase{Key: tokens[0], Operation: op, Value: tokens[2]}, nil
}

// splitAssertion splits off at most two leading tokens. The remainder is kept
// as a single value so expected values may contain spaces.
func splitAssertion(s string) []string {
	var out []string
	rest := strings.TrimSpace(s)
	for len(out) < 2 && rest != "" {
		idx := strings.IndexFunc(rest, unicode.IsSpace)
		if idx < 0 {
			out = append(out, rest)
			rest = ""
			break
		}
		out = append(out, rest[:idx])
		rest = strings.TrimLeftFunc(rest[idx:], unicode.IsSpace)
	}
	if rest != "" {
		out = append(out, rest)
	}
	return out
}

func (p *requestParser) finish() error {
	if p.state == stateIdle {
		return nil
	}
	ln := p.opened[p.state]
	return syntaxErr(ln, "unterminated %s block", p.state)
}
