package hopfile

import (
	"strconv"
	"strings"
)

const (
	DefaultMethod     = "GET"
	DefaultSecurePort = 443
	DefaultPlainPort  = 80
)

// Connection is the target declared by the <connect> block of a script.
type Connection struct {
	Host   string
	Port   uint16
	Secure bool
}

// Address returns host:port suitable for net.Dial.
func (c Connection) Address() string {
	return c.Host + ":" + strconv.Itoa(int(c.Port))
}

func (c Connection) Scheme() string {
	if c.Secure {
		return "https"
	}
	return "http"
}

type TestCase struct {
	Key       string
	Operation Operator
	Value     string
}

func (tc TestCase) String() string {
	return tc.Key + " " + tc.Operation.Symbol() + " " + tc.Value
}

// Request is one <query> block.
type Request struct {
	URL         string
	Method      string
	Body        string
	ContentType string
	TestCases   []TestCase
	Line        int
}

func NewRequest(line int) *Request {
	return &Request{Method: DefaultMethod, Line: line}
}

// HasBody reports whether the method carries a payload on the wire.
func (r *Request) HasBody() bool {
	switch r.Method {
	case "POST", "PUT":
		return true
	default:
		return false
	}
}

// Response holds the facts decoded from one response. Headers keeps the
// original header lines (status line excluded), each terminated by CRLF.
type Response struct {
	Status  uint16
	Headers string
	Body    string
}

// Header performs a case-insensitive lookup. The second result is false when
// no header with that name exists, which is distinct from an empty value.
func (r *Response) Header(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	name = strings.TrimSpace(name)
	for _, line := range strings.Split(r.Headers, "\r\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), name) {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

func (r *Response) StatusText() string {
	if r == nil {
		return ""
	}
	return strconv.Itoa(int(r.Status))
}
