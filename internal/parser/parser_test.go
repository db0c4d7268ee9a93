package parser

import (
	"strings"
	"testing"

	"github.com/MakeNowJust/heredoc"

	"github.com/unkn0wn-root/nethop/internal/errdef"
	"github.com/unkn0wn-root/nethop/internal/hopfile"
)

func TestCleanDropsCommentsAndEmptyLines(t *testing.T) {
	src := "# header comment\n<connect>\n\n   # indented comment\nhost=example.com\n</connect>\n"
	got := Clean(src)
	want := "<connect>\nhost=example.com\n</connect>\n"
	if got != want {
		t.Fatalf("unexpected cleaned script %q", got)
	}
}

func TestParseConnectionDefaults(t *testing.T) {
	src := heredoc.Doc(`
		<connect>
		host=example.com
		</connect>
	`)

	conn, err := ParseConnection(src)
	if err != nil {
		t.Fatalf("ParseConnection returned error: %v", err)
	}
	if conn.Host != "example.com" || conn.Port != 443 || !conn.Secure {
		t.Fatalf("unexpected connection %+v", conn)
	}
}

func TestParseConnectionUnsafe(t *testing.T) {
	cases := []struct {
		name   string
		src    string
		port   uint16
		secure bool
	}{
		{
			name:   "unsafe switches to port 80",
			src:    "<connect>\nhost=localhost\nunsafe\n</connect>\n",
			port:   80,
			secure: false,
		},
		{
			name:   "explicit port before unsafe wins",
			src:    "<connect>\nhost=localhost\nport=8080\nunsafe\n</connect>\n",
			port:   8080,
			secure: false,
		},
		{
			name:   "explicit port after unsafe wins",
			src:    "<connect>\nunsafe\nhost=localhost\nport=3000\n</connect>\n",
			port:   3000,
			secure: false,
		},
		{
			name:   "explicit port on secure connection",
			src:    "<connect>\nhost=localhost\nport=8443\n</connect>\n",
			port:   8443,
			secure: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn, err := ParseConnection(tc.src)
			if err != nil {
				t.Fatalf("ParseConnection returned error: %v", err)
			}
			if conn.Port != tc.port || conn.Secure != tc.secure {
				t.Fatalf("expected port=%d secure=%v, got %+v", tc.port, tc.secure, conn)
			}
		})
	}
}

func TestParseConnectionErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "multiple connect blocks",
			src:  "<connect>\nhost=a\n</connect>\n<connect>\nhost=b\n</connect>\n",
			want: "multiple connect headers",
		},
		{
			name: "invalid port",
			src:  "<connect>\nhost=a\nport=https\n</connect>\n",
			want: `invalid port "https"`,
		},
		{
			name: "port out of range",
			src:  "<connect>\nhost=a\nport=70000\n</connect>\n",
			want: `invalid port "70000"`,
		},
		{
			name: "unknown key",
			src:  "<connect>\nhost=a\nscheme=http\n</connect>\n",
			want: `invalid connect parameter "scheme"`,
		},
		{
			name: "upper case key",
			src:  "<connect>\nHOST=example.com\n</connect>\n",
			want: `invalid connect parameter "HOST"`,
		},
		{
			name: "unknown option",
			src:  "<connect>\nhost=a\ninsecure\n</connect>\n",
			want: `invalid connect option "insecure"`,
		},
		{
			name: "empty host",
			src:  "<connect>\nport=80\n</connect>\n",
			want: "host not specified",
		},
		{
			name: "unterminated",
			src:  "<connect>\nhost=a\n",
			want: "unterminated <connect>",
		},
		{
			name: "connect not first",
			src:  "<query>\nurl=/\n</query>\n<connect>\nhost=a\n</connect>\n",
			want: "not supported",
		},
		{
			name: "empty script",
			src:  "# only a comment\n",
			want: "script is empty",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConnection(tc.src)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errdef.Is(err, errdef.CodeParse) {
				t.Fatalf("expected parse error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestParseConnectionIgnoresCommentedConnect(t *testing.T) {
	src := "<connect>\nhost=a\n</connect>\n# <connect>\n"
	if _, err := ParseConnection(src); err != nil {
		t.Fatalf("commented connect marker should not count: %v", err)
	}
}

func TestParseRequests(t *testing.T) {
	src := heredoc.Doc(`
		# sample
		<connect>
		host=api.example.com
		</connect>

		<query>
		url=/users
		</query>

		<query>
		url=/users
		method=post
		content-type=Application/JSON
		<body>
		{
		  "name": "hop"
		}
		</body>
		<assert>
		status = 201
		body ~ "name": "hop"
		Content-Type ^ application/json
		</assert>
		</query>
	`)

	requests, err := ParseRequests(src)
	if err != nil {
		t.Fatalf("ParseRequests returned error: %v", err)
	}
	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(requests))
	}

	first := requests[0]
	if first.Method != "GET" || first.URL != "/users" || first.Body != "" || len(first.TestCases) != 0 {
		t.Fatalf("unexpected first request %+v", first)
	}

	second := requests[1]
	if second.Method != "POST" {
		t.Fatalf("expected upper-cased method, got %q", second.Method)
	}
	if second.ContentType != "application/json" {
		t.Fatalf("expected lower-cased content type, got %q", second.ContentType)
	}
	if second.Body != "{\n  \"name\": \"hop\"\n}\n" {
		t.Fatalf("unexpected body %q", second.Body)
	}

	want := []hopfile.TestCase{
		{Key: "status", Operation: hopfile.Equals, Value: "201"},
		{Key: "body", Operation: hopfile.Contains, Value: `"name": "hop"`},
		{Key: "Content-Type", Operation: hopfile.StartsWith, Value: "application/json"},
	}
	if len(second.TestCases) != len(want) {
		t.Fatalf("expected %d test cases, got %d", len(want), len(second.TestCases))
	}
	for i, tc := range want {
		if second.TestCases[i] != tc {
			t.Fatalf("case %d: expected %+v, got %+v", i, tc, second.TestCases[i])
		}
	}
}

func TestParseRequestsKeepsWhitespaceOnlyBodyLines(t *testing.T) {
	src := "<connect>\nhost=a\n</connect>\n<query>\nurl=/\nmethod=PUT\n<body>\nfirst\n   \n  second\n</body>\n</query>\n"
	requests, err := ParseRequests(src)
	if err != nil {
		t.Fatalf("ParseRequests returned error: %v", err)
	}
	if requests[0].Body != "first\n   \n  second\n" {
		t.Fatalf("unexpected body %q", requests[0].Body)
	}
}

func TestParseRequestsAllOperators(t *testing.T) {
	var b strings.Builder
	b.WriteString("<connect>\nhost=a\n</connect>\n<query>\nurl=/\n<assert>\n")
	for _, op := range hopfile.Operators() {
		b.WriteString("status " + op.Symbol() + " 200\n")
	}
	b.WriteString("</assert>\n</query>\n")

	requests, err := ParseRequests(b.String())
	if err != nil {
		t.Fatalf("ParseRequests returned error: %v", err)
	}
	cases := requests[0].TestCases
	for i, op := range hopfile.Operators() {
		if cases[i].Operation != op {
			t.Fatalf("case %d: expected %v, got %v", i, op, cases[i].Operation)
		}
		if cases[i].Operation == hopfile.Unknown {
			t.Fatalf("parser must never produce the Unknown operator")
		}
	}
}

func TestParseRequestsErrors(t *testing.T) {
	head := "<connect>\nhost=a\n</connect>\n"
	cases := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "unknown key",
			src:  head + "<query>\nurl=/\ntimeout=5\n</query>\n",
			want: `line 6: unknown key "timeout"`,
		},
		{
			name: "upper case key",
			src:  head + "<query>\nURL=/x\nMETHOD=post\n</query>\n",
			want: `line 5: unknown key "URL"`,
		},
		{
			name: "missing equals",
			src:  head + "<query>\nurl=/\nGET /\n</query>\n",
			want: "expected key=value",
		},
		{
			name: "too few assertion tokens",
			src:  head + "<query>\nurl=/\n<assert>\nstatus =\n</assert>\n</query>\n",
			want: "got 2 token(s)",
		},
		{
			name: "unknown operator",
			src:  head + "<query>\nurl=/\n<assert>\nstatus == 200\n</assert>\n</query>\n",
			want: `unknown operator symbol "=="`,
		},
		{
			name: "nested query",
			src:  head + "<query>\nurl=/\n<query>\n</query>\n",
			want: "unexpected <query> inside a query block",
		},
		{
			name: "close without open",
			src:  head + "</query>\n",
			want: "unexpected </query> outside a query block",
		},
		{
			name: "body outside query",
			src:  head + "<body>\n</body>\n",
			want: "unexpected <body> outside a query block",
		},
		{
			name: "marker inside assert",
			src:  head + "<query>\nurl=/\n<assert>\n</query>\n",
			want: "unexpected </query> inside an assert block",
		},
		{
			name: "unterminated body",
			src:  head + "<query>\nurl=/\n<body>\n{}\n",
			want: "line 6: unterminated <body> block",
		},
		{
			name: "unterminated query",
			src:  head + "<query>\nurl=/\n",
			want: "line 4: unterminated <query> block",
		},
		{
			name: "stray text",
			src:  head + "hello\n",
			want: `unexpected content outside a query block: "hello"`,
		},
		{
			name: "missing url",
			src:  head + "<query>\nmethod=GET\n</query>\n",
			want: "has no url",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRequests(tc.src)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errdef.Is(err, errdef.CodeParse) {
				t.Fatalf("expected parse error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestParseBothPasses(t *testing.T) {
	src := heredoc.Doc(`
		<connect>
		host=localhost
		unsafe
		</connect>
		<query>
		url=/health
		<assert>
		status = 200
		</assert>
		</query>
	`)

	conn, requests, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if conn.Secure || conn.Port != 80 {
		t.Fatalf("unexpected connection %+v", conn)
	}
	if len(requests) != 1 || requests[0].Line != 5 {
		t.Fatalf("unexpected requests %+v", requests)
	}
}

func TestSplitAssertion(t *testing.T) {
	cases := map[string][]string{
		"status = 200":         {"status", "=", "200"},
		"body ~ hello   world": {"body", "~", "hello   world"},
		"  x-id\t!=\tabc ":     {"x-id", "!=", "abc"},
		"status":               {"status"},
		"status   >=":          {"status", ">="},
	}
	for input, want := range cases {
		got := splitAssertion(input)
		if strings.Join(got, "|") != strings.Join(want, "|") {
			t.Fatalf("%q: expected %q, got %q", input, want, got)
		}
	}
}
