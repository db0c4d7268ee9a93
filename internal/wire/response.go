package wire

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/unkn0wn-root/nethop/internal/errdef"
	"github.com/unkn0wn-root/nethop/internal/hopfile"
)

const (
	MIMEText      = "text/plain"
	MIMEAppText   = "application/text"
	MIMEJSON      = "application/json"
	headSeparator = "\r\n\r\n"
)

// Receive reads one complete response and leaves the reader positioned at
// the first byte after it.
func (c *Conn) Receive() (*hopfile.Response, error) {
	head, err := readHead(c.rd)
	if err != nil {
		return nil, err
	}
	if head.text == "" {
		return nil, errdef.New(errdef.CodeProtocol, "empty response: connection closed before a status line was received")
	}

	var body []byte
	if head.chunked {
		body, err = readChunked(c.rd)
	} else {
		body, err = readFixed(c.rd, head.contentLength)
	}
	if err != nil {
		return nil, err
	}

	resp, err := ParseRawResponse(head.text + "\r\n" + decodeLossy(body))
	if err != nil {
		return nil, err
	}
	if err := ApplyContentPolicy(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

type rawHead struct {
	text          string
	contentLength int
	chunked       bool
}

// readHead collects lines up to the empty line or end of stream. Each line is
// kept as received with its terminator normalised to CRLF.
func readHead(rd *bufio.Reader) (rawHead, error) {
	var (
		head rawHead
		b    strings.Builder
	)
	for {
		line, err := rd.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return rawHead{}, errdef.Wrap(errdef.CodeTransport, err, "failed to read response head")
		}

		content := strings.TrimRight(line, "\r\n")
		if content == "" {
			break
		}

		lower := strings.ToLower(content)
		switch {
		case strings.HasPrefix(lower, "content-length:"):
			head.contentLength = parseContentLength(content)
		case strings.HasPrefix(lower, "transfer-encoding: chunked"):
			head.chunked = true
		}
		b.WriteString(content)
		b.WriteString("\r\n")

		if err != nil {
			break
		}
	}
	head.text = b.String()
	return head, nil
}

// parseContentLength falls back to zero for missing or malformed values.
func parseContentLength(line string) int {
	_, value, ok := strings.Cut(line, ":")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func readFixed(rd *bufio.Reader, n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	// Grow with the bytes that arrive, not with the declared length.
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, rd, int64(n)); err != nil {
		return nil, errdef.Wrap(errdef.CodeTransport, err, "failed to read %d byte body", n)
	}
	return buf.Bytes(), nil
}

func readChunked(rd *bufio.Reader) ([]byte, error) {
	var body bytes.Buffer
	for {
		sizeLine, err := rd.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && sizeLine != "") {
			return nil, errdef.Wrap(errdef.CodeTransport, err, "failed to read chunk size")
		}
		size, err := parseChunkSize(sizeLine)
		if err != nil {
			return nil, err
		}
		if size == 0 {
			if err := skipTrailers(rd); err != nil {
				return nil, err
			}
			return body.Bytes(), nil
		}

		if _, err := io.CopyN(&body, rd, int64(size)); err != nil {
			return nil, errdef.Wrap(errdef.CodeTransport, err, "failed to read %d byte chunk", size)
		}
		if err := expectCRLF(rd); err != nil {
			return nil, err
		}
	}
}

func parseChunkSize(line string) (int, error) {
	text := strings.TrimSpace(line)
	if idx := strings.IndexByte(text, ';'); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
	}
	size, err := strconv.ParseUint(text, 16, 31)
	if err != nil {
		return 0, errdef.Wrap(errdef.CodeProtocol, err, "invalid chunk size %q", strings.TrimSpace(line))
	}
	return int(size), nil
}

func expectCRLF(rd *bufio.Reader) error {
	line, err := rd.ReadString('\n')
	if err != nil {
		return errdef.Wrap(errdef.CodeTransport, err, "failed to read chunk terminator")
	}
	if strings.TrimRight(line, "\r\n") != "" {
		return errdef.New(errdef.CodeProtocol, "chunk data not followed by CRLF")
	}
	return nil
}

// skipTrailers consumes the trailer section that follows the last chunk so
// the next response starts at a clean boundary.
func skipTrailers(rd *bufio.Reader) error {
	for {
		line, err := rd.ReadString('\n')
		if strings.TrimRight(line, "\r\n") == "" {
			if err != nil && !errors.Is(err, io.EOF) {
				return errdef.Wrap(errdef.CodeTransport, err, "failed to read chunk trailer")
			}
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return errdef.Wrap(errdef.CodeTransport, err, "failed to read chunk trailer")
		}
	}
}

func decodeLossy(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	out, _, err := transform.Bytes(runes.ReplaceIllFormed(), raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "�")
	}
	return string(out)
}

// ParseRawResponse splits raw response text at the first blank line and reads
// the numeric status from the status line.
func ParseRawResponse(raw string) (*hopfile.Response, error) {
	head, body, ok := strings.Cut(raw, headSeparator)
	if !ok {
		return nil, errdef.New(errdef.CodeProtocol, "malformed response: no head/body separator")
	}

	lines := strings.Split(head, "\r\n")
	statusLine := strings.TrimSpace(lines[0])
	if statusLine == "" {
		return nil, errdef.New(errdef.CodeProtocol, "empty response")
	}
	fields := strings.Fields(statusLine)
	if len(fields) < 2 {
		return nil, errdef.New(errdef.CodeProtocol, "invalid status line %q", statusLine)
	}
	status, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return nil, errdef.New(errdef.CodeProtocol, "invalid status code %q", fields[1])
	}

	var headers strings.Builder
	for _, ln := range lines[1:] {
		headers.WriteString(ln)
		headers.WriteString("\r\n")
	}

	return &hopfile.Response{
		Status:  uint16(status),
		Headers: headers.String(),
		Body:    body,
	}, nil
}

// MIMEType returns the lower-cased media type without parameters.
func MIMEType(contentType string) string {
	mime, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mime))
}

// ApplyContentPolicy validates the content type and rewrites JSON bodies
// into their canonical indented form.
func ApplyContentPolicy(resp *hopfile.Response) error {
	ct, ok := resp.Header("content-type")
	if !ok {
		return errdef.New(errdef.CodeContent, "response has no content-type header")
	}

	switch mime := MIMEType(ct); mime {
	case MIMEAppText, MIMEText:
		return nil
	case MIMEJSON:
		pretty, err := PrettyJSON(resp.Body)
		if err != nil {
			return err
		}
		resp.Body = pretty
		return nil
	default:
		return errdef.New(errdef.CodeContent, "unsupported content type %s", mime)
	}
}

// PrettyJSON re-encodes a JSON document with two-space indentation and
// sorted object keys.
func PrettyJSON(body string) (string, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return "", errdef.Wrap(errdef.CodeContent, err, "malformed JSON body")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return "", errdef.New(errdef.CodeContent, "malformed JSON body: trailing data after document")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return "", errdef.Wrap(errdef.CodeContent, err, "encode JSON body")
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
