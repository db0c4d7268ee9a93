package wire

import (
	"bytes"
	"strconv"

	"github.com/unkn0wn-root/nethop/internal/errdef"
	"github.com/unkn0wn-root/nethop/internal/hopfile"
)

// Encode renders the literal HTTP/1.1 request text. Only POST and PUT carry
// a body. Content-Length counts only the bytes actually written, so it is 0
// for other methods even when the script declares a body.
func Encode(host string, req *hopfile.Request) ([]byte, error) {
	var payload string
	if req.HasBody() {
		if req.Body == "" {
			return nil, errdef.New(errdef.CodeContent, "empty body sent to %s request", req.Method)
		}
		payload = req.Body
	}

	var buf bytes.Buffer
	buf.Grow(256 + len(payload))
	buf.WriteString(req.Method + " " + req.URL + " HTTP/1.1\r\n")
	writeHeader(&buf, "Host", host)
	writeHeader(&buf, "User-Agent", UserAgent)
	writeHeader(&buf, "Content-Type", req.ContentType)
	writeHeader(&buf, "Content-Length", strconv.Itoa(len(payload)))
	writeHeader(&buf, "Accept", "application/json")
	writeHeader(&buf, "Accept-Encoding", "identity")
	writeHeader(&buf, "Connection", "keep-alive")
	buf.WriteString("\r\n")
	buf.WriteString(payload)
	return buf.Bytes(), nil
}

func writeHeader(buf *bytes.Buffer, name, value string) {
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

// Send writes and flushes one request.
func (c *Conn) Send(req *hopfile.Request) error {
	data, err := Encode(c.target.Host, req)
	if err != nil {
		return err
	}
	if _, err := c.wr.Write(data); err != nil {
		return errdef.Wrap(errdef.CodeTransport, err, "failed to send request")
	}
	if err := c.wr.Flush(); err != nil {
		return errdef.Wrap(errdef.CodeTransport, err, "failed to send request")
	}
	return nil
}
