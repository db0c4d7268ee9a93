package wire

import (
	"bufio"
	"context"
	"crypto/tls"
	"net"

	"github.com/unkn0wn-root/nethop/internal/errdef"
	"github.com/unkn0wn-root/nethop/internal/hopfile"
)

// UserAgent is sent with every request.
const UserAgent = "NetHop/0.1"

type Options struct {
	// TLS is cloned for secure connections. ServerName is always set to the
	// connection host.
	TLS    *tls.Config
	Dialer *net.Dialer
}

// Conn owns the single stream of a run. It is not safe for concurrent use:
// each request must be fully received before the next one is sent.
type Conn struct {
	target hopfile.Connection
	stream net.Conn
	secure bool
	rd     *bufio.Reader
	wr     *bufio.Writer
}

// Dial opens a TCP stream to the target and, for secure targets, completes a
// TLS handshake verified against the target host.
func Dial(ctx context.Context, target hopfile.Connection, opts Options) (*Conn, error) {
	if target.Host == "" {
		return nil, errdef.New(errdef.CodeTransport, "failed to connect: empty host")
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	raw, err := dialer.DialContext(ctx, "tcp", target.Address())
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeTransport, err, "failed to connect to %s", target.Address())
	}

	if !target.Secure {
		return NewConn(target, raw), nil
	}

	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if opts.TLS != nil {
		cfg = opts.TLS.Clone()
	}
	cfg.ServerName = target.Host

	tc := tls.Client(raw, cfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, errdef.Wrap(errdef.CodeTransport, err, "TLS handshake with %s failed", target.Host)
	}
	return NewConn(target, tc), nil
}

// NewConn wraps an already established stream.
func NewConn(target hopfile.Connection, stream net.Conn) *Conn {
	_, secure := stream.(*tls.Conn)
	return &Conn{
		target: target,
		stream: stream,
		secure: secure,
		rd:     bufio.NewReader(stream),
		wr:     bufio.NewWriter(stream),
	}
}

func (c *Conn) Target() hopfile.Connection {
	return c.target
}

// Secure reports whether the stream is TLS wrapped.
func (c *Conn) Secure() bool {
	return c.secure
}

// Do sends the request and decodes the matching response.
func (c *Conn) Do(ctx context.Context, req *hopfile.Request) (*hopfile.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.Send(req); err != nil {
		return nil, err
	}
	return c.Receive()
}

func (c *Conn) Close() error {
	if c == nil || c.stream == nil {
		return nil
	}
	return c.stream.Close()
}
