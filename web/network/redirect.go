// Package network adapts listeners for serving TLS and plain HTTP on one port.
package network

import (
	"bufio"
	"net"
	"net/http"
	"sync"
	"time"
)

// tlsHandshake is the record type byte that opens every TLS connection.
const tlsHandshake = 0x16

// RedirectListener answers plain HTTP requests with a redirect to HTTPS and
// passes TLS connections through unchanged. Wrap it with tls.NewListener.
type RedirectListener struct {
	net.Listener
}

func NewRedirectListener(l net.Listener) net.Listener {
	return &RedirectListener{Listener: l}
}

func (l *RedirectListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &redirectConn{Conn: conn, br: bufio.NewReader(conn)}, nil
}

// redirectConn inspects the first byte. Anything other than a TLS handshake
// is parsed as an HTTP request, answered with 307 and closed.
type redirectConn struct {
	net.Conn
	br   *bufio.Reader
	once sync.Once
	err  error
}

func (c *redirectConn) sniff() {
	_ = c.Conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	defer c.Conn.SetReadDeadline(time.Time{})

	first, err := c.br.Peek(1)
	if err != nil {
		c.err = err
		return
	}
	if first[0] == tlsHandshake {
		return
	}

	req, err := http.ReadRequest(c.br)
	if err != nil {
		c.err = err
		_ = c.Conn.Close()
		return
	}
	resp := &http.Response{
		StatusCode: http.StatusTemporaryRedirect,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
		Close:      true,
	}
	resp.Header.Set("Location", "https://"+req.Host+req.RequestURI)
	_ = resp.Write(c.Conn)
	_ = c.Conn.Close()
	c.err = net.ErrClosed
}

func (c *redirectConn) Read(b []byte) (int, error) {
	c.once.Do(c.sniff)
	if c.err != nil {
		return 0, c.err
	}
	return c.br.Read(b)
}
