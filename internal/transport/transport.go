// Package transport moves datagrams between the knock client and the daemon.
package transport

import (
	"context"
	"errors"
	"net"
	"os"
	"time"
)

// MaxDatagramSize bounds the size of the datagrams read by UDPTransport.
const MaxDatagramSize = 512

type Transport interface {
	ReadBytes() ([]byte, error)
	WriteBytes(data []byte) error
}

// T aliases Transport
type T = Transport

// UDPTransport exchanges datagrams over a connected UDP socket.
type UDPTransport struct {
	Conn net.Conn

	// Timeout bounds each ReadBytes call, no limit if <= 0.
	Timeout time.Duration
}

// Dial returns a UDPTransport connected to addr.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*UDPTransport, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp", addr)
	if nil != err {
		return nil, wrapError(err, "failed connecting to %s", addr)
	}

	return &UDPTransport{Conn: conn, Timeout: timeout}, nil
}

// ReadBytes reads one datagram.
// It errors with ErrTimeout if no datagram arrived in time.
func (self *UDPTransport) ReadBytes() ([]byte, error) {
	if self.Timeout > 0 {
		err := self.Conn.SetReadDeadline(time.Now().Add(self.Timeout))
		if nil != err {
			return nil, wrapError(err, "failed setting read deadline")
		}
	}

	buf := make([]byte, MaxDatagramSize)
	n, err := self.Conn.Read(buf)
	if nil != err {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, wrapFlagError(err, ErrTimeout, "no datagram received after %s", self.Timeout)
		}
		return nil, wrapError(err, "failed reading datagram")
	}

	return buf[:n], nil
}

// WriteBytes sends data as a single datagram.
func (self *UDPTransport) WriteBytes(data []byte) error {
	_, err := self.Conn.Write(data)
	return wrapError(err, "failed writing datagram") // nil if err is nil
}

// Close closes the inner connection.
func (self *UDPTransport) Close() error {
	return self.Conn.Close()
}

var _ Transport = &UDPTransport{}
