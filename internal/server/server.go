// Package server runs the daemon receive loop.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/bouncerd/bouncer/internal/knock"
	"github.com/bouncerd/bouncer/internal/observability"
	"github.com/bouncerd/bouncer/internal/transport"
	"github.com/bouncerd/bouncer/pkg/journal"
)

// Server reads datagrams from Conn one at a time and answers them using Engine.
type Server struct {
	Conn   net.PacketConn
	Engine *knock.Engine

	// Journal records verdicts, it is optional.
	Journal journal.Journal

	// TolerateTriggerFailure makes Serve log Trigger failures instead of returning them.
	TolerateTriggerFailure bool

	Logger *slog.Logger
}

// Serve processes datagrams until ctx is done or an error occurs.
// Conn is closed when ctx is done, Serve then returns nil.
//
// Serve errors if reading from Conn fails, if the Engine errors, or if the Trigger
// failed and TolerateTriggerFailure is not set. The failed packet is not answered.
func (self *Server) Serve(ctx context.Context) error {
	if nil == self.Conn || nil == self.Engine {
		return newError("Server requires Conn and Engine")
	}
	ctx = observability.SetObservability(ctx, &observability.Observability{Logger: self.Logger})
	log := observability.Log(ctx)

	stop := context.AfterFunc(ctx, func() {
		self.Conn.Close()
	})
	defer stop()

	handler := observability.Middleware{}.Wrap(observability.PacketHandlerFunc(self.ServePacket))

	log.Info("serving", "addr", self.Conn.LocalAddr().String())
	buf := make([]byte, transport.MaxDatagramSize)
	for {
		n, addr, err := self.Conn.ReadFrom(buf)
		if nil != err {
			if nil != ctx.Err() {
				log.Info("stopped serving")
				return nil
			}
			return wrapError(err, "failed Conn.ReadFrom")
		}

		src, err := addrPort(addr)
		if nil != err {
			log.Warn("dropped datagram", "error", err)
			continue
		}

		err = handler.ServePacket(ctx, buf[:n], src)
		if nil != err {
			if errors.Is(err, knock.ErrTrigger) && self.TolerateTriggerFailure {
				log.Error("whitelist trigger failed", "addr", src.Addr().Unmap().String(), "error", err)
				continue
			}
			return err
		}
	}
}

// ServePacket answers a single datagram msg received from src.
// Datagrams the Engine drops get no reply.
func (self *Server) ServePacket(ctx context.Context, msg []byte, src netip.AddrPort) error {
	log := observability.Log(ctx)

	replies, err := self.Engine.Handle(ctx, msg, src.Addr())
	for _, reply := range replies {
		if nil != reply.Verdict {
			self.record(ctx, *reply.Verdict)
		}
	}
	if nil != err && !(errors.Is(err, knock.ErrTrigger) && self.TolerateTriggerFailure) {
		return wrapError(err, "failed handling packet")
	}

	dst := net.UDPAddrFromAddrPort(src)
	for _, reply := range replies {
		_, werr := self.Conn.WriteTo(reply.Msg, dst)
		if nil != werr {
			log.Warn("failed sending reply", "error", werr)
		}
	}

	return err
}

// record saves verdict in Journal, failures are logged only.
func (self *Server) record(ctx context.Context, verdict knock.Verdict) {
	if nil == self.Journal {
		return
	}
	entry := journal.NewEntry(verdict.Addr, verdict.Accepted, time.Now())
	err := self.Journal.Record(ctx, entry)
	if nil != err {
		observability.Log(ctx).Error("failed recording verdict", "error", err)
	}
}

func addrPort(addr net.Addr) (netip.AddrPort, error) {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return netip.AddrPort{}, newError("unsupported address %v", addr)
	}
	return udpAddr.AddrPort(), nil
}
