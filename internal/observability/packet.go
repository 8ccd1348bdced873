package observability

import (
	"context"
	"net/netip"
	"time"

	"github.com/google/uuid"
)

// PacketHandler processes a datagram received from src.
type PacketHandler interface {
	ServePacket(ctx context.Context, msg []byte, src netip.AddrPort) error
}

// PacketHandlerFunc adapts a function to the PacketHandler interface.
type PacketHandlerFunc func(ctx context.Context, msg []byte, src netip.AddrPort) error

// ServePacket calls self.
func (self PacketHandlerFunc) ServePacket(ctx context.Context, msg []byte, src netip.AddrPort) error {
	return self(ctx, msg, src)
}

// Middleware adds a trace id and the packet source to the Logger of each processed packet.
type Middleware struct{}

// Wrap returns a PacketHandler that add Observability to ctx and call next.
func (self Middleware) Wrap(next PacketHandler) PacketHandler {
	return PacketHandlerFunc(func(ctx context.Context, msg []byte, src netip.AddrPort) error {
		t0 := time.Now()

		tId := uuid.New()
		log := Log(ctx).With("tId", tId.String(), "addr", src.Addr().Unmap().String())
		ctx = SetObservability(ctx, &Observability{Logger: log, TraceId: tId})
		err := next.ServePacket(ctx, msg, src)
		log.Debug(
			"processed packet",
			"size", len(msg),
			"port", src.Port(),
			"duration", time.Since(t0),
		)

		return err
	})
}
