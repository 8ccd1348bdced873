// Package observability carries the logging state of the packet being processed.
package observability

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type contextKey struct{}

// Observability is stored in the Context passed down the packet processing chain.
// nil *Observability are safe to use.
type Observability struct {
	Logger *slog.Logger

	// TraceId identifies the packet, uuid.Nil outside of Middleware.
	TraceId uuid.UUID
}

// Log returns inner Logger or slog.Default().
func (self *Observability) Log() *slog.Logger {
	if (nil == self) || (nil == self.Logger) {
		return slog.Default()
	}
	return self.Logger
}

// GetObservability returns ctx Observability.
func GetObservability(ctx context.Context) *Observability {
	rv, _ := ctx.Value(contextKey{}).(*Observability)
	return rv
}

// SetObservability returns new Context containing obs.
func SetObservability(ctx context.Context, obs *Observability) context.Context {
	return context.WithValue(ctx, contextKey{}, obs)
}

// Log returns the Logger of ctx.
func Log(ctx context.Context) *slog.Logger {
	return GetObservability(ctx).Log()
}

// TraceId returns the id of the packet processed under ctx.
func TraceId(ctx context.Context) uuid.UUID {
	obs := GetObservability(ctx)
	if nil == obs {
		return uuid.Nil
	}
	return obs.TraceId
}

// With returns new Context whose Logger adds args to ctx Logger records.
// The TraceId of ctx is kept.
func With(ctx context.Context, args ...any) context.Context {
	return SetObservability(ctx, &Observability{
		Logger:  Log(ctx).With(args...),
		TraceId: TraceId(ctx),
	})
}
