// Package trigger grants access to authenticated client addresses.
package trigger

import (
	"bytes"
	"context"
	"net/netip"
	"os/exec"
	"time"

	"github.com/bouncerd/bouncer/internal/observability"
)

// DefaultPath is the whitelisting program run by the daemon.
const DefaultPath = "/etc/bouncer/whitelist"

// ExecTrigger runs an external program with the client address as sole argument.
type ExecTrigger struct {
	Path string

	// Timeout bounds the program run time, no limit if <= 0.
	Timeout time.Duration
}

// OnAuthenticated runs the program and waits for it to exit.
// It errors if the program could not be started or exited with a non zero status.
func (self ExecTrigger) OnAuthenticated(ctx context.Context, addr netip.Addr) error {
	if self.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, self.Timeout)
		defer cancel()
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, self.Path, addr.String())
	cmd.Stdout = &out
	cmd.Stderr = &out

	t0 := time.Now()
	err := cmd.Run()
	log := observability.Log(ctx)
	if nil != err {
		return wrapError(err, "failed running %s %s, output: %q", self.Path, addr, out.String())
	}
	log.Debug("whitelist program done", "path", self.Path, "duration", time.Since(t0), "output", out.String())

	return nil
}

// FuncTrigger adapts a function to the knock.Trigger interface.
type FuncTrigger func(ctx context.Context, addr netip.Addr) error

// OnAuthenticated calls self.
func (self FuncTrigger) OnAuthenticated(ctx context.Context, addr netip.Addr) error {
	return self(ctx, addr)
}
