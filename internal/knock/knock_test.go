package knock

import (
	"bytes"
	"context"
	"net/netip"
	"sync"
	"testing"

	"github.com/bouncerd/bouncer/internal/algos"
	"github.com/bouncerd/bouncer/internal/credentials"
	"github.com/bouncerd/bouncer/internal/observability"
	"github.com/bouncerd/bouncer/internal/session"
)

var (
	clientAddr = netip.MustParseAddr("192.0.2.10")
	otherAddr  = netip.MustParseAddr("192.0.2.20")
)

// recTrigger records OnAuthenticated calls.
type recTrigger struct {
	mut   sync.Mutex
	addrs []netip.Addr
	err   error
}

func (self *recTrigger) OnAuthenticated(_ context.Context, addr netip.Addr) error {
	self.mut.Lock()
	defer self.mut.Unlock()
	self.addrs = append(self.addrs, addr)
	return self.err
}

func (self *recTrigger) calls() []netip.Addr {
	self.mut.Lock()
	defer self.mut.Unlock()
	return append([]netip.Addr(nil), self.addrs...)
}

// fakeClock is a settable session.Timed.
type fakeClock struct {
	mut sync.Mutex
	now int64
}

func (self *fakeClock) T() int64 {
	self.mut.Lock()
	defer self.mut.Unlock()
	return self.now
}

func (self *fakeClock) Set(now int64) {
	self.mut.Lock()
	defer self.mut.Unlock()
	self.now = now
}

type fixture struct {
	digest  algos.Digest
	cred    credentials.Record
	trigger *recTrigger
	clock   *fakeClock
	engine  *Engine
}

func newFixture(t *testing.T, password string) *fixture {
	digest, err := algos.GetDigest(algos.DefaultDigest)
	if nil != err {
		t.Fatalf("failed GetDigest, got error %v", err)
	}
	cred, err := credentials.New([]byte(password), digest, nil)
	if nil != err {
		t.Fatalf("failed credentials.New, got error %v", err)
	}
	trigger := &recTrigger{}
	engine, err := NewEngine(cred, digest, trigger)
	if nil != err {
		t.Fatalf("failed NewEngine, got error %v", err)
	}
	clock := &fakeClock{now: 1_000_000}
	engine.Clock = clock

	return &fixture{digest: digest, cred: cred, trigger: trigger, clock: clock, engine: engine}
}

// handle sends msg from src and returns the single reply.
func (self *fixture) handle(t *testing.T, msg []byte, src netip.Addr) Reply {
	t.Helper()
	replies, err := self.engine.Handle(observability.TestContext(t), msg, src)
	if nil != err {
		t.Fatalf("failed engine.Handle, got error %v", err)
	}
	if 1 != len(replies) {
		t.Fatalf("got %d replies, expected 1", len(replies))
	}
	return replies[0]
}

// respond derives the client response to chal for password.
func (self *fixture) respond(t *testing.T, chal []byte, password string) []byte {
	t.Helper()
	c := Challenge{}
	err := c.UnmarshalBinary(chal)
	if nil != err {
		t.Fatalf("failed Challenge.UnmarshalBinary, got error %v", err)
	}
	h1 := credentials.Derive(self.digest, c.PasswordSalt[:], []byte(password))
	resp := Response(self.digest, c.SessionSalt[:], h1)
	return resp[:]
}

func isChallenge(reply Reply) bool {
	return ChallengeSize == len(reply.Msg) && nil == reply.Verdict
}

func isResult(reply Reply, accepted bool) bool {
	return bytes.Equal(ResultMsg(accepted), reply.Msg) && nil != reply.Verdict && accepted == reply.Verdict.Accepted
}

var _ session.Timed = &fakeClock{}
