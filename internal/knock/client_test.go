package knock

import (
	"bytes"
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/bouncerd/bouncer/internal/credentials"
	"github.com/bouncerd/bouncer/internal/observability"
	"github.com/bouncerd/bouncer/internal/transport"
)

// engineTransport delivers written datagrams to an Engine and queues its replies.
type engineTransport struct {
	ctx     context.Context
	engine  *Engine
	src     netip.Addr
	sent    [][]byte
	pending [][]byte
}

func (self *engineTransport) WriteBytes(data []byte) error {
	self.sent = append(self.sent, bytes.Clone(data))
	replies, err := self.engine.Handle(self.ctx, data, self.src)
	for _, reply := range replies {
		self.pending = append(self.pending, reply.Msg)
	}
	return err
}

func (self *engineTransport) ReadBytes() ([]byte, error) {
	if 0 == len(self.pending) {
		return nil, errors.New("no pending datagram")
	}
	rv := self.pending[0]
	self.pending = self.pending[1:]
	return rv, nil
}

var _ transport.Transport = &engineTransport{}

func newEngineTransport(t *testing.T, f *fixture) *engineTransport {
	return &engineTransport{ctx: observability.TestContext(t), engine: f.engine, src: clientAddr}
}

func TestClientKnockSuccess(t *testing.T) {
	f := newFixture(t, "swordfish")
	tr := newEngineTransport(t, f)
	cli := Client{Digest: f.digest}

	accepted, err := cli.Knock(t.Context(), tr, []byte("swordfish"))
	if nil != err {
		t.Fatalf("failed Knock, got error %v", err)
	}
	if !accepted {
		t.Error("correct password rejected")
	}
	calls := f.trigger.calls()
	if 1 != len(calls) || calls[0] != clientAddr {
		t.Errorf("Trigger calls -> %v", calls)
	}
	if 2 != len(tr.sent) || RequestSize != len(tr.sent[0]) || ResponseSize != len(tr.sent[1]) {
		t.Errorf("unexpected sent datagrams %v", tr.sent)
	}
	// neither the password nor its hash are sent
	for _, data := range tr.sent {
		if bytes.Contains(data, []byte("swordfish")) || bytes.Equal(data, f.cred.Hash[:]) {
			t.Error("client leaked password material")
		}
	}
}

func TestClientKnockFailure(t *testing.T) {
	f := newFixture(t, "swordfish")
	tr := newEngineTransport(t, f)
	cli := Client{Digest: f.digest}

	accepted, err := cli.Knock(t.Context(), tr, []byte("wrong"))
	if nil != err {
		t.Fatalf("failed Knock, got error %v", err)
	}
	if accepted {
		t.Error("wrong password accepted")
	}
	if 0 != len(f.trigger.calls()) {
		t.Error("Trigger called on wrong password")
	}

	// the session is gone, resending the last response yields a new challenge
	err = tr.WriteBytes(tr.sent[1])
	if nil != err {
		t.Fatalf("failed WriteBytes, got error %v", err)
	}
	msg, _ := tr.ReadBytes()
	if ChallengeSize != len(msg) {
		t.Errorf("replayed response answered with %d bytes", len(msg))
	}
}

func TestClientPasswordHashMatchesRecord(t *testing.T) {
	f := newFixture(t, "swordfish")
	tr := newEngineTransport(t, f)

	err := tr.WriteBytes(make([]byte, RequestSize))
	if nil != err {
		t.Fatalf("failed WriteBytes, got error %v", err)
	}
	msg, _ := tr.ReadBytes()
	chal := Challenge{}
	if err = chal.UnmarshalBinary(msg); nil != err {
		t.Fatalf("failed UnmarshalBinary, got error %v", err)
	}
	h1 := credentials.Derive(f.digest, chal.PasswordSalt[:], []byte("swordfish"))
	if h1 != f.cred.Hash {
		t.Error("client H1 differs from stored password hash")
	}
}

func TestClientEmptyPassword(t *testing.T) {
	f := newFixture(t, "swordfish")
	lt := transport.NewLimitTransport(newEngineTransport(t, f))
	lt.SetWriteLimit(0)
	lt.SetReadLimit(0)

	_, err := Client{Digest: f.digest}.Knock(t.Context(), lt, nil)
	if !errors.Is(err, credentials.ErrEmptyPassword) {
		t.Errorf("Knock(empty) -> %v", err)
	}
}

func TestClientTransportFailures(t *testing.T) {
	testcases := []struct {
		rlimit, wlimit int
		flag           error
	}{
		{rlimit: -1, wlimit: 0, flag: transport.WriteLimitError},
		{rlimit: 0, wlimit: -1, flag: transport.ReadLimitError},
		{rlimit: -1, wlimit: 1, flag: transport.WriteLimitError},
		{rlimit: 1, wlimit: -1, flag: transport.ReadLimitError},
	}
	for i, tc := range testcases {
		f := newFixture(t, "swordfish")
		cli := Client{Digest: f.digest}
		lt := transport.NewLimitTransport(newEngineTransport(t, f))
		lt.SetReadLimit(tc.rlimit)
		lt.SetWriteLimit(tc.wlimit)
		_, err := cli.Knock(t.Context(), lt, []byte("swordfish"))
		if !errors.Is(err, tc.flag) {
			t.Errorf("#%d: expected %v, got %v", i, tc.flag, err)
		}
	}
}

// staticTransport replies with canned datagrams.
type staticTransport struct {
	replies [][]byte
}

func (self *staticTransport) WriteBytes([]byte) error { return nil }

func (self *staticTransport) ReadBytes() ([]byte, error) {
	if 0 == len(self.replies) {
		return nil, errors.New("no reply")
	}
	rv := self.replies[0]
	self.replies = self.replies[1:]
	return rv, nil
}

func TestClientMalformedReplies(t *testing.T) {
	f := newFixture(t, "swordfish")
	cli := Client{Digest: f.digest}

	// stale session answered the request with a Result
	_, err := cli.Knock(t.Context(), &staticTransport{replies: [][]byte{ResultMsg(false)}}, []byte("swordfish"))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("short challenge -> %v", err)
	}

	_, err = cli.Knock(
		t.Context(),
		&staticTransport{replies: [][]byte{make([]byte, ChallengeSize), make([]byte, ChallengeSize)}},
		[]byte("swordfish"),
	)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("long result -> %v", err)
	}
}

func TestClientCancelled(t *testing.T) {
	f := newFixture(t, "swordfish")
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := Client{Digest: f.digest}.Knock(ctx, newEngineTransport(t, f), []byte("swordfish"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Knock -> %v", err)
	}
}
