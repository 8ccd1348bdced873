// Package knock implements the challenge-response exchange that unlocks a client address.
//
//	client -> daemon  request   20 bytes, content ignored
//	daemon -> client  challenge 40 bytes, [session salt][password salt]
//	client -> daemon  response  20 bytes, Digest(session salt ++ Digest(password salt ++ password))
//	daemon -> client  result    20 bytes, all 0x00 on success, all 0xFF on failure
package knock

import (
	"context"
	"crypto/subtle"
	"net/netip"
	"sync"

	"github.com/bouncerd/bouncer/internal/algos"
	"github.com/bouncerd/bouncer/internal/credentials"
	"github.com/bouncerd/bouncer/internal/observability"
	"github.com/bouncerd/bouncer/internal/session"
)

// Trigger is notified when a client address authenticates.
type Trigger interface {
	// OnAuthenticated blocks until the action for addr completes.
	// It errors if the action failed.
	OnAuthenticated(ctx context.Context, addr netip.Addr) error
}

// Verdict is the outcome of a response verification.
type Verdict struct {
	Addr     netip.Addr
	Accepted bool
}

// Reply is a packet the daemon sends back to the packet source.
type Reply struct {
	Msg     []byte
	Verdict *Verdict // nil for a Challenge
}

// Engine runs the daemon side of the exchange, one packet at a time.
// Engine is safe for concurrent use.
type Engine struct {
	Cred    credentials.Record
	Digest  algos.Digest
	Store   *session.Store
	Clock   session.Timed
	Trigger Trigger

	// MultiMatch makes a packet be verified against every Session of its source address,
	// instead of the first one only.
	MultiMatch bool

	mut sync.Mutex
}

// NewEngine returns an Engine with an empty session Store that uses the wall clock.
// It errors if digest or trigger is nil.
func NewEngine(cred credentials.Record, digest algos.Digest, trigger Trigger) (*Engine, error) {
	if nil == digest {
		return nil, newError("nil Digest")
	}
	if nil == trigger {
		return nil, newError("nil Trigger")
	}

	return &Engine{
		Cred:    cred,
		Digest:  digest,
		Store:   session.NewStore(nil),
		Clock:   session.Clock{},
		Trigger: trigger,
	}, nil
}

// Handle processes msg received from src and returns the replies to send to src.
//
// Packets whose size is not RequestSize are dropped, Handle returns no reply and no error.
// A packet from an address with a pending Session is verified as a response, the Session is
// erased whatever the outcome. Otherwise a new Session is created and a Challenge returned.
//
// Handle errors if no salt could be generated, or with an error wrapping ErrTrigger
// if the Trigger failed. In this last case the returned replies report a failure.
func (self *Engine) Handle(ctx context.Context, msg []byte, src netip.Addr) ([]Reply, error) {
	log := observability.Log(ctx)
	if len(msg) != RequestSize {
		log.Debug("dropped malformed datagram", "size", len(msg))
		return nil, nil
	}
	src = src.Unmap()

	verdicts, challenge, err := self.update(msg, src)
	if nil != err {
		return nil, wrapError(err, "failed session update")
	}

	if nil != challenge {
		log.Info("sending new challenge")
		srzchal, _ := challenge.MarshalBinary()
		return []Reply{{Msg: srzchal}}, nil
	}

	var triggerErr error
	replies := make([]Reply, 0, len(verdicts))
	for _, verdict := range verdicts {
		if verdict.Accepted {
			log.Info("received correct response")
			err = self.Trigger.OnAuthenticated(ctx, src)
			if nil != err {
				verdict.Accepted = false
				if nil == triggerErr {
					triggerErr = wrapFlagError(err, ErrTrigger, "failed whitelisting %s", src)
				}
			}
		} else {
			log.Warn("received incorrect response")
		}
		replies = append(replies, Reply{Msg: ResultMsg(verdict.Accepted), Verdict: verdict})
	}

	return replies, triggerErr
}

// update runs eviction, lookup and insertion/erasure for one packet in a single critical section.
func (self *Engine) update(msg []byte, src netip.Addr) ([]*Verdict, *Challenge, error) {
	self.mut.Lock()
	defer self.mut.Unlock()

	now := self.Clock.T()
	self.Store.EvictExpired(now)

	var refs []session.Ref
	if self.MultiMatch {
		refs = self.Store.FindAll(src)
	} else if ref, found := self.Store.Find(src); found {
		refs = []session.Ref{ref}
	}

	if 0 == len(refs) {
		s, err := self.Store.Insert(src, now)
		if nil != err {
			return nil, nil, err
		}
		return nil, &Challenge{SessionSalt: s.Salt, PasswordSalt: self.Cred.Salt}, nil
	}

	verdicts := make([]*Verdict, 0, len(refs))
	for _, ref := range refs {
		s, found := self.Store.Get(ref)
		if !found {
			continue
		}
		expected := Response(self.Digest, s.Salt[:], self.Cred.Hash)
		accepted := 1 == subtle.ConstantTimeCompare(expected[:], msg)
		self.Store.Erase(ref)
		verdicts = append(verdicts, &Verdict{Addr: src, Accepted: accepted})
	}

	return verdicts, nil, nil
}
