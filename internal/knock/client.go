package knock

import (
	"context"
	"crypto/rand"
	"io"

	"github.com/bouncerd/bouncer/internal/algos"
	"github.com/bouncerd/bouncer/internal/credentials"
	"github.com/bouncerd/bouncer/internal/transport"
)

// Client runs the client side of the exchange.
type Client struct {
	Digest algos.Digest

	// Rand fills the request packet, crypto/rand Reader if nil.
	Rand io.Reader
}

// Knock proves knowledge of password to the daemon reached through t.
// It returns true if the daemon accepted the response.
// It errors if password is empty, before any datagram is sent.
func (self Client) Knock(ctx context.Context, t transport.Transport, password []byte) (bool, error) {
	if 0 == len(password) {
		return false, wrapError(credentials.ErrEmptyPassword, "password is empty")
	}
	if nil == self.Digest {
		return false, newError("nil Digest")
	}

	// send request
	req := make([]byte, RequestSize)
	rng := self.Rand
	if nil == rng {
		rng = rand.Reader
	}
	_, err := io.ReadFull(rng, req)
	if nil != err {
		return false, wrapError(err, "failed generating request")
	}
	err = t.WriteBytes(req)
	if nil != err {
		return false, wrapError(err, "failed sending request")
	}

	// receive challenge
	if err = ctx.Err(); nil != err {
		return false, wrapError(err, "cancelled before challenge")
	}
	msg, err := t.ReadBytes()
	if nil != err {
		return false, wrapError(err, "failed receiving challenge")
	}
	chal := Challenge{}
	err = chal.UnmarshalBinary(msg)
	if nil != err {
		return false, wrapError(err, "invalid challenge")
	}

	// send response
	h1 := credentials.Derive(self.Digest, chal.PasswordSalt[:], password)
	resp := Response(self.Digest, chal.SessionSalt[:], h1)
	clear(h1[:])
	err = t.WriteBytes(resp[:])
	if nil != err {
		return false, wrapError(err, "failed sending response")
	}

	// receive result
	if err = ctx.Err(); nil != err {
		return false, wrapError(err, "cancelled before result")
	}
	msg, err = t.ReadBytes()
	if nil != err {
		return false, wrapError(err, "failed receiving result")
	}
	accepted, err := ReadResult(msg)

	return accepted, wrapError(err, "invalid result") // nil if err is nil
}
