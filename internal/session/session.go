// Package session tracks pending challenges for a bounded time.
//
// Sessions are kept in two buckets selected by the parity of the current second.
// A bucket keeps the time of the first session inserted while it was empty,
// and it is cleared as a whole once that anchor is more than 1 second in the past.
// A session created at second T is thus retrievable at T and T+1 and gone at T+2.
package session

import (
	"net/netip"

	"github.com/bouncerd/bouncer/internal/algos"
)

const (
	// NumBucket is the number of buckets in a Store.
	NumBucket = 2

	// SaltSize is the size of a Session salt.
	SaltSize = algos.DigestSize

	// maxAge is how many seconds a bucket anchor may lag behind the current time.
	maxAge = 1
)

// Session is a pending challenge.
type Session struct {
	Addr   netip.Addr
	Salt   [SaltSize]byte
	Anchor int64 // anchor of the bucket that holds the Session
}

// Ref locates a Session inside a Store.
type Ref struct {
	Bucket int
	Index  int
}
