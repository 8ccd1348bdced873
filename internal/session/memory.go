package session

import (
	"crypto/rand"
	"io"
	"net/netip"
)

type slot struct {
	Session
	used bool
}

type bucket struct {
	anchor   int64
	anchored bool
	slots    []slot
}

func (self *bucket) clear() {
	clear(self.slots) // zeroes salts
	self.slots = self.slots[:0]
	self.anchor = 0
	self.anchored = false
}

// Store holds pending Sessions in NumBucket time buckets.
//
// Store is not safe for concurrent use, callers run EvictExpired, Find, Insert & Erase
// for a given packet inside a single critical section.
type Store struct {
	// Rand is the source of Session salts, crypto/rand Reader if nil.
	Rand    io.Reader
	buckets [NumBucket]bucket
}

// NewStore returns an empty Store that reads salts from rng.
func NewStore(rng io.Reader) *Store {
	return &Store{Rand: rng}
}

// EvictExpired clears the buckets whose anchor is more than 1 second older than now.
func (self *Store) EvictExpired(now int64) {
	for i := range self.buckets {
		b := &self.buckets[i]
		if b.anchored && now-b.anchor > maxAge {
			b.clear()
		}
	}
}

// Find returns a Ref to the first Session for addr, scanning bucket 0 then bucket 1.
// The bool flag is true if such Session exists.
func (self *Store) Find(addr netip.Addr) (Ref, bool) {
	for i := range self.buckets {
		for j, s := range self.buckets[i].slots {
			if s.used && s.Addr == addr {
				return Ref{Bucket: i, Index: j}, true
			}
		}
	}
	return Ref{}, false
}

// FindAll returns Refs to all Sessions for addr, in the same order as Find scans them.
func (self *Store) FindAll(addr netip.Addr) []Ref {
	var refs []Ref
	for i := range self.buckets {
		for j, s := range self.buckets[i].slots {
			if s.used && s.Addr == addr {
				refs = append(refs, Ref{Bucket: i, Index: j})
			}
		}
	}
	return refs
}

// Get returns the Session referenced by ref.
// The bool flag is false if ref does not reference a live Session.
func (self *Store) Get(ref Ref) (Session, bool) {
	s := self.lookup(ref)
	if nil == s || !s.used {
		return Session{}, false
	}
	return s.Session, true
}

// Insert registers a new Session for addr in the bucket selected by now parity.
// The bucket anchor is set to now only if the bucket was empty.
// It errors if a salt could not be read.
func (self *Store) Insert(addr netip.Addr, now int64) (Session, error) {
	var s slot

	rng := self.Rand
	if nil == rng {
		rng = rand.Reader
	}
	_, err := io.ReadFull(rng, s.Salt[:])
	if nil != err {
		return s.Session, wrapError(err, "failed generating session salt")
	}

	b := &self.buckets[bucketIndex(now)]
	if !b.anchored {
		b.anchor = now
		b.anchored = true
	}
	s.Addr = addr
	s.Anchor = b.anchor
	s.used = true
	b.slots = append(b.slots, s)

	return s.Session, nil
}

// Erase zeroes the Session referenced by ref.
// Other Refs in the Store stay valid.
func (self *Store) Erase(ref Ref) {
	s := self.lookup(ref)
	if nil != s {
		*s = slot{}
	}
}

// Len returns the number of live Sessions in the Store.
func (self *Store) Len() int {
	var n int
	for i := range self.buckets {
		for _, s := range self.buckets[i].slots {
			if s.used {
				n++
			}
		}
	}
	return n
}

// Anchor returns the anchor of bucket i.
// The bool flag is false if the bucket holds no anchor.
func (self *Store) Anchor(i int) (int64, bool) {
	if i < 0 || i >= NumBucket {
		return 0, false
	}
	b := &self.buckets[i]
	return b.anchor, b.anchored
}

func (self *Store) lookup(ref Ref) *slot {
	if ref.Bucket < 0 || ref.Bucket >= NumBucket {
		return nil
	}
	b := &self.buckets[ref.Bucket]
	if ref.Index < 0 || ref.Index >= len(b.slots) {
		return nil
	}
	return &b.slots[ref.Index]
}

func bucketIndex(now int64) int {
	i := int(now % NumBucket)
	if i < 0 {
		i += NumBucket
	}
	return i
}
