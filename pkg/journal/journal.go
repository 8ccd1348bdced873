// Package journal keeps a record of the response verifications done by the daemon.
package journal

import (
	"context"
	"net/netip"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Journal stores verification Entries.
type Journal interface {
	// Record saves entry in the Journal.
	// It errors if entry is invalid or could not be saved.
	Record(ctx context.Context, entry Entry) error

	// List returns at most limit Entries, newest first.
	// All Entries are returned if limit <= 0.
	List(ctx context.Context, limit int) ([]Entry, error)

	// Count returns the number of Entries in the Journal.
	Count(ctx context.Context) (int, error)
}

// Entry records the outcome of one response verification.
type Entry struct {
	ID       uuid.UUID  `json:"id" cbor:"1,keyasint"`
	Addr     netip.Addr `json:"addr" cbor:"2,keyasint"`
	Accepted bool       `json:"accepted" cbor:"3,keyasint"`
	At       time.Time  `json:"at" cbor:"4,keyasint"`
}

// NewEntry returns an Entry with a fresh ID.
func NewEntry(addr netip.Addr, accepted bool, at time.Time) Entry {
	return Entry{ID: uuid.New(), Addr: addr, Accepted: accepted, At: at}
}

// Check returns an error if the Entry is invalid.
func (self Entry) Check() error {
	if uuid.Nil == self.ID {
		return flagError(ErrInvalidEntry, "nil ID")
	}
	if !self.Addr.IsValid() {
		return flagError(ErrInvalidEntry, "invalid Addr")
	}
	if self.At.IsZero() {
		return flagError(ErrInvalidEntry, "zero At")
	}
	return nil
}

// MemJournal provides "in memory" implementation of Journal.
type MemJournal struct {
	mut     sync.Mutex
	entries []Entry
}

func NewMemJournal() *MemJournal {
	return &MemJournal{}
}

// Record saves entry in the MemJournal.
func (self *MemJournal) Record(_ context.Context, entry Entry) error {
	err := entry.Check()
	if nil != err {
		return wrapError(err, "entry is invalid")
	}

	self.mut.Lock()
	defer self.mut.Unlock()
	self.entries = append(self.entries, entry)

	return nil
}

// List returns at most limit Entries, newest first.
func (self *MemJournal) List(_ context.Context, limit int) ([]Entry, error) {
	self.mut.Lock()
	defer self.mut.Unlock()

	rv := slices.Clone(self.entries)
	slices.Reverse(rv)
	if limit > 0 && len(rv) > limit {
		rv = rv[:limit]
	}
	return rv, nil
}

// Count returns the number of Entries in the MemJournal.
func (self *MemJournal) Count(_ context.Context) (int, error) {
	self.mut.Lock()
	defer self.mut.Unlock()
	return len(self.entries), nil
}

var _ Journal = &MemJournal{}
