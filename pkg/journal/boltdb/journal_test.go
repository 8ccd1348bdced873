package boltdb

import (
	"errors"
	"net/netip"
	"path/filepath"
	"testing"
	"time"

	"github.com/bouncerd/bouncer/pkg/journal"
)

func TestNew(t *testing.T) {
	dbpath := filepath.Join(t.TempDir(), "journal.db")
	_, err := New(dbpath)
	if nil != err {
		t.Fatalf("failed New, got error %v", err)
	}

	// reopening existing db works
	_, err = New(dbpath)
	if nil != err {
		t.Fatalf("failed New on existing db, got error %v", err)
	}
}

func TestNewBadPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "journal.db"))
	if nil == err {
		t.Error("New did not fail on missing directory")
	}
}

func TestRecordList(t *testing.T) {
	ctx := t.Context()
	jrn := newJournal(t)

	addrs := []netip.Addr{
		netip.MustParseAddr("192.0.2.1"),
		netip.MustParseAddr("192.0.2.2"),
		netip.MustParseAddr("2001:db8::7"),
	}
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	var recorded []journal.Entry
	for i, addr := range addrs {
		entry := journal.NewEntry(addr, 1 == i, t0.Add(time.Duration(i)*time.Minute))
		err := jrn.Record(ctx, entry)
		if nil != err {
			t.Fatalf("failed Record #%d, got error %v", i, err)
		}
		recorded = append(recorded, entry)
	}

	count, err := jrn.Count(ctx)
	if nil != err || 3 != count {
		t.Fatalf("Count -> %d, %v", count, err)
	}

	entries, err := jrn.List(ctx, 0)
	if nil != err {
		t.Fatalf("failed List, got error %v", err)
	}
	if 3 != len(entries) {
		t.Fatalf("len(entries) -> %d != 3", len(entries))
	}
	for i, entry := range entries {
		expected := recorded[len(recorded)-1-i]
		if !sameEntry(entry, expected) {
			t.Errorf("#%d: loaded %+v != recorded %+v", i, entry, expected)
		}
	}

	entries, err = jrn.List(ctx, 1)
	if nil != err || 1 != len(entries) {
		t.Fatalf("List(1) -> %d entries, %v", len(entries), err)
	}
	if !sameEntry(entries[0], recorded[2]) {
		t.Error("List(1) did not return newest entry")
	}
}

func TestRecordInvalid(t *testing.T) {
	jrn := newJournal(t)
	err := jrn.Record(t.Context(), journal.Entry{})
	if !errors.Is(err, journal.ErrInvalidEntry) {
		t.Errorf("Record(invalid) -> %v", err)
	}
	count, _ := jrn.Count(t.Context())
	if 0 != count {
		t.Errorf("invalid entry was stored")
	}
}

func TestPersistence(t *testing.T) {
	dbpath := filepath.Join(t.TempDir(), "journal.db")
	jrn, err := New(dbpath)
	if nil != err {
		t.Fatalf("failed New, got error %v", err)
	}
	entry := journal.NewEntry(netip.MustParseAddr("198.51.100.9"), true, time.Now())
	err = jrn.Record(t.Context(), entry)
	if nil != err {
		t.Fatalf("failed Record, got error %v", err)
	}

	reopened, err := New(dbpath)
	if nil != err {
		t.Fatalf("failed reopening journal, got error %v", err)
	}
	entries, err := reopened.List(t.Context(), 0)
	if nil != err || 1 != len(entries) {
		t.Fatalf("List -> %d entries, %v", len(entries), err)
	}
	if !sameEntry(entries[0], entry) {
		t.Errorf("loaded %+v != recorded %+v", entries[0], entry)
	}
}

func newJournal(t *testing.T) journal.Journal {
	jrn, err := New(filepath.Join(t.TempDir(), "journal.db"))
	if nil != err {
		t.Fatalf("failed New, got error %v", err)
	}
	return jrn
}

func sameEntry(e1, e2 journal.Entry) bool {
	return e1.ID == e2.ID && e1.Addr == e2.Addr && e1.Accepted == e2.Accepted && e1.At.Equal(e2.At)
}
