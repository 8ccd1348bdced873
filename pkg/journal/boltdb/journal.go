// Package boltdb provides a persistent journal.Journal that keeps data in a file.
package boltdb

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/bouncerd/bouncer/pkg/journal"
)

const (
	connectTimeout = 5 * time.Second
	entryBucket    = "entryTbl"
)

// entries are serialized with nanosecond precision timestamps
var encMode = mustEncMode(cbor.EncOptions{Time: cbor.TimeRFC3339Nano})

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	em, err := opts.EncMode()
	if nil != err {
		panic(wrapError(err, "failed cbor EncMode creation"))
	}
	return em
}

type boltJournal struct {
	dbpath string
}

// New returns a Journal implementation that persists Entries in a single file boltdb database.
// It errors if the database schema can not be created.
func New(dbpath string) (journal.Journal, error) {
	jrn := boltJournal{dbpath: dbpath}

	db, err := jrn.open()
	if nil != err {
		return nil, err
	}
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(entryBucket))
		return wrapError(err, "failed %s bucket creation", entryBucket) // nil if err is nil
	})
	if nil != err {
		return nil, wrapError(err, "failed db initialization")
	}

	return jrn, nil
}

// Record saves entry in the boltJournal.
// Entries are keyed by insertion sequence.
func (self boltJournal) Record(ctx context.Context, entry journal.Entry) error {
	err := entry.Check()
	if nil != err {
		return wrapError(err, "entry is invalid")
	}

	srzentry, err := encMode.Marshal(entry)
	if nil != err {
		return wrapError(err, "failed cbor.Marshal(entry)")
	}

	if err = ctx.Err(); nil != err {
		return wrapError(err, "context done")
	}

	db, err := self.open()
	if nil != err {
		return err
	}
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		bkt, err := entryTbl(tx)
		if nil != err {
			return err
		}
		seq, err := bkt.NextSequence()
		if nil != err {
			return wrapError(err, "failed generating entry key")
		}
		err = bkt.Put(seqKey(seq), srzentry)
		return wrapError(err, "failed storing entry in bucket") // nil if err is nil
	})

	return wrapError(err, "failed saving entry") // nil if err is nil
}

// List returns at most limit Entries, newest first.
func (self boltJournal) List(ctx context.Context, limit int) ([]journal.Entry, error) {
	if err := ctx.Err(); nil != err {
		return nil, wrapError(err, "context done")
	}

	db, err := self.open()
	if nil != err {
		return nil, err
	}
	defer db.Close()

	var entries []journal.Entry
	err = db.View(func(tx *bolt.Tx) error {
		bkt, err := entryTbl(tx)
		if nil != err {
			return err
		}
		cursor := bkt.Cursor()
		for k, v := cursor.Last(); nil != k; k, v = cursor.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var entry journal.Entry
			err = cbor.Unmarshal(v, &entry)
			if nil != err {
				return wrapError(err, "failed cbor.Unmarshal entry #%d", binary.BigEndian.Uint64(k))
			}
			entries = append(entries, entry)
		}
		return nil
	})

	return entries, wrapError(err, "failed listing entries") // nil if err is nil
}

// Count returns the number of Entries in the boltJournal.
func (self boltJournal) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); nil != err {
		return 0, wrapError(err, "context done")
	}

	db, err := self.open()
	if nil != err {
		return 0, err
	}
	defer db.Close()

	var count int
	err = db.View(func(tx *bolt.Tx) error {
		bkt, err := entryTbl(tx)
		if nil != err {
			return err
		}
		count = bkt.Stats().KeyN
		return nil
	})

	return count, wrapError(err, "failed counting entries") // nil if err is nil
}

func (self boltJournal) open() (*bolt.DB, error) {
	db, err := bolt.Open(self.dbpath, 0600, &bolt.Options{Timeout: connectTimeout})
	if nil != err {
		return nil, wrapError(err, "failed connecting to database")
	}
	return db, nil
}

func entryTbl(tx *bolt.Tx) (*bolt.Bucket, error) {
	bkt := tx.Bucket([]byte(entryBucket))
	if nil == bkt {
		return nil, newError("missing %s bucket", entryBucket)
	}
	return bkt, nil
}

// seqKey returns big endian encoding of seq, so that keys sort in insertion order.
func seqKey(seq uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, seq)
}
