package cmdutil

import (
	"context"

	"github.com/bouncerd/bouncer/pkg/journal"
	"github.com/bouncerd/bouncer/pkg/journal/boltdb"
	"github.com/bouncerd/bouncer/pkg/journal/pgdb"
)

// OpenJournal returns the bbolt Journal at path or the postgres Journal at dsn.
// It returns a nil Journal if both path and dsn are empty, and errors if both are set.
func OpenJournal(ctx context.Context, path string, dsn string) (journal.Journal, error) {
	switch {
	case "" != path && "" != dsn:
		return nil, newError("journal path and dsn are mutually exclusive")
	case "" != path:
		jrn, err := boltdb.New(path)
		return jrn, wrapError(err, "failed opening journal %s", path) // nil if err is nil
	case "" != dsn:
		jrn, err := pgdb.New(ctx, dsn)
		if nil != err {
			return nil, wrapError(err, "failed opening postgres journal")
		}
		return jrn, nil
	}
	return nil, nil
}
