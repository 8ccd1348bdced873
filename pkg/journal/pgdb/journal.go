// Package pgdb provides a journal.Journal that keeps data in a postgres database.
package pgdb

import (
	"context"
	_ "embed"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bouncerd/bouncer/pkg/journal"
)

// PGDB is implemented by pgx.Tx, pgx.Conn & pgxpool.Pool
// accessing a postgres database through this common interface simplifies testing
type PGDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Journal struct {
	DB PGDB
}

//go:embed journal_schema.sql
var schemaScriptTpl string

// Migrate creates the verdict table in dbschema.
func Migrate(ctx context.Context, conn *pgx.Conn, dbschema string) error {
	schemaName := pgx.Identifier{dbschema}.Sanitize()
	schemaScript := strings.ReplaceAll(schemaScriptTpl, "${schema_name}", schemaName)

	_, err := conn.Exec(ctx, schemaScript)

	return wrapError(err, "failed db schema initialization") // nil if err is nil...
}

// New returns a Journal connected to the dsn database.
func New(ctx context.Context, dsn string) (*Journal, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if nil != err {
		return nil, wrapError(err, "failed connection pool creation")
	}

	return &Journal{DB: pool}, nil
}

// Record saves entry in the Journal.
// It errors if entry is invalid or could not be saved.
func (self *Journal) Record(ctx context.Context, entry journal.Entry) error {
	err := entry.Check()
	if nil != err {
		return wrapError(err, "entry is invalid")
	}

	_, err = self.DB.Exec(
		ctx,
		`INSERT INTO verdict(id, addr, accepted, at) VALUES ($1, $2, $3, $4)`,
		entry.ID,
		entry.Addr.String(),
		entry.Accepted,
		entry.At,
	)

	return wrapError(err, "failed saving entry") // nil if err is nil...
}

// entryRow holds a verdict row, addr is kept in text form
type entryRow struct {
	ID       uuid.UUID
	Addr     string
	Accepted bool
	At       time.Time
}

// List returns at most limit Entries, newest first.
// It errors if the Journal is not reachable.
func (self *Journal) List(ctx context.Context, limit int) ([]journal.Entry, error) {
	var rowLimit any // NULL disables LIMIT
	if limit > 0 {
		rowLimit = limit
	}
	rows, err := self.DB.Query(
		ctx,
		// columns are renamed to match entryRow struct
		`SELECT
		   id as "ID",
		   addr as "Addr",
		   accepted as "Accepted",
		   at as "At"
		 FROM
		   verdict
		 ORDER BY
		   seq DESC
		 LIMIT $1
		`,
		rowLimit,
	)
	if nil != err {
		return nil, wrapError(err, "failed DB.Query")
	}
	erows, err := pgx.CollectRows(rows, pgx.RowToStructByName[entryRow])
	if nil != err {
		return nil, wrapError(err, "failed pgx.CollectRows")
	}

	entries := make([]journal.Entry, 0, len(erows))
	for _, row := range erows {
		addr, err := netip.ParseAddr(row.Addr)
		if nil != err {
			return nil, wrapError(err, "invalid addr for entry %s", row.ID)
		}
		entries = append(entries, journal.Entry{
			ID:       row.ID,
			Addr:     addr,
			Accepted: row.Accepted,
			At:       row.At,
		})
	}

	return entries, nil
}

// Count returns the number of Entries in the Journal.
// It errors if the Journal is not reachable.
func (self *Journal) Count(ctx context.Context) (int, error) {
	var count int
	err := self.DB.QueryRow(ctx, `SELECT count(*) FROM verdict`).Scan(&count)
	if nil != err {
		return 0, wrapError(err, "failed counting entries")
	}
	return count, nil
}

var _ journal.Journal = &Journal{}
