package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pricewatch/internal/components/assert"
	"pricewatch/internal/components/telemetry"
	"pricewatch/internal/product"
	"pricewatch/internal/snapshot"
	"pricewatch/pkg/htmlutil"

	"github.com/shopspring/decimal"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const (
	report_sql_load_snapshot = "sql.load-snapshot"
	report_sql_last_run      = "sql.last-run"
	report_sql_commit        = "sql.commit"
)

const Schema = `
create table if not exists price_snapshot (
	category text not null,
	name text not null,
	price text not null,
	primary key (category, name)
);

create table if not exists last_run (
	id integer primary key check (id = 1),
	completed_at text not null
);
`

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

func isRemote(path string) bool {
	return strings.HasPrefix(path, "libsql://") ||
		strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://")
}

// OpenDB opens a local sqlite database, or a remote libsql database when
// `path` is a libsql/http url, and ensures the schema exists.
func OpenDB(path string) (*sql.DB, error) {
	driver := "sqlite"
	if isRemote(path) {
		driver = "libsql"
	} else if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0755)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	if driver == "sqlite" {
		// sqlite only supports a single writer, serializing connections
		// avoids SQLITE_BUSY and keeps :memory: databases on one connection.
		db.SetMaxOpenConns(1)
		if path != ":memory:" {
			_, err = db.Exec("PRAGMA journal_mode=WAL")
			if err != nil {
				db.Close()
				return nil, wrapOpenDB(err)
			}
		}
	}

	_, err = db.Exec(Schema)
	if err != nil {
		db.Close()
		return nil, wrapOpenDB(err)
	}
	return db, nil
}

// SQLStore keeps the snapshot in a sqlite/libsql database, a commit is a
// single transaction.
type SQLStore struct {
	db  *sql.DB
	tel telemetry.API
}

func NewSQLStore(db *sql.DB, tel telemetry.API) SQLStore {
	assert.NotNil(db)
	assert.NotNil(tel)
	return SQLStore{db: db, tel: telemetry.NewScopedAPI("store", tel)}
}

func (s SQLStore) LoadSnapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	snap := snapshot.New()

	rows, err := s.db.QueryContext(ctx, "select category, name, price from price_snapshot")
	if err != nil {
		s.tel.ReportBroken(report_sql_load_snapshot, fmt.Errorf("%w: query: %w", ErrCorrupt, err))
		return snap, nil
	}
	defer rows.Close()

	for rows.Next() {
		var category, name, rawPrice string
		err := rows.Scan(&category, &name, &rawPrice)
		if err != nil {
			s.tel.ReportBroken(report_sql_load_snapshot, fmt.Errorf("%w: scan: %w", ErrCorrupt, err))
			return snapshot.New(), nil
		}
		amount, err := decimal.NewFromString(rawPrice)
		if err != nil {
			s.tel.ReportWarning(report_sql_load_snapshot, fmt.Errorf("parse price of %s_%s: %w", category, name, err))
			continue
		}
		snap.Upsert(product.Key{Category: category, Name: htmlutil.Canonical(name)}, amount)
	}
	if err := rows.Err(); err != nil {
		s.tel.ReportBroken(report_sql_load_snapshot, fmt.Errorf("%w: rows: %w", ErrCorrupt, err))
		return snapshot.New(), nil
	}

	return snap, nil
}

func (s SQLStore) LastRun(ctx context.Context) (time.Time, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "select completed_at from last_run where id = 1").Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		s.tel.ReportBroken(report_sql_last_run, err)
		return time.Time{}, false, err
	}

	completedAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		s.tel.ReportBroken(report_sql_last_run, fmt.Errorf("%w: %w", ErrCorrupt, err), raw)
		return time.Time{}, false, nil
	}
	return completedAt, true, nil
}

func (s SQLStore) Commit(ctx context.Context, snap *snapshot.Snapshot, completedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.tel.ReportBroken(report_sql_commit, fmt.Errorf("begin tx: %w", err))
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		insert into price_snapshot (category, name, price) values (?, ?, ?)
		on conflict (category, name) do update set price = excluded.price`)
	if err != nil {
		s.tel.ReportBroken(report_sql_commit, fmt.Errorf("prepare upsert: %w", err))
		return err
	}
	defer stmt.Close()

	for key, amount := range snap.Entries() {
		_, err = stmt.ExecContext(ctx, key.Category, key.Name.String(), amount.StringFixed(2))
		if err != nil {
			s.tel.ReportBroken(report_sql_commit, fmt.Errorf("upsert price: %w", err), key.String())
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		insert into last_run (id, completed_at) values (1, ?)
		on conflict (id) do update set completed_at = excluded.completed_at`,
		completedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		s.tel.ReportBroken(report_sql_commit, fmt.Errorf("set last run: %w", err))
		return err
	}

	err = tx.Commit()
	if err != nil {
		s.tel.ReportBroken(report_sql_commit, fmt.Errorf("commit: %w", err))
		return err
	}
	return nil
}

func (s SQLStore) Close() error {
	return s.db.Close()
}
