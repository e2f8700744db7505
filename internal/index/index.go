// Package index records scan results in a SQLite database.
//
// Build modes:
//   - Default (CGO_ENABLED=0): pure Go modernc.org/sqlite
//   - CGO mode (CGO_ENABLED=1 -tags cgo_sqlite): mattn/go-sqlite3
//
// Each scanned file has one row in files; each hidden item found in it has
// one row in items. Re-recording a path replaces its previous rows.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mitsimi/veil/core/errors"
	"github.com/mitsimi/veil/core/stego"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	path       TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	scanned_at TEXT NOT NULL,
	size       INTEGER NOT NULL,
	item_count INTEGER NOT NULL,
	error      TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS items (
	path   TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	seq    INTEGER NOT NULL,
	tag    TEXT NOT NULL,
	kind   TEXT NOT NULL,
	size   INTEGER NOT NULL,
	blake3 TEXT NOT NULL,
	PRIMARY KEY (path, seq)
);
CREATE INDEX IF NOT EXISTS items_blake3 ON items(blake3);
`

// DriverName returns the database/sql driver name in use.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3, "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// FileRecord is the stored outcome of scanning one file.
type FileRecord struct {
	Path      string    `json:"path"`
	RunID     string    `json:"run_id"`
	ScannedAt time.Time `json:"scanned_at"`
	Size      int64     `json:"size"`
	ItemCount int       `json:"item_count"`
	Error     string    `json:"error,omitempty"`
}

// Index is a handle on a scan database. It is safe for concurrent use.
type Index struct {
	db *sql.DB
}

// Open opens or creates the index database at path.
func Open(ctx context.Context, path string) (*Index, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.NewIO("open index", path, err)
	}
	// SQLite allows one writer; serialize in the pool instead of retrying on SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.NewIO("configure index", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.NewIO("create index schema", path, err)
	}
	return &Index{db: db}, nil
}

// Close closes the database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Record stores the scan result for one file, replacing any earlier result
// for the same path. A non-nil scanErr is stored as the file's error text.
func (ix *Index) Record(ctx context.Context, rec FileRecord, items []stego.HiddenItem, scanErr error) (err error) {
	if rec.ScannedAt.IsZero() {
		rec.ScannedAt = time.Now()
	}
	rec.ItemCount = len(items)
	if scanErr != nil {
		rec.Error = scanErr.Error()
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM items WHERE path = ?`, rec.Path); err != nil {
		return fmt.Errorf("clear items for %s: %w", rec.Path, err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO files (path, run_id, scanned_at, size, item_count, error) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Path, rec.RunID, rec.ScannedAt.UTC().Format(time.RFC3339), rec.Size, rec.ItemCount, rec.Error,
	); err != nil {
		return fmt.Errorf("record file %s: %w", rec.Path, err)
	}

	for i, item := range items {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO items (path, seq, tag, kind, size, blake3) VALUES (?, ?, ?, ?, ?, ?)`,
			rec.Path, i, item.Tag, item.Kind.String(), item.Size, item.Digest,
		); err != nil {
			return fmt.Errorf("record item %d of %s: %w", i, rec.Path, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// File returns the stored record for path.
func (ix *Index) File(ctx context.Context, path string) (FileRecord, error) {
	row := ix.db.QueryRowContext(ctx,
		`SELECT path, run_id, scanned_at, size, item_count, error FROM files WHERE path = ?`, path)
	rec, err := scanFile(row)
	if err == sql.ErrNoRows {
		return FileRecord{}, errors.NewNotFound("indexed file", path)
	}
	return rec, err
}

// Files returns every stored file record ordered by path.
func (ix *Index) Files(ctx context.Context) ([]FileRecord, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT path, run_id, scanned_at, size, item_count, error FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Items returns the hidden items stored for path, in file order.
func (ix *Index) Items(ctx context.Context, path string) ([]stego.HiddenItem, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT tag, kind, size, blake3 FROM items WHERE path = ? ORDER BY seq`, path)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []stego.HiddenItem{}
	for rows.Next() {
		var item stego.HiddenItem
		var kind string
		if err := rows.Scan(&item.Tag, &kind, &item.Size, &item.Digest); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if err := item.Kind.UnmarshalText([]byte(kind)); err != nil {
			return nil, fmt.Errorf("item %s of %s: %w", item.Tag, path, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// FilesWithDigest returns the paths of files carrying a payload with the
// given BLAKE3 digest.
func (ix *Index) FilesWithDigest(ctx context.Context, digest string) ([]string, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT DISTINCT path FROM items WHERE blake3 = ? ORDER BY path`, digest)
	if err != nil {
		return nil, fmt.Errorf("query digest: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (FileRecord, error) {
	var rec FileRecord
	var scannedAt string
	if err := row.Scan(&rec.Path, &rec.RunID, &scannedAt, &rec.Size, &rec.ItemCount, &rec.Error); err != nil {
		if err == sql.ErrNoRows {
			return rec, err
		}
		return rec, fmt.Errorf("scan file row: %w", err)
	}
	t, err := time.Parse(time.RFC3339, scannedAt)
	if err != nil {
		return rec, &errors.ParseError{Format: "timestamp", Offset: 0, Err: err}
	}
	rec.ScannedAt = t
	return rec, nil
}
