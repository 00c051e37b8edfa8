// Package store persists option catalogues and the last selection of each
// field in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Dicklesworthstone/vselect/pkg/model"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open
const (
	DriverCgo    = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPureGo = "sqlite"  // modernc.org/sqlite
)

// ErrNotFound is returned when a field has no stored selection
var ErrNotFound = errors.New("not found")

// Selection is the last value(s) chosen for a field
type Selection struct {
	FieldID   string
	Values    []string
	UpdatedAt time.Time
}

// DB handles catalogue and selection persistence
type DB struct {
	db     *sql.DB
	driver string
}

// Open opens or creates the database at dbPath with the named driver.
// An empty driver selects the cgo driver.
func Open(dbPath, driver string) (*DB, error) {
	if driver == "" {
		driver = DriverCgo
	}
	if driver != DriverCgo && driver != DriverPureGo {
		return nil, fmt.Errorf("unknown sqlite driver %q", driver)
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite allows one writer; a single connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	sdb := &DB{db: db, driver: driver}
	if err := sdb.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return sdb, nil
}

// Driver returns the driver the database was opened with
func (d *DB) Driver() string {
	return d.driver
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS options (
		catalogue TEXT NOT NULL,
		position INTEGER NOT NULL,
		value TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		record TEXT NOT NULL DEFAULT '{}',
		PRIMARY KEY (catalogue, position)
	);

	CREATE INDEX IF NOT EXISTS idx_options_value ON options(catalogue, value);

	CREATE TABLE IF NOT EXISTS selections (
		field_id TEXT PRIMARY KEY,
		vals TEXT NOT NULL,
		updated_at INTEGER NOT NULL -- unix millis
	);
	`

	_, err := d.db.Exec(schema)
	return err
}

// SaveCatalogue replaces the named catalogue with opts, keeping source order
func (d *DB) SaveCatalogue(ctx context.Context, name string, opts model.Options) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM options WHERE catalogue = ?`, name); err != nil {
		return fmt.Errorf("clear catalogue %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO options (catalogue, position, value, label, record)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, o := range opts {
		record := []byte("{}")
		if o.Record != nil {
			if record, err = json.Marshal(o.Record); err != nil {
				return fmt.Errorf("encode record %s: %w", o.Value, err)
			}
		}
		if _, err := stmt.ExecContext(ctx, name, i, o.Value, o.Label, string(record)); err != nil {
			return fmt.Errorf("insert option %s: %w", o.Value, err)
		}
	}
	return tx.Commit()
}

// LoadCatalogue returns the named catalogue in source order
func (d *DB) LoadCatalogue(ctx context.Context, name string) (model.Options, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT value, label, record
		FROM options
		WHERE catalogue = ?
		ORDER BY position
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opts model.Options
	for rows.Next() {
		var o model.Option
		var record string
		if err := rows.Scan(&o.Value, &o.Label, &record); err != nil {
			return nil, err
		}
		if record != "" && record != "{}" {
			if err := json.Unmarshal([]byte(record), &o.Record); err != nil {
				return nil, fmt.Errorf("decode record %s: %w", o.Value, err)
			}
		}
		opts = append(opts, o)
	}
	return opts, rows.Err()
}

// Catalogues lists stored catalogue names
func (d *DB) Catalogues(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT DISTINCT catalogue FROM options ORDER BY catalogue`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// SaveSelection records the current value(s) of a field. An empty values
// slice clears the stored selection.
func (d *DB) SaveSelection(ctx context.Context, fieldID string, values []string) error {
	if len(values) == 0 {
		_, err := d.db.ExecContext(ctx, `DELETE FROM selections WHERE field_id = ?`, fieldID)
		return err
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx, `
		INSERT INTO selections (field_id, vals, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(field_id) DO UPDATE SET vals = excluded.vals, updated_at = excluded.updated_at
	`, fieldID, string(encoded), time.Now().UnixMilli())
	return err
}

// LoadSelection returns the stored selection for fieldID or ErrNotFound
func (d *DB) LoadSelection(ctx context.Context, fieldID string) (*Selection, error) {
	var encoded string
	var updatedMillis int64
	err := d.db.QueryRowContext(ctx, `
		SELECT vals, updated_at FROM selections WHERE field_id = ?
	`, fieldID).Scan(&encoded, &updatedMillis)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sel := &Selection{FieldID: fieldID, UpdatedAt: time.UnixMilli(updatedMillis)}
	if err := json.Unmarshal([]byte(encoded), &sel.Values); err != nil {
		return nil, fmt.Errorf("decode selection %s: %w", fieldID, err)
	}
	return sel, nil
}
