// Package vai snapshots and inspects the SQLite file backing rancher's
// VAI informer cache, informer_object_cache.db, after it has been
// copied out of a pod. Snapshotting runs a single VACUUM INTO, which
// folds any write-ahead log into a fresh, consistent database file
// that can be queried offline.
package vai

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// CacheFile is the name of the cache database inside a rancher pod.
const CacheFile = "informer_object_cache.db"

// CachePath is where rancher keeps the cache inside its container.
const CachePath = "/var/lib/rancher/" + CacheFile

// Siblings returns the write-ahead log and shared-memory files that
// may accompany a live SQLite database. They are copied on a best
// effort basis so the vacuum sees pending writes.
func Siblings(path string) []string {
	return []string{path + "-wal", path + "-shm"}
}

// Vacuum snapshots src into dst using VACUUM INTO. It refuses to
// overwrite: dst must not exist, and must not name the same file as
// src.
func Vacuum(ctx context.Context, src string, dst string) error {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return err
	}
	if absSrc == absDst {
		return fmt.Errorf("source and destination are the same file: %s", absSrc)
	}
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("unable to read database %q: %w", src, err)
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("destination %q already exists", dst)
	}

	db, err := sql.Open("sqlite", src)
	if err != nil {
		return fmt.Errorf("unable to open database %q: %w", src, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
		return fmt.Errorf("vacuum of %q into %q failed: %w", src, dst, err)
	}
	return nil
}

// TableCount pairs a table name with its row count.
type TableCount struct {
	Name string
	Rows int
}

// Tables lists the tables of a snapshot with their row counts, sorted
// the way sqlite_master returns them.
func Tables(ctx context.Context, path string) ([]TableCount, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	var counts []TableCount
	for _, name := range names {
		var count int
		// table names cannot be bound as parameters; quoting the
		// identifier keeps names with dots intact
		query := fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, name)
		if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			return nil, fmt.Errorf("unable to count rows of %q: %w", name, err)
		}
		counts = append(counts, TableCount{Name: name, Rows: count})
	}
	return counts, nil
}

// ResultSet is the outcome of one query: column names plus the rows
// rendered as strings, NULLs as empty strings.
type ResultSet struct {
	Columns []string
	Rows    [][]string
}

// Query runs one read-only SQL statement against a snapshot.
func Query(ctx context.Context, path string, statement string) (*ResultSet, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	result := &ResultSet{Columns: columns}
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		scan := make([]interface{}, len(columns))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, err
		}
		row := make([]string, len(columns))
		for i, value := range values {
			row[i] = value.String
		}
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}

// open opens an existing database read-only. The immutable flag is not
// used so snapshots freshly written by Vacuum open without journal
// complaints.
func open(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("unable to read database %q: %w", path, err)
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("unable to open database %q: %w", path, err)
	}
	return db, nil
}
