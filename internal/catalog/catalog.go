// Package catalog persists point cloud sequence scans and resample runs in
// SQLite. The schema is managed by embedded golang-migrate migrations and is
// applied automatically when the catalog is opened.
package catalog

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"
)

type Catalog struct {
	*sql.DB
	path string
}

// NewCatalog opens (creating if necessary) the catalog database at path and
// brings its schema up to date.
func NewCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	c := &Catalog{DB: db, path: path}

	if err := c.applyPragmas(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := c.migrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate catalog schema: %w", err)
	}

	version, dirty, err := c.MigrateVersion()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		db.Close()
		return nil, fmt.Errorf("catalog schema is dirty at version %d", version)
	}
	log.Printf("[catalog] %s at schema version %d", path, version)

	return c, nil
}

// applyPragmas sets connection defaults for concurrent readers alongside a
// single writer.
func (c *Catalog) applyPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := c.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return nil
}
