package catalog

import (
	"fmt"
)

// DatabaseStats summarises catalog storage use.
type DatabaseStats struct {
	Path        string       `json:"path"`
	TotalSizeMB float64      `json:"total_size_mb"`
	Tables      []TableStats `json:"tables"`
}

// TableStats reports one table's row count and, when the dbstat virtual
// table is available, its on-disk size.
type TableStats struct {
	Name     string  `json:"name"`
	RowCount int64   `json:"row_count"`
	SizeMB   float64 `json:"size_mb"`
}

// GetDatabaseStats collects per-table row counts and the database file size.
// Per-table sizes come from dbstat and are left at zero when the build does
// not ship it.
func (c *Catalog) GetDatabaseStats() (*DatabaseStats, error) {
	var pageCount, pageSize int64
	if err := c.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, fmt.Errorf("failed to query page_count: %w", err)
	}
	if err := c.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, fmt.Errorf("failed to query page_size: %w", err)
	}

	stats := &DatabaseStats{
		Path:        c.path,
		TotalSizeMB: float64(pageCount*pageSize) / (1024 * 1024),
	}

	rows, err := c.Query(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	for _, name := range names {
		table := TableStats{Name: name}

		if err := c.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %q", name)).Scan(&table.RowCount); err != nil {
			return nil, fmt.Errorf("failed to count rows in %s: %w", name, err)
		}

		// dbstat is an optional SQLite build feature
		var tableBytes int64
		if err := c.QueryRow("SELECT COALESCE(SUM(pgsize), 0) FROM dbstat WHERE name = ?", name).Scan(&tableBytes); err == nil {
			table.SizeMB = float64(tableBytes) / (1024 * 1024)
		}

		stats.Tables = append(stats.Tables, table)
	}

	return stats, nil
}
