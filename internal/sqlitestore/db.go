// Package sqlitestore is a sqlite-backed implementation of the graph
// store contracts, used as the reference store for local development and
// integration tests. It preserves the store semantics the workflows
// depend on: server-generated identifiers in submission order,
// multi-valued properties, direction-filtered neighbor search, and no
// cascade deletion of edges.
package sqlitestore

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	*sql.DB
}

// New opens a SQLite database.
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return &DB{db}, nil
}

// RunMigrations creates the store schema.
func (db *DB) RunMigrations() error {
	migration := `
-- Records: one row per record identity; values live separately because
-- every property is multi-valued.
CREATE TABLE IF NOT EXISTS records (
    collection_id TEXT NOT NULL,
    record_id TEXT NOT NULL,
    PRIMARY KEY (collection_id, record_id)
);

CREATE TABLE IF NOT EXISTS record_values (
    collection_id TEXT NOT NULL,
    record_id TEXT NOT NULL,
    property_id TEXT NOT NULL,
    idx INTEGER NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (collection_id, record_id, property_id, idx)
);
CREATE INDEX IF NOT EXISTS idx_values_record ON record_values(collection_id, record_id);

-- Edges are records too; this table only adds the directed endpoints.
-- Endpoint deletion intentionally does not cascade here.
CREATE TABLE IF NOT EXISTS edges (
    collection_id TEXT NOT NULL,
    record_id TEXT NOT NULL,
    src_collection_id TEXT NOT NULL,
    src_record_id TEXT NOT NULL,
    dst_collection_id TEXT NOT NULL,
    dst_record_id TEXT NOT NULL,
    PRIMARY KEY (collection_id, record_id)
);
CREATE INDEX IF NOT EXISTS idx_edges_src ON edges(src_collection_id, src_record_id);
CREATE INDEX IF NOT EXISTS idx_edges_dst ON edges(dst_collection_id, dst_record_id);

CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    organization_id TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`
	if _, err := db.Exec(migration); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
