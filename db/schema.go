// ABOUTME: Database schema definitions for the local record store
// ABOUTME: Holds collections and their records as JSON field maps
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	name TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	fields TEXT NOT NULL DEFAULT '{}',
	field_order TEXT NOT NULL DEFAULT '[]',
	created_time DATETIME NOT NULL,
	updated_time DATETIME NOT NULL,
	FOREIGN KEY (collection) REFERENCES collections(name)
);

CREATE INDEX IF NOT EXISTS idx_records_collection ON records(collection, created_time);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
