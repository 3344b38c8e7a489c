// ABOUTME: Database schema definitions
// ABOUTME: Creates the crm_state table that holds one snapshot row per workspace
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS crm_state (
	state_key TEXT PRIMARY KEY,
	snapshot TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
