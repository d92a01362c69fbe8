package db

import (
	"context"
	"fmt"
)

// schemaVersion is the current value of PRAGMA user_version.
const schemaVersion = 1

// migrate brings an older database file up to schemaVersion.
// Version 0 files predate the secrets table and stored tokens inside
// the kv table under "secret/<identity>/<purpose>" keys.
func (db *DB) migrate() error {
	var version int
	if err := db.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}

	queries := []string{
		`INSERT OR IGNORE INTO secrets (identity, purpose, value)
		 SELECT
			substr(key, 8, instr(substr(key, 8), '/') - 1),
			substr(substr(key, 8), instr(substr(key, 8), '/') + 1),
			CAST(value AS TEXT)
		 FROM kv
		 WHERE key LIKE 'secret/%/%'`,
		`DELETE FROM kv WHERE key LIKE 'secret/%/%'`,
		fmt.Sprintf("PRAGMA user_version = %d", schemaVersion),
	}

	for _, query := range queries {
		if _, err := db.ExecContext(context.Background(), query); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	return nil
}
