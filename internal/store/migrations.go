package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// migration is a single named, idempotent schema change. Migrations run in
// order every time the store opens; each one must be safe to re-apply.
type migration struct {
	Name string
	Func func(*sql.DB) error
}

// migrationsList is an ordered list of small, named, additive steps that
// ran against every prior schema version converge on the same end state.
var migrationsList = []migration{
	{"l1_embedding_column", addColumn("memory_l1_nodes", "embedding", "BLOB")},
	{"l2_embedding_column", addColumn("memory_l2_nodes", "embedding", "BLOB")},
	{"l1_compaction_level_column", addColumn("memory_l1_nodes", "compaction_level", "INTEGER NOT NULL DEFAULT 0")},
}

// addColumn returns a migration func that adds a column via ALTER TABLE,
// swallowing the "duplicate column name" error SQLite returns when the
// column already exists from a prior run.
func addColumn(table, column, ddlType string) func(*sql.DB) error {
	return func(db *sql.DB) error {
		_, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, ddlType))
		if err != nil && isDuplicateColumnErr(err) {
			return nil
		}
		return err
	}
}

func isDuplicateColumnErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate column name")
}

// runMigrations applies the schema DDL and then every registered migration.
func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("store: applying schema: %w", err)
	}
	for _, m := range migrationsList {
		if err := m.Func(db); err != nil {
			return fmt.Errorf("store: migration %s: %w", m.Name, err)
		}
	}
	return nil
}

// MigrationNames returns the names of all registered migrations, in
// apply order, for doctor-style inspection.
func MigrationNames() []string {
	names := make([]string, len(migrationsList))
	for i, m := range migrationsList {
		names[i] = m.Name
	}
	return names
}
