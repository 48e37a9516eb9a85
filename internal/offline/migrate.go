package offline

import (
	"fmt"
	"log/slog"

	"github.com/skyrrd/alexandria/internal/errors"
)

// A migration upgrades the on-disk schema to the version it is tagged with.
// Every step must be idempotent: re-running against a database that already
// carries the change (an index that exists, a column already added) must be
// a no-op, not an error.
type migration struct {
	to    int
	stmts []string
}

var migrations = []migration{
	{
		to: 1,
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS books (
				id TEXT PRIMARY KEY NOT NULL,
				title TEXT NOT NULL,
				authors TEXT NOT NULL,
				source TEXT NOT NULL,
				data TEXT NOT NULL,
				saved_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS content (
				book_id TEXT PRIMARY KEY NOT NULL,
				body TEXT NOT NULL,
				fetched_at DATETIME NOT NULL
			)`,
		},
	},
	{
		to: 2,
		stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_books_title ON books(title)`,
			`CREATE INDEX IF NOT EXISTS idx_books_authors ON books(authors)`,
			`CREATE INDEX IF NOT EXISTS idx_books_source ON books(source)`,
		},
	},
}

// targetVersion is the schema version a fully migrated store carries.
var targetVersion = migrations[len(migrations)-1].to

// migrate applies every pending step in sequence from the stored version to
// the target version, bumping user_version step by step so an interrupted
// upgrade resumes where it left off.
func (s *Store) migrate() error {
	current, err := s.schemaVersion()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.to <= current {
			continue
		}
		if err := s.applyMigration(m); err != nil {
			return err
		}
		slog.Debug("Applied offline schema migration", "version", m.to)
	}

	return nil
}

func (s *Store) schemaVersion() (int, error) {
	var version int
	if err := s.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return 0, errors.NewStorageError("migrate", err)
	}
	return version, nil
}

func (s *Store) applyMigration(m migration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.NewStorageError("migrate", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return errors.NewStorageError("migrate", fmt.Errorf("upgrading to version %d: %w", m.to, err))
		}
	}

	// PRAGMA does not accept bind parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.to)); err != nil {
		return errors.NewStorageError("migrate", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("migrate", err)
	}
	return nil
}
