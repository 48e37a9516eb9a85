// Package library stores the user's bookmarked books with free-text notes.
// Records are keyed per user id; the user id comes from local config since
// there is no real authentication, only a local stand-in.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	stdErrors "errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/skyrrd/alexandria/internal/book"
	"github.com/skyrrd/alexandria/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS saved_books (
	user_id TEXT NOT NULL,
	book_id TEXT NOT NULL,
	source TEXT NOT NULL,
	data TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	saved_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, book_id)
);

CREATE INDEX IF NOT EXISTS idx_saved_books_saved_at ON saved_books(saved_at);
`

// Store is the personal library for a single user.
type Store struct {
	db     *sql.DB
	userID string
}

// Open opens (creating if necessary) the library at path for the given user.
func Open(path, userID string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewStorageError("open", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.NewStorageError("open", stdErrors.Join(err, closeErr))
	}

	if _, err := db.Exec(schema); err != nil {
		closeErr := db.Close()
		return nil, errors.NewStorageError("open", stdErrors.Join(err, closeErr))
	}

	return &Store{db: db, userID: userID}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save bookmarks the book. Saving an already-saved book keeps the original
// saved-at timestamp and only refreshes the stored metadata.
func (s *Store) Save(ctx context.Context, b *book.Book, notes string) error {
	data, err := json.Marshal(b)
	if err != nil {
		return errors.NewStorageError("save", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_books (user_id, book_id, source, data, notes, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, book_id)
		DO UPDATE SET source = excluded.source, data = excluded.data, notes = excluded.notes
	`, s.userID, b.ID, b.Source.String(), string(data), notes, time.Now().UTC())
	if err != nil {
		return errors.NewStorageError("save", err)
	}
	return nil
}

// Get returns one saved book, or nil when the id is not bookmarked.
func (s *Store) Get(ctx context.Context, id string) (*book.SavedBook, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT data, source, notes, saved_at FROM saved_books
		WHERE user_id = ? AND book_id = ?
	`, s.userID, id)

	saved, err := scanSavedBook(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("get", err)
	}
	return saved, nil
}

// List returns every saved book, most recently saved first.
func (s *Store) List(ctx context.Context) ([]book.SavedBook, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data, source, notes, saved_at FROM saved_books
		WHERE user_id = ?
		ORDER BY saved_at DESC, book_id
	`, s.userID)
	if err != nil {
		return nil, errors.NewStorageError("list", err)
	}
	defer func() { _ = rows.Close() }()

	var books []book.SavedBook
	for rows.Next() {
		saved, err := scanSavedBook(rows)
		if err != nil {
			return nil, errors.NewStorageError("list", err)
		}
		books = append(books, *saved)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("list", err)
	}
	return books, nil
}

// UpdateNotes replaces the notes of a saved book. Note edits are the only
// mutation a bookmark supports.
func (s *Store) UpdateNotes(ctx context.Context, id, notes string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE saved_books SET notes = ? WHERE user_id = ? AND book_id = ?
	`, notes, s.userID, id)
	if err != nil {
		return errors.NewStorageError("update-notes", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewStorageError("update-notes", err)
	}
	if affected == 0 {
		return errors.NewNotFoundError(id, 1)
	}
	return nil
}

// Remove deletes a bookmark.
func (s *Store) Remove(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM saved_books WHERE user_id = ? AND book_id = ?
	`, s.userID, id)
	if err != nil {
		return errors.NewStorageError("remove", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSavedBook(row rowScanner) (*book.SavedBook, error) {
	var data, source, notes string
	var savedAt time.Time
	if err := row.Scan(&data, &source, &notes, &savedAt); err != nil {
		return nil, err
	}

	var b book.Book
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, err
	}
	if kind, ok := book.ParseSourceKind(source); ok {
		b.Source = kind
	}

	return &book.SavedBook{Book: b, SavedAt: savedAt, Notes: notes}, nil
}
