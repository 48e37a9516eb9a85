// Package offline persists book metadata and fetched full text in a local
// SQLite store so saved books stay readable without a network.
package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/skyrrd/alexandria/internal/book"
	"github.com/skyrrd/alexandria/internal/errors"
)

// Store is the offline cache. The handle is opened once at startup and
// passed by reference; there is no hidden global.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the store at path and brings its
// schema up to the current version.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewStorageError("open", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.NewStorageError("open", stdErrors.Join(err, closeErr))
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		closeErr := db.Close()
		return nil, stdErrors.Join(err, closeErr)
	}
	return s, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// FetchContentFunc retrieves a book's full text, typically via the content
// resolver.
type FetchContentFunc func(ctx context.Context) (string, error)

// Save persists the book's metadata and, when fetchContent is non-nil, its
// full text. A content fetch failure is logged and swallowed: a
// metadata-only record is a valid terminal state, not an error.
func (s *Store) Save(ctx context.Context, b *book.Book, fetchContent FetchContentFunc) error {
	data, err := json.Marshal(b)
	if err != nil {
		return errors.NewStorageError("save", err)
	}

	authors, err := json.Marshal(b.Authors)
	if err != nil {
		return errors.NewStorageError("save", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO books (id, title, authors, source, data, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, b.ID, b.Title, string(authors), b.Source.String(), string(data), time.Now().UTC())
	if err != nil {
		return errors.NewStorageError("save", err)
	}

	if fetchContent == nil {
		return nil
	}

	text, err := fetchContent(ctx)
	if err != nil {
		slog.Warn("Content fetch failed, keeping metadata-only offline record",
			"book", b.ID, "error", err)
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO content (book_id, body, fetched_at)
		VALUES (?, ?, ?)
	`, b.ID, text, time.Now().UTC())
	if err != nil {
		return errors.NewStorageError("save", err)
	}

	return nil
}

// Get returns the stored book, or nil when the id has no offline record.
func (s *Store) Get(ctx context.Context, id string) (*book.Book, error) {
	var data, source string
	err := s.db.QueryRowContext(ctx,
		`SELECT data, source FROM books WHERE id = ?`, id).Scan(&data, &source)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("get", err)
	}

	var b book.Book
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, errors.NewStorageError("get", err)
	}
	if kind, ok := book.ParseSourceKind(source); ok {
		b.Source = kind
	}
	return &b, nil
}

// GetContent returns the stored full text. ok is false when the record is
// metadata-only or absent.
func (s *Store) GetContent(ctx context.Context, id string) (string, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM content WHERE book_id = ?`, id).Scan(&body)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewStorageError("get-content", err)
	}
	return body, true, nil
}

// Remove deletes the book's metadata and content records in one
// transaction. A partial delete would violate the store's invariant that a
// content row never outlives its books row.
func (s *Store) Remove(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("remove", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM content WHERE book_id = ?`, id); err != nil {
		return errors.NewStorageError("remove", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id); err != nil {
		return errors.NewStorageError("remove", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("remove", err)
	}
	return nil
}

// Clear empties the store, dropping every cached book and its content.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("clear", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM content`); err != nil {
		return errors.NewStorageError("clear", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return errors.NewStorageError("clear", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("clear", err)
	}
	return nil
}

// IsAvailable reports whether the id has an offline metadata record.
func (s *Store) IsAvailable(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM books WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewStorageError("is-available", err)
	}
	return true, nil
}

// Stats summarizes the store's contents.
type Stats struct {
	TotalBooks       int
	TotalSize        int64
	BooksWithContent int
	BySource         map[string]int
}

// Stats reports totals over the books and content tables.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{BySource: map[string]int{}}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(data)), 0) FROM books
	`).Scan(&stats.TotalBooks, &stats.TotalSize)
	if err != nil {
		return nil, errors.NewStorageError("stats", err)
	}

	var contentSize int64
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(body)), 0) FROM content
	`).Scan(&stats.BooksWithContent, &contentSize)
	if err != nil {
		return nil, errors.NewStorageError("stats", err)
	}
	stats.TotalSize += contentSize

	rows, err := s.db.QueryContext(ctx, `SELECT source, COUNT(*) FROM books GROUP BY source`)
	if err != nil {
		return nil, errors.NewStorageError("stats", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, errors.NewStorageError("stats", err)
		}
		stats.BySource[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("stats", err)
	}

	return stats, nil
}
