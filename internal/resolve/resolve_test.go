package resolve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyrrd/alexandria/internal/book"
	"github.com/skyrrd/alexandria/internal/errors"
	"github.com/skyrrd/alexandria/internal/fetch"
)

// countingSource records FetchByID calls and answers from a fixed table.
type countingSource struct {
	kind    book.SourceKind
	books   map[string]*book.Book
	fetches int
}

func (s *countingSource) Kind() book.SourceKind { return s.kind }

func (s *countingSource) List(ctx context.Context, page int) (*book.Page, error) {
	return &book.Page{Source: s.kind}, nil
}

func (s *countingSource) Search(ctx context.Context, query string, page int) (*book.Page, error) {
	return &book.Page{Source: s.kind}, nil
}

func (s *countingSource) FetchByID(ctx context.Context, id string) (*book.Book, error) {
	s.fetches++
	if b, ok := s.books[id]; ok {
		return b, nil
	}
	return nil, errors.NewNotFoundError(id, 1)
}

func TestResolveByIDStopsAtFirstMatch(t *testing.T) {
	g := &countingSource{kind: book.SourceGutendex, books: map[string]*book.Book{
		"84": {ID: "84", Title: "Frankenstein", Source: book.SourceGutendex},
	}}
	o := &countingSource{kind: book.SourceOpenLibrary}
	ia := &countingSource{kind: book.SourceArchive}

	resolver := NewIdentifierResolver([]book.Source{g, o, ia})

	b, err := resolver.ResolveByID(context.Background(), "84")
	require.NoError(t, err)
	assert.Equal(t, "Frankenstein", b.Title)

	// The match in the first catalog means the other two are never asked.
	assert.Equal(t, 1, g.fetches)
	assert.Equal(t, 0, o.fetches)
	assert.Equal(t, 0, ia.fetches)
}

func TestResolveByIDFallsThrough(t *testing.T) {
	g := &countingSource{kind: book.SourceGutendex}
	o := &countingSource{kind: book.SourceOpenLibrary}
	ia := &countingSource{kind: book.SourceArchive, books: map[string]*book.Book{
		"mobydick00melv": {ID: "mobydick00melv", Title: "Moby Dick", Source: book.SourceArchive},
	}}

	resolver := NewIdentifierResolver([]book.Source{g, o, ia})

	b, err := resolver.ResolveByID(context.Background(), "mobydick00melv")
	require.NoError(t, err)
	assert.Equal(t, book.SourceArchive, b.Source)
	assert.Equal(t, 1, g.fetches)
	assert.Equal(t, 1, o.fetches)
	assert.Equal(t, 1, ia.fetches)
}

func TestResolveByIDAggregateNotFound(t *testing.T) {
	g := &countingSource{kind: book.SourceGutendex}
	o := &countingSource{kind: book.SourceOpenLibrary}
	ia := &countingSource{kind: book.SourceArchive}

	resolver := NewIdentifierResolver([]book.Source{g, o, ia})

	_, err := resolver.ResolveByID(context.Background(), "nope")
	require.Error(t, err)

	var nfErr *errors.NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, 3, nfErr.Attempts)
}

func TestResolveContentPrefersPlainText(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Call me Ishmael."))
	})
	mux.HandleFunc("/html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>should not be reached</html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	resolver := NewContentResolver(fetch.NewClient())
	b := &book.Book{
		ID: "84",
		Formats: map[string]string{
			book.FormatPlainText: server.URL + "/plain",
			book.FormatHTML:      server.URL + "/html",
		},
	}

	text, err := resolver.ResolveContent(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "Call me Ishmael.", text)
}

func TestResolveContentSkipsEmptyBodyAndFallsBackToArchiveStream(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("   \n\t  ")) // HTTP-OK but empty after trimming
	})
	mux.HandleFunc("/stream/mobydick00melv/mobydick00melv_djvu.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Call me Ishmael."))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	resolver := NewContentResolver(fetch.NewClient(), WithArchiveBaseURL(server.URL))

	// An OpenLibrary book carrying an archive identifier: the stream
	// fallback applies even though the source is a different catalog.
	b := &book.Book{
		ID:           "/works/OL45883W",
		Source:       book.SourceOpenLibrary,
		IAIdentifier: "mobydick00melv",
		Formats: map[string]string{
			book.FormatHTML: server.URL + "/html",
		},
	}

	text, err := resolver.ResolveContent(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "Call me Ishmael.", text)
}

func TestResolveContentExhaustionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	resolver := NewContentResolver(fetch.NewClient(), WithArchiveBaseURL(server.URL))
	b := &book.Book{
		ID:           "x",
		IAIdentifier: "x",
		Formats:      map[string]string{book.FormatPlainText: server.URL + "/gone"},
	}

	_, err := resolver.ResolveContent(context.Background(), b)
	require.Error(t, err)

	var cuErr *errors.ContentUnavailableError
	require.ErrorAs(t, err, &cuErr)
	assert.Equal(t, "x", cuErr.BookID)
	assert.Equal(t, 3, cuErr.Candidates)
}

func TestCandidatesOrder(t *testing.T) {
	resolver := NewContentResolver(fetch.NewClient(), WithArchiveBaseURL("https://archive.test"))

	b := &book.Book{
		ID:           "84",
		Source:       book.SourceGutendex,
		IAIdentifier: "frank00shel",
		Formats: map[string]string{
			"text/html":                 "https://g.test/84.html",
			"text/plain; charset=utf-8": "https://g.test/84.txt",
			"application/pdf":           "https://g.test/84.pdf",
		},
	}

	candidates := resolver.Candidates(b)
	assert.Equal(t, []string{
		"https://g.test/84.txt",
		"https://g.test/84.html",
		"https://archive.test/stream/frank00shel/frank00shel_djvu.txt",
		"https://archive.test/details/frank00shel",
	}, candidates)
}

func TestCandidatesWithoutArchiveIdentifier(t *testing.T) {
	resolver := NewContentResolver(fetch.NewClient())

	b := &book.Book{ID: "84", Formats: map[string]string{book.FormatPlainText: "https://g.test/84.txt"}}
	assert.Equal(t, []string{"https://g.test/84.txt"}, resolver.Candidates(b))
}
