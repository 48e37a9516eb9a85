// Package book defines the canonical book model shared by every catalog
// adapter, the aggregator and the resolvers.
package book

import (
	"strconv"
	"strings"
	"time"
)

// Fallback display values used when a catalog omits a field.
const (
	UnknownTitle  = "Unknown Title"
	UnknownAuthor = "Unknown Author"
)

// Well-known format keys. Catalogs may supply any subset.
const (
	FormatPlainText = "text/plain"
	FormatHTML      = "text/html"
	FormatPDF       = "application/pdf"
	FormatCover     = "image/jpeg"
)

// SourceKind identifies which catalog produced a Book. All source-specific
// logic downstream (URL construction, identifier matching) dispatches on it.
type SourceKind int

const (
	SourceGutendex SourceKind = iota
	SourceOpenLibrary
	SourceArchive
)

func (k SourceKind) String() string {
	switch k {
	case SourceGutendex:
		return "gutendex"
	case SourceOpenLibrary:
		return "openlibrary"
	case SourceArchive:
		return "archive"
	}
	return "unknown"
}

// ParseSourceKind converts a stored source tag back to a SourceKind.
func ParseSourceKind(s string) (SourceKind, bool) {
	switch s {
	case "gutendex":
		return SourceGutendex, true
	case "openlibrary":
		return SourceOpenLibrary, true
	case "archive":
		return SourceArchive, true
	}
	return 0, false
}

// Author is a single contributor with optional life dates.
type Author struct {
	Name      string `json:"name"`
	BirthYear *int   `json:"birth_year,omitempty"`
	DeathYear *int   `json:"death_year,omitempty"`
}

// Book is the canonical record every adapter normalizes into. Treated as
// immutable once an adapter has constructed it.
type Book struct {
	// ID is unique only within a source; numeric for Gutendex, an opaque
	// string key for the other catalogs.
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Authors       []Author          `json:"authors"`
	Subjects      []string          `json:"subjects,omitempty"`
	Formats       map[string]string `json:"formats,omitempty"`
	DownloadCount int               `json:"download_count"`
	Source        SourceKind        `json:"-"`

	ISBN        string `json:"isbn,omitempty"`
	PublishDate string `json:"publish_date,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	Description string `json:"description,omitempty"`
	CoverID     int    `json:"cover_id,omitempty"`
	// IAIdentifier unlocks full-text fetch through the archive's fixed URL
	// patterns regardless of which catalog produced the book.
	IAIdentifier string `json:"ia_identifier,omitempty"`
	Language     string `json:"language,omitempty"`
}

// NumericID returns the book's id as an integer when it is purely numeric.
func (b *Book) NumericID() (int, bool) {
	n, err := strconv.Atoi(b.ID)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NormalizeTitle returns a non-empty display title.
func NormalizeTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return UnknownTitle
	}
	return title
}

// NormalizeAuthors guarantees at least one author entry.
func NormalizeAuthors(authors []Author) []Author {
	if len(authors) == 0 {
		return []Author{{Name: UnknownAuthor}}
	}
	return authors
}

// Page is one page of results from a single catalog or from the aggregator.
// Next and Previous are nil or opaque page tokens.
type Page struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []Book  `json:"results"`
	// Source tags the page for display. The aggregator's combined page
	// carries the first adapter's kind even though results are multi-source;
	// a display simplification callers should not read meaning into.
	Source SourceKind `json:"-"`
}

// SavedBook is a bookmarked Book in the user's personal library.
type SavedBook struct {
	Book
	SavedAt time.Time `json:"saved_at"`
	Notes   string    `json:"notes,omitempty"`
}
