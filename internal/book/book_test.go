package book

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestSourceKindRoundTrip(t *testing.T) {
	for _, kind := range []SourceKind{SourceGutendex, SourceOpenLibrary, SourceArchive} {
		parsed, ok := ParseSourceKind(kind.String())
		assert.True(t, ok)
		assert.Equal(t, kind, parsed)
	}

	_, ok := ParseSourceKind("librarything")
	assert.False(t, ok)
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"kept", "Moby Dick", "Moby Dick"},
		{"empty", "", UnknownTitle},
		{"whitespace", "   ", UnknownTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.title))
		})
	}
}

func TestNormalizeAuthors(t *testing.T) {
	authors := NormalizeAuthors(nil)
	assert.Equal(t, 1, len(authors))
	assert.Equal(t, UnknownAuthor, authors[0].Name)

	kept := NormalizeAuthors([]Author{{Name: "Herman Melville"}})
	assert.Equal(t, "Herman Melville", kept[0].Name)
}

func TestNumericID(t *testing.T) {
	b := Book{ID: "42"}
	n, ok := b.NumericID()
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	b = Book{ID: "OL45883W"}
	_, ok = b.NumericID()
	assert.False(t, ok)
}
