package covers

import (
	"bytes"
	"context"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyrrd/alexandria/internal/book"
	"github.com/skyrrd/alexandria/internal/fetch"
)

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func TestFetchResizesWideCovers(t *testing.T) {
	payload := testJPEG(t, 1200, 1800)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	dir := t.TempDir()
	fetcher := NewFetcher(fetch.NewClient(), dir, WithMaxWidth(500))

	b := &book.Book{
		ID:      "84",
		Source:  book.SourceGutendex,
		Formats: map[string]string{book.FormatCover: server.URL + "/84.jpg"},
	}

	path, err := fetcher.Fetch(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gutendex_84.jpg"), path)

	saved, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 500, saved.Bounds().Dx())
}

func TestFetchKeepsSmallCovers(t *testing.T) {
	payload := testJPEG(t, 300, 450)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	fetcher := NewFetcher(fetch.NewClient(), t.TempDir(), WithMaxWidth(500))

	b := &book.Book{
		ID:      "84",
		Source:  book.SourceGutendex,
		Formats: map[string]string{book.FormatCover: server.URL + "/84.jpg"},
	}

	path, err := fetcher.Fetch(context.Background(), b)
	require.NoError(t, err)

	saved, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 300, saved.Bounds().Dx())
}

func TestFetchWithoutCoverURL(t *testing.T) {
	fetcher := NewFetcher(fetch.NewClient(), t.TempDir())

	_, err := fetcher.Fetch(context.Background(), &book.Book{ID: "84"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no cover")
}

func TestCoverFilenameEscapesWorkKeys(t *testing.T) {
	b := &book.Book{ID: "/works/OL45883W", Source: book.SourceOpenLibrary}
	assert.Equal(t, "openlibrary__works_OL45883W.jpg", coverFilename(b))
}

func TestFetchRejectsNonImageBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	defer server.Close()

	dir := t.TempDir()
	fetcher := NewFetcher(fetch.NewClient(), dir)

	b := &book.Book{
		ID:      "84",
		Source:  book.SourceGutendex,
		Formats: map[string]string{book.FormatCover: server.URL + "/84.jpg"},
	}

	_, err := fetcher.Fetch(context.Background(), b)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
