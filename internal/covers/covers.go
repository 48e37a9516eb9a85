// Package covers downloads book cover images and stores web-friendly
// resized copies next to the offline cache.
package covers

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/skyrrd/alexandria/internal/book"
	"github.com/skyrrd/alexandria/internal/fetch"
)

const defaultMaxWidth = 500

// Fetcher downloads and resizes covers through the shared HTTP client, so
// proxy routing and retries apply to image fetches too.
type Fetcher struct {
	client   *fetch.Client
	dir      string
	maxWidth int
}

// NewFetcher creates a cover fetcher that writes into dir.
func NewFetcher(client *fetch.Client, dir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   client,
		dir:      dir,
		maxWidth: defaultMaxWidth,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Option is a functional option for configuring the Fetcher.
type Option func(*Fetcher)

// WithMaxWidth caps the stored image width.
func WithMaxWidth(width int) Option {
	return func(f *Fetcher) {
		if width > 0 {
			f.maxWidth = width
		}
	}
}

// CoverURL picks the book's cover image URL, or "" when it has none.
func CoverURL(b *book.Book) string {
	return b.Formats[book.FormatCover]
}

// Fetch downloads the book's cover, resizes it when wider than the cap and
// saves it as JPEG. Returns the stored file path.
func (f *Fetcher) Fetch(ctx context.Context, b *book.Book) (string, error) {
	coverURL := CoverURL(b)
	if coverURL == "" {
		return "", fmt.Errorf("book %q has no cover", b.ID)
	}

	raw, err := f.client.Get(ctx, coverURL)
	if err != nil {
		return "", fmt.Errorf("downloading cover for %q: %w", b.ID, err)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decoding cover for %q: %w", b.ID, err)
	}

	if img.Bounds().Dx() > f.maxWidth {
		img = imaging.Resize(img, f.maxWidth, 0, imaging.Lanczos)
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(f.dir, coverFilename(b))
	if err := imaging.Save(img, path, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("saving cover for %q: %w", b.ID, err)
	}
	return path, nil
}

// coverFilename derives a stable filesystem-safe name from the book id.
func coverFilename(b *book.Book) string {
	id := b.ID
	id = strings.ReplaceAll(id, "/", "_")
	id = strings.ReplaceAll(id, " ", "_")
	return b.Source.String() + "_" + id + ".jpg"
}
