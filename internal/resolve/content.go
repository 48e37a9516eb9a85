package resolve

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/skyrrd/alexandria/internal/book"
	"github.com/skyrrd/alexandria/internal/errors"
	"github.com/skyrrd/alexandria/internal/fetch"
	"github.com/skyrrd/alexandria/internal/sources/archive"
)

// ContentResolver finds readable text for a book by probing an ordered list
// of candidate URLs: plain text first, then HTML, then the archive's
// OCR-derived text stream, then the raw details page as a last resort.
type ContentResolver struct {
	client         *fetch.Client
	archiveBaseURL string
}

// NewContentResolver creates a resolver using the given HTTP client.
func NewContentResolver(client *fetch.Client, opts ...ContentOption) *ContentResolver {
	r := &ContentResolver{client: client}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ContentOption is a functional option for configuring the ContentResolver.
type ContentOption func(*ContentResolver)

// WithArchiveBaseURL overrides the archive base for synthesized stream and
// details URLs.
func WithArchiveBaseURL(base string) ContentOption {
	return func(r *ContentResolver) {
		r.archiveBaseURL = base
	}
}

// ResolveContent probes the book's candidate URLs strictly in order and
// returns the first non-empty body. Candidates are ranked by preference, so
// probing is sequential on purpose: a fast path avoids wasted calls beyond
// the first success.
func (r *ContentResolver) ResolveContent(ctx context.Context, b *book.Book) (string, error) {
	candidates := r.Candidates(b)

	for _, candidate := range candidates {
		text, err := r.client.GetText(ctx, candidate)
		if err != nil {
			slog.Debug("Content candidate failed, trying next",
				"book", b.ID, "url", candidate, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			slog.Debug("Content candidate returned empty body, trying next",
				"book", b.ID, "url", candidate)
			continue
		}
		return text, nil
	}

	slog.Warn("No content candidate yielded readable text",
		"book", b.ID, "candidates", len(candidates))
	return "", errors.NewContentUnavailableError(b.ID, len(candidates))
}

// Candidates builds the ordered candidate URL list from the book's source,
// formats and archive identifier.
func (r *ContentResolver) Candidates(b *book.Book) []string {
	var candidates []string
	seen := map[string]bool{}

	add := func(url string) {
		if url != "" && !seen[url] {
			candidates = append(candidates, url)
			seen[url] = true
		}
	}

	// Format URLs come first, plain text before HTML. Keys may carry
	// charset suffixes like "text/plain; charset=utf-8", so group by
	// prefix and keep a sorted order within each group.
	for _, prefix := range []string{book.FormatPlainText, book.FormatHTML} {
		var keys []string
		for key := range b.Formats {
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		for _, key := range keys {
			add(b.Formats[key])
		}
	}

	// A book carrying an archive identifier is eligible for the archive's
	// OCR text even when it came from a different catalog. Intentional
	// cross-source fallback.
	if b.IAIdentifier != "" {
		add(archive.StreamTextURL(r.archiveBaseURL, b.IAIdentifier))
		add(archive.DetailsURL(r.archiveBaseURL, b.IAIdentifier))
	}

	return candidates
}
