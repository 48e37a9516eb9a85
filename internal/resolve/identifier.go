// Package resolve locates a canonical book for an opaque identifier and
// readable text for a canonical book.
package resolve

import (
	"context"
	"log/slog"

	"github.com/skyrrd/alexandria/internal/book"
	"github.com/skyrrd/alexandria/internal/errors"
)

// IdentifierResolver resolves an identifier of unknown origin by trying each
// catalog's fetch-by-id in a fixed precedence order: the bibliographic
// catalog for numeric ids, the library-metadata catalog for work keys, the
// full-text archive last. Adapters reject foreign id shapes without a
// network call, so the walk stays cheap.
type IdentifierResolver struct {
	sources []book.Source
}

// NewIdentifierResolver creates a resolver over the given sources in
// precedence order.
func NewIdentifierResolver(sources []book.Source) *IdentifierResolver {
	return &IdentifierResolver{sources: sources}
}

// ResolveByID returns the first catalog's book for the id. Per-source
// failures fall through silently; only when every catalog fails is a single
// aggregate not-found error returned.
func (r *IdentifierResolver) ResolveByID(ctx context.Context, id string) (*book.Book, error) {
	for _, src := range r.sources {
		b, err := src.FetchByID(ctx, id)
		if err != nil {
			slog.Debug("Catalog does not resolve id, falling through",
				"source", src.Kind().String(), "id", id, "error", err)
			continue
		}
		return b, nil
	}
	return nil, errors.NewNotFoundError(id, len(r.sources))
}
