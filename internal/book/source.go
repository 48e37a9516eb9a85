package book

import "context"

// Source is the uniform contract each catalog adapter exposes despite very
// different underlying APIs. FetchByID fails with a NotFoundError when the
// id is not recognized as belonging to the catalog.
type Source interface {
	Kind() SourceKind
	List(ctx context.Context, page int) (*Page, error)
	Search(ctx context.Context, query string, page int) (*Page, error)
	FetchByID(ctx context.Context, id string) (*Book, error)
}
