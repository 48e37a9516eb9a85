// Package aggregate fans catalog calls out to every source adapter
// concurrently and merges the survivors into one combined page.
package aggregate

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/skyrrd/alexandria/internal/book"
	"github.com/skyrrd/alexandria/internal/errors"
	"github.com/skyrrd/alexandria/internal/settle"
)

const defaultPageSize = 20

// Aggregator combines list/search results from every configured source.
type Aggregator struct {
	sources  []book.Source
	pageSize int
	rng      *rand.Rand
}

// New creates an Aggregator over the given sources, in precedence order.
func New(sources []book.Source, opts ...Option) *Aggregator {
	a := &Aggregator{
		sources:  sources,
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Option is a functional option for configuring the Aggregator.
type Option func(*Aggregator)

// WithPageSize sets how many results a combined page carries.
func WithPageSize(size int) Option {
	return func(a *Aggregator) {
		if size > 0 {
			a.pageSize = size
		}
	}
}

// WithRand sets a deterministic random source for shuffling.
func WithRand(rng *rand.Rand) Option {
	return func(a *Aggregator) {
		a.rng = rng
	}
}

// FetchAll lists one page from every source concurrently. Failed sources
// contribute nothing; the combined results are shuffled so every page shows
// source variety instead of clustering one catalog first. Only when all
// sources fail does FetchAll return an error.
func (a *Aggregator) FetchAll(ctx context.Context, page int) (*book.Page, error) {
	combined, err := a.fanOut(ctx, page, func(src book.Source) settle.Task[*book.Page] {
		return func(ctx context.Context) (*book.Page, error) {
			return src.List(ctx, page)
		}
	})
	if err != nil {
		return nil, err
	}

	a.shuffle(combined.Results)
	a.truncate(combined)
	return combined, nil
}

// SearchAll searches every source concurrently and ranks the combined
// results by title relevance to the query.
func (a *Aggregator) SearchAll(ctx context.Context, query string, page int) (*book.Page, error) {
	combined, err := a.fanOut(ctx, page, func(src book.Source) settle.Task[*book.Page] {
		return func(ctx context.Context) (*book.Page, error) {
			return src.Search(ctx, query, page)
		}
	})
	if err != nil {
		return nil, err
	}

	rankByRelevance(combined.Results, query)
	a.truncate(combined)
	return combined, nil
}

func (a *Aggregator) fanOut(ctx context.Context, page int, taskFor func(book.Source) settle.Task[*book.Page]) (*book.Page, error) {
	tasks := make([]settle.Task[*book.Page], 0, len(a.sources))
	for _, src := range a.sources {
		tasks = append(tasks, taskFor(src))
	}

	results := settle.All(ctx, tasks...)

	if results.AllFailed() {
		for _, err := range results.Failures() {
			slog.Warn("Catalog call failed", "error", err)
		}
		return nil, errors.NewNetworkError("aggregate", 0, results.Failures()[0])
	}

	combined := &book.Page{}
	if len(a.sources) > 0 {
		// Display quirk kept on purpose: the combined page carries the
		// first adapter's tag even though results are multi-source.
		combined.Source = a.sources[0].Kind()
	}

	hasMore := false
	for i, outcome := range results.Outcomes {
		if outcome.Err != nil {
			slog.Warn("Catalog call failed, skipping source",
				"source", a.sources[i].Kind().String(), "error", outcome.Err)
			continue
		}
		combined.Count += outcome.Value.Count
		combined.Results = append(combined.Results, outcome.Value.Results...)
		if outcome.Value.Next != nil {
			hasMore = true
		}
	}

	// The sources' own tokens (absolute URLs, offset strings) mean nothing
	// to the combined paging, so synthesize numeric page tokens instead.
	if hasMore {
		combined.Next = pageToken(page + 1)
	}
	if page > 1 {
		combined.Previous = pageToken(page - 1)
	}

	return combined, nil
}

func pageToken(page int) *string {
	s := strconv.Itoa(page)
	return &s
}

func (a *Aggregator) shuffle(books []book.Book) {
	swap := func(i, j int) { books[i], books[j] = books[j], books[i] }
	if a.rng != nil {
		a.rng.Shuffle(len(books), swap)
		return
	}
	rand.Shuffle(len(books), swap)
}

func (a *Aggregator) truncate(page *book.Page) {
	if len(page.Results) > a.pageSize {
		page.Results = page.Results[:a.pageSize]
	}
}

// rankByRelevance sorts exact title matches first, then prefix matches,
// then substring matches, breaking ties by popularity. The sort is stable
// so same-ranked books keep their source order.
func rankByRelevance(books []book.Book, query string) {
	q := strings.ToLower(strings.TrimSpace(query))

	sort.SliceStable(books, func(i, j int) bool {
		ri, rj := relevance(books[i].Title, q), relevance(books[j].Title, q)
		if ri != rj {
			return ri > rj
		}
		return books[i].DownloadCount > books[j].DownloadCount
	})
}

func relevance(title, query string) int {
	t := strings.ToLower(title)
	switch {
	case query == "":
		return 0
	case t == query:
		return 3
	case strings.HasPrefix(t, query):
		return 2
	case strings.Contains(t, query):
		return 1
	}
	return 0
}
