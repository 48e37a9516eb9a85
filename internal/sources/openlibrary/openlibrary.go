// Package openlibrary adapts the Open Library catalog to the common Source
// interface. Open Library keys works as "/works/{id}", paginates with
// offset/limit, and stores author names behind separate author records.
package openlibrary

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/skyrrd/alexandria/internal/book"
	"github.com/skyrrd/alexandria/internal/errors"
	"github.com/skyrrd/alexandria/internal/fetch"
	"github.com/skyrrd/alexandria/internal/ratelimit"
	"github.com/skyrrd/alexandria/internal/settle"
)

const (
	defaultBaseURL       = "https://openlibrary.org"
	defaultCoversBaseURL = "https://covers.openlibrary.org"
	defaultPageSize      = 20
	defaultRatePerSecond = 1

	// browseQuery backs List, since Open Library has no unqualified
	// listing endpoint.
	browseQuery = "subject:classics"

	worksPrefix = "/works/"
)

// Adapter is the Open Library catalog adapter.
type Adapter struct {
	client        *fetch.Client
	rateLimiter   *ratelimit.Limiter
	baseURL       string
	coversBaseURL string
	pageSize      int
}

// Compile-time check that Adapter implements book.Source.
var _ book.Source = (*Adapter)(nil)

// New creates an Open Library adapter using the given HTTP client.
func New(client *fetch.Client, opts ...Option) *Adapter {
	a := &Adapter{
		client:        client,
		rateLimiter:   ratelimit.New("OpenLibrary", defaultRatePerSecond),
		baseURL:       defaultBaseURL,
		coversBaseURL: defaultCoversBaseURL,
		pageSize:      defaultPageSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Option is a functional option for configuring the Adapter.
type Option func(*Adapter)

// WithBaseURL sets a custom base URL for the Open Library API.
func WithBaseURL(base string) Option {
	return func(a *Adapter) {
		if base != "" {
			a.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithCoversBaseURL sets a custom base URL for cover images.
func WithCoversBaseURL(base string) Option {
	return func(a *Adapter) {
		if base != "" {
			a.coversBaseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithPageSize sets how many records one page requests.
func WithPageSize(size int) Option {
	return func(a *Adapter) {
		if size > 0 {
			a.pageSize = size
		}
	}
}

// WithRateLimiter sets a custom rate limiter.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(a *Adapter) {
		if limiter != nil {
			a.rateLimiter = limiter
		}
	}
}

// Kind returns the source tag for books produced by this adapter.
func (a *Adapter) Kind() book.SourceKind {
	return book.SourceOpenLibrary
}

// List fetches one page of a fixed browse query; Open Library has no plain
// listing endpoint.
func (a *Adapter) List(ctx context.Context, page int) (*book.Page, error) {
	return a.Search(ctx, browseQuery, page)
}

// Search fetches one page of results, translating the page number into the
// offset/limit scheme the API expects.
func (a *Adapter) Search(ctx context.Context, query string, page int) (*book.Page, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * a.pageSize

	if err := a.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/search.json?q=%s&limit=%d&offset=%d",
		a.baseURL, url.QueryEscape(query), a.pageSize, offset)

	var raw searchResponse
	if err := a.client.GetJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}

	results := make([]book.Book, 0, len(raw.Docs))
	for i := range raw.Docs {
		if b := a.toBook(&raw.Docs[i]); b != nil {
			results = append(results, *b)
		}
	}

	return &book.Page{
		Count:    raw.NumFound,
		Next:     nextToken(page, offset+a.pageSize < raw.NumFound),
		Previous: previousToken(page),
		Results:  results,
		Source:   book.SourceOpenLibrary,
	}, nil
}

// FetchByID fetches a single work. Accepts both "/works/OL...W" and the bare
// "OL...W" key; anything else is not recognized as belonging to this catalog.
func (a *Adapter) FetchByID(ctx context.Context, id string) (*book.Book, error) {
	key, ok := normalizeWorkKey(id)
	if !ok {
		return nil, errors.NewNotFoundError(id, 1)
	}

	if err := a.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var raw workResponse
	endpoint := fmt.Sprintf("%s/works/%s.json", a.baseURL, key)
	if err := a.client.GetJSON(ctx, endpoint, &raw); err != nil {
		if fetch.IsStatus(err, http.StatusNotFound) {
			return nil, errors.NewNotFoundError(id, 1)
		}
		return nil, err
	}

	if raw.Title == "" && len(raw.Authors) == 0 {
		return nil, errors.NewNotFoundError(id, 1)
	}

	b := &book.Book{
		ID:          worksPrefix + key,
		Title:       book.NormalizeTitle(raw.Title),
		Authors:     a.fetchAuthors(ctx, &raw),
		Subjects:    raw.Subjects,
		Formats:     map[string]string{},
		Source:      book.SourceOpenLibrary,
		Description: extractDescription(raw.Description),
	}

	if len(raw.Covers) > 0 && raw.Covers[0] > 0 {
		b.CoverID = raw.Covers[0]
		b.Formats[book.FormatCover] = a.coverURL(raw.Covers[0])
	}

	return b, nil
}

// fetchAuthors resolves author names behind their keys. Lookups for one work
// run concurrently with all-settle semantics; a failed lookup substitutes
// "Unknown Author" rather than aborting the whole book.
func (a *Adapter) fetchAuthors(ctx context.Context, raw *workResponse) []book.Author {
	tasks := make([]settle.Task[book.Author], 0, len(raw.Authors))
	for _, entry := range raw.Authors {
		key := entry.Author.Key
		tasks = append(tasks, func(ctx context.Context) (book.Author, error) {
			return a.fetchAuthor(ctx, key)
		})
	}

	results := settle.All(ctx, tasks...)

	authors := make([]book.Author, 0, len(results.Outcomes))
	for _, outcome := range results.Outcomes {
		if outcome.Err != nil {
			slog.Debug("Author lookup failed, substituting placeholder", "error", outcome.Err)
			authors = append(authors, book.Author{Name: book.UnknownAuthor})
			continue
		}
		authors = append(authors, outcome.Value)
	}

	return book.NormalizeAuthors(authors)
}

func (a *Adapter) fetchAuthor(ctx context.Context, key string) (book.Author, error) {
	if key == "" {
		return book.Author{}, fmt.Errorf("empty author key")
	}
	if err := a.rateLimiter.Wait(ctx); err != nil {
		return book.Author{}, err
	}

	// Keys arrive as "/authors/OL...A".
	endpoint := fmt.Sprintf("%s%s.json", a.baseURL, key)

	var raw authorResponse
	if err := a.client.GetJSON(ctx, endpoint, &raw); err != nil {
		return book.Author{}, err
	}
	if raw.Name == "" {
		return book.Author{Name: book.UnknownAuthor}, nil
	}
	return book.Author{Name: raw.Name}, nil
}

// toBook converts a raw search doc to the canonical shape. Returns nil for
// malformed records so one bad doc does not lose the rest of a page.
func (a *Adapter) toBook(doc *searchDoc) *book.Book {
	if doc == nil || doc.Key == "" {
		return nil
	}

	authors := make([]book.Author, 0, len(doc.AuthorName))
	for _, name := range doc.AuthorName {
		if name == "" {
			continue
		}
		authors = append(authors, book.Author{Name: name})
	}

	b := &book.Book{
		ID:            doc.Key,
		Title:         book.NormalizeTitle(doc.Title),
		Authors:       book.NormalizeAuthors(authors),
		Subjects:      doc.Subject,
		Formats:       map[string]string{},
		DownloadCount: doc.EditionCount,
		Source:        book.SourceOpenLibrary,
	}

	if doc.CoverID > 0 {
		b.CoverID = doc.CoverID
		b.Formats[book.FormatCover] = a.coverURL(doc.CoverID)
	}
	if doc.FirstPublishYear > 0 {
		b.PublishDate = fmt.Sprintf("%d", doc.FirstPublishYear)
	}
	if len(doc.IA) > 0 {
		b.IAIdentifier = doc.IA[0]
	}
	if len(doc.Language) > 0 {
		b.Language = doc.Language[0]
	}

	return b
}

// coverURL synthesizes a cover image URL from a numeric cover id.
func (a *Adapter) coverURL(coverID int) string {
	return fmt.Sprintf("%s/b/id/%d-L.jpg", a.coversBaseURL, coverID)
}

// normalizeWorkKey strips the "/works/" prefix and validates the key shape.
func normalizeWorkKey(id string) (string, bool) {
	key := strings.TrimPrefix(id, worksPrefix)
	if !strings.HasPrefix(key, "OL") || !strings.HasSuffix(key, "W") {
		return "", false
	}
	return key, true
}

func nextToken(page int, hasMore bool) *string {
	if !hasMore {
		return nil
	}
	token := fmt.Sprintf("%d", page+1)
	return &token
}

func previousToken(page int) *string {
	if page <= 1 {
		return nil
	}
	token := fmt.Sprintf("%d", page-1)
	return &token
}

// extractDescription handles the two forms a work description can take.
func extractDescription(desc any) string {
	switch v := desc.(type) {
	case string:
		return v
	case map[string]any:
		if value, ok := v["value"].(string); ok {
			return value
		}
	}
	return ""
}

type searchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

type searchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	Subject          []string `json:"subject"`
	CoverID          int      `json:"cover_i"`
	EditionCount     int      `json:"edition_count"`
	FirstPublishYear int      `json:"first_publish_year"`
	IA               []string `json:"ia"`
	Language         []string `json:"language"`
}

type workResponse struct {
	Title       string   `json:"title"`
	Description any      `json:"description"`
	Covers      []int    `json:"covers"`
	Subjects    []string `json:"subjects"`
	Authors     []struct {
		Author struct {
			Key string `json:"key"`
		} `json:"author"`
	} `json:"authors"`
}

type authorResponse struct {
	Name string `json:"name"`
}
