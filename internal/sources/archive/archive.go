// Package archive adapts the Internet Archive full-text catalog to the
// common Source interface. Identifiers are free-form strings; content and
// cover URLs are synthesized entirely from the identifier.
package archive

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/skyrrd/alexandria/internal/book"
	"github.com/skyrrd/alexandria/internal/errors"
	"github.com/skyrrd/alexandria/internal/fetch"
	"github.com/skyrrd/alexandria/internal/ratelimit"
)

const (
	defaultBaseURL       = "https://archive.org"
	defaultPageSize      = 20
	defaultRatePerSecond = 1

	// mediaFilter scopes every search to readable public-domain texts.
	// The advanced search API requires the caller to AND these in.
	mediaFilter = "mediatype:(texts) AND collection:(gutenberg OR opensource)"
)

// Adapter is the Internet Archive catalog adapter.
type Adapter struct {
	client      *fetch.Client
	rateLimiter *ratelimit.Limiter
	baseURL     string
	pageSize    int
}

// Compile-time check that Adapter implements book.Source.
var _ book.Source = (*Adapter)(nil)

// New creates an Internet Archive adapter using the given HTTP client.
func New(client *fetch.Client, opts ...Option) *Adapter {
	a := &Adapter{
		client:      client,
		rateLimiter: ratelimit.New("InternetArchive", defaultRatePerSecond),
		baseURL:     defaultBaseURL,
		pageSize:    defaultPageSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Option is a functional option for configuring the Adapter.
type Option func(*Adapter)

// WithBaseURL sets a custom base URL for the archive API.
func WithBaseURL(base string) Option {
	return func(a *Adapter) {
		if base != "" {
			a.baseURL = strings.TrimSuffix(base, "/")
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
	return book.SourceArchive
}

// List fetches one page of the texts collection, most downloaded first.
func (a *Adapter) List(ctx context.Context, page int) (*book.Page, error) {
	return a.search(ctx, mediaFilter, page)
}

// Search fetches one page of results, ANDing in the collection and media
// type filters the archive's query language requires.
func (a *Adapter) Search(ctx context.Context, query string, page int) (*book.Page, error) {
	q := fmt.Sprintf("(%s) AND %s", query, mediaFilter)
	return a.search(ctx, q, page)
}

// FetchByID fetches a single item via the metadata endpoint. The archive
// answers an empty document for unknown identifiers rather than a 404.
func (a *Adapter) FetchByID(ctx context.Context, id string) (*book.Book, error) {
	if id == "" || strings.ContainsAny(id, "/ ") {
		return nil, errors.NewNotFoundError(id, 1)
	}

	if err := a.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var raw metadataResponse
	endpoint := fmt.Sprintf("%s/metadata/%s", a.baseURL, url.PathEscape(id))
	if err := a.client.GetJSON(ctx, endpoint, &raw); err != nil {
		if fetch.IsStatus(err, http.StatusNotFound) {
			return nil, errors.NewNotFoundError(id, 1)
		}
		return nil, err
	}

	if raw.Metadata.Identifier == "" {
		return nil, errors.NewNotFoundError(id, 1)
	}

	doc := searchDoc{
		Identifier: raw.Metadata.Identifier,
		Title:      raw.Metadata.Title,
		Creator:    raw.Metadata.Creator,
		Year:       raw.Metadata.Date,
		Language:   raw.Metadata.Language,
	}
	b := a.toBook(&doc)
	if b == nil {
		return nil, errors.NewNotFoundError(id, 1)
	}
	b.Description = strings.Join(raw.Metadata.Description.Values(), "\n\n")
	b.Publisher = raw.Metadata.Publisher
	if subjects := raw.Metadata.Subject.Values(); len(subjects) > 0 {
		b.Subjects = subjects
	}
	return b, nil
}

func (a *Adapter) search(ctx context.Context, query string, page int) (*book.Page, error) {
	if page < 1 {
		page = 1
	}

	if err := a.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("fl[]", "identifier,title,creator,downloads,year,language")
	params.Set("sort[]", "downloads desc")
	params.Set("rows", fmt.Sprintf("%d", a.pageSize))
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("output", "json")

	endpoint := fmt.Sprintf("%s/advancedsearch.php?%s", a.baseURL, params.Encode())

	var raw searchResponse
	if err := a.client.GetJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}

	results := make([]book.Book, 0, len(raw.Response.Docs))
	for i := range raw.Response.Docs {
		if b := a.toBook(&raw.Response.Docs[i]); b != nil {
			results = append(results, *b)
		}
	}

	hasMore := page*a.pageSize < raw.Response.NumFound
	return &book.Page{
		Count:    raw.Response.NumFound,
		Next:     pageToken(page+1, hasMore),
		Previous: pageToken(page-1, page > 1),
		Results:  results,
		Source:   book.SourceArchive,
	}, nil
}

// toBook converts a raw search doc to the canonical shape. Returns nil for
// malformed records so one bad doc does not lose the rest of a page.
func (a *Adapter) toBook(doc *searchDoc) *book.Book {
	if doc == nil || doc.Identifier == "" {
		return nil
	}

	authors := make([]book.Author, 0, 1)
	for _, name := range doc.Creator.Values() {
		if name == "" {
			continue
		}
		authors = append(authors, book.Author{Name: name})
	}

	b := &book.Book{
		ID:            doc.Identifier,
		Title:         book.NormalizeTitle(doc.Title),
		Authors:       book.NormalizeAuthors(authors),
		Formats:       a.formatURLs(doc.Identifier),
		DownloadCount: doc.Downloads,
		Source:        book.SourceArchive,
		IAIdentifier:  doc.Identifier,
		PublishDate:   doc.Year.First(),
	}
	b.Language = doc.Language.First()

	return b
}

// formatURLs synthesizes content and cover URLs from the identifier using
// the archive's fixed URL patterns.
func (a *Adapter) formatURLs(id string) map[string]string {
	return map[string]string{
		book.FormatPDF:   fmt.Sprintf("%s/download/%s/%s.pdf", a.baseURL, id, id),
		book.FormatCover: fmt.Sprintf("%s/services/img/%s", a.baseURL, id),
	}
}

// StreamTextURL returns the OCR-derived plain text URL for an identifier.
// Exposed because books from other catalogs that carry an archive identifier
// use the same pattern.
func StreamTextURL(baseURL, id string) string {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return fmt.Sprintf("%s/stream/%s/%s_djvu.txt", strings.TrimSuffix(baseURL, "/"), id, id)
}

// DetailsURL returns the raw HTML details page for an identifier.
func DetailsURL(baseURL, id string) string {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return fmt.Sprintf("%s/details/%s", strings.TrimSuffix(baseURL, "/"), id)
}

func pageToken(page int, ok bool) *string {
	if !ok || page < 1 {
		return nil
	}
	token := fmt.Sprintf("%d", page)
	return &token
}

type searchResponse struct {
	Response struct {
		NumFound int         `json:"numFound"`
		Docs     []searchDoc `json:"docs"`
	} `json:"response"`
}

type searchDoc struct {
	Identifier string       `json:"identifier"`
	Title      string       `json:"title"`
	Creator    stringOrList `json:"creator"`
	Downloads  int          `json:"downloads"`
	Year       stringOrList `json:"year"`
	Language   stringOrList `json:"language"`
}

type metadataResponse struct {
	Metadata struct {
		Identifier  string       `json:"identifier"`
		Title       string       `json:"title"`
		Creator     stringOrList `json:"creator"`
		Description stringOrList `json:"description"`
		Subject     stringOrList `json:"subject"`
		Date        stringOrList `json:"date"`
		Publisher   string       `json:"publisher"`
		Language    stringOrList `json:"language"`
	} `json:"metadata"`
}
