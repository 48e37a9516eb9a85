// Package gutendex adapts the Gutendex bibliographic catalog to the common
// Source interface. Gutendex uses integer book ids and supplies full-text
// URLs directly on each record.
package gutendex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/skyrrd/alexandria/internal/book"
	"github.com/skyrrd/alexandria/internal/errors"
	"github.com/skyrrd/alexandria/internal/fetch"
	"github.com/skyrrd/alexandria/internal/ratelimit"
)

const (
	defaultBaseURL       = "https://gutendex.com"
	defaultRatePerSecond = 2
)

// Adapter is the Gutendex catalog adapter.
type Adapter struct {
	client      *fetch.Client
	rateLimiter *ratelimit.Limiter
	baseURL     string
}

// Compile-time check that Adapter implements book.Source.
var _ book.Source = (*Adapter)(nil)

// New creates a Gutendex adapter using the given HTTP client.
func New(client *fetch.Client, opts ...Option) *Adapter {
	a := &Adapter{
		client:      client,
		rateLimiter: ratelimit.New("Gutendex", defaultRatePerSecond),
		baseURL:     defaultBaseURL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Option is a functional option for configuring the Adapter.
type Option func(*Adapter)

// WithBaseURL sets a custom base URL for the Gutendex API.
func WithBaseURL(base string) Option {
	return func(a *Adapter) {
		if base != "" {
			a.baseURL = strings.TrimSuffix(base, "/")
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
	return book.SourceGutendex
}

// List fetches one page of the catalog.
func (a *Adapter) List(ctx context.Context, page int) (*book.Page, error) {
	endpoint := fmt.Sprintf("%s/books?page=%d", a.baseURL, page)
	return a.fetchPage(ctx, endpoint)
}

// Search fetches one page of results for the given query.
func (a *Adapter) Search(ctx context.Context, query string, page int) (*book.Page, error) {
	endpoint := fmt.Sprintf("%s/books?search=%s&page=%d", a.baseURL, url.QueryEscape(query), page)
	return a.fetchPage(ctx, endpoint)
}

// FetchByID fetches a single book. Gutendex ids are integers; anything else
// is not recognized as belonging to this catalog.
func (a *Adapter) FetchByID(ctx context.Context, id string) (*book.Book, error) {
	if _, err := strconv.Atoi(id); err != nil {
		return nil, errors.NewNotFoundError(id, 1)
	}

	if err := a.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var raw bookRecord
	endpoint := fmt.Sprintf("%s/books/%s", a.baseURL, id)
	if err := a.client.GetJSON(ctx, endpoint, &raw); err != nil {
		if fetch.IsStatus(err, http.StatusNotFound) {
			return nil, errors.NewNotFoundError(id, 1)
		}
		return nil, err
	}

	b := a.toBook(&raw)
	if b == nil {
		return nil, errors.NewNotFoundError(id, 1)
	}
	return b, nil
}

func (a *Adapter) fetchPage(ctx context.Context, endpoint string) (*book.Page, error) {
	if err := a.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var raw pageResponse
	if err := a.client.GetJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}

	results := make([]book.Book, 0, len(raw.Results))
	for i := range raw.Results {
		if b := a.toBook(&raw.Results[i]); b != nil {
			results = append(results, *b)
		}
	}

	return &book.Page{
		Count:    raw.Count,
		Next:     raw.Next,
		Previous: raw.Previous,
		Results:  results,
		Source:   book.SourceGutendex,
	}, nil
}

// toBook converts a raw Gutendex record to the canonical shape. Returns nil
// for malformed records so one bad record does not lose the rest of a page.
func (a *Adapter) toBook(raw *bookRecord) *book.Book {
	if raw == nil || raw.ID <= 0 {
		return nil
	}

	authors := make([]book.Author, 0, len(raw.Authors))
	for _, author := range raw.Authors {
		if author.Name == "" {
			continue
		}
		authors = append(authors, book.Author{
			Name:      author.Name,
			BirthYear: author.BirthYear,
			DeathYear: author.DeathYear,
		})
	}

	b := &book.Book{
		ID:            strconv.Itoa(raw.ID),
		Title:         book.NormalizeTitle(raw.Title),
		Authors:       book.NormalizeAuthors(authors),
		Subjects:      raw.Subjects,
		Formats:       raw.Formats,
		DownloadCount: raw.DownloadCount,
		Source:        book.SourceGutendex,
	}

	if len(raw.Languages) > 0 {
		b.Language = raw.Languages[0]
	}

	return b
}

type pageResponse struct {
	Count    int          `json:"count"`
	Next     *string      `json:"next"`
	Previous *string      `json:"previous"`
	Results  []bookRecord `json:"results"`
}

type bookRecord struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Authors []struct {
		Name      string `json:"name"`
		BirthYear *int   `json:"birth_year"`
		DeathYear *int   `json:"death_year"`
	} `json:"authors"`
	Subjects      []string          `json:"subjects"`
	Languages     []string          `json:"languages"`
	Formats       map[string]string `json:"formats"`
	DownloadCount int               `json:"download_count"`
}
