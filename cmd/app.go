package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/skyrrd/alexandria/internal/aggregate"
	"github.com/skyrrd/alexandria/internal/book"
	"github.com/skyrrd/alexandria/internal/config"
	"github.com/skyrrd/alexandria/internal/fetch"
	"github.com/skyrrd/alexandria/internal/library"
	"github.com/skyrrd/alexandria/internal/offline"
	"github.com/skyrrd/alexandria/internal/resolve"
	"github.com/skyrrd/alexandria/internal/sources/archive"
	"github.com/skyrrd/alexandria/internal/sources/gutendex"
	"github.com/skyrrd/alexandria/internal/sources/openlibrary"
	"github.com/spf13/viper"
)

// app holds the wired-up pipeline shared by all commands. Catalog
// adapters are ordered by identifier precedence, so the slice order
// matters to the resolver.
type app struct {
	client     *fetch.Client
	sources    []book.Source
	aggregator *aggregate.Aggregator
	resolver   *resolve.IdentifierResolver
	content    *resolve.ContentResolver
}

func newApp() *app {
	opts := []fetch.Option{
		fetch.WithRetries(viper.GetInt("http.retries")),
		fetch.WithTimeout(viper.GetDuration("http.timeout")),
	}
	if config.ProxyURL != "" {
		opts = append(opts, fetch.WithProxy(config.ProxyURL))
	}
	client := fetch.NewClient(opts...)

	sources := []book.Source{
		gutendex.New(client),
		openlibrary.New(client),
		archive.New(client),
	}

	return &app{
		client:     client,
		sources:    sources,
		aggregator: aggregate.New(sources, aggregate.WithPageSize(viper.GetInt("page_size"))),
		resolver:   resolve.NewIdentifierResolver(sources),
		content:    resolve.NewContentResolver(client),
	}
}

func openOfflineStore() (*offline.Store, error) {
	return offline.Open(viper.GetString("offline.dbfile"))
}

func openLibraryStore() (*library.Store, error) {
	return library.Open(viper.GetString("library.dbfile"), config.UserID)
}

// printPage renders a combined result page as an aligned table.
func printPage(w io.Writer, page *book.Page) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHORS\tSOURCE")
	for i := range page.Results {
		b := &page.Results[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.ID, b.Title, authorNames(b), b.Source)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d results total\n", page.Count)
}

func printBook(w io.Writer, b *book.Book) {
	fmt.Fprintf(w, "Title:    %s\n", b.Title)
	fmt.Fprintf(w, "Authors:  %s\n", authorNames(b))
	fmt.Fprintf(w, "Source:   %s\n", b.Source)
	fmt.Fprintf(w, "ID:       %s\n", b.ID)
	if b.Language != "" {
		fmt.Fprintf(w, "Language: %s\n", b.Language)
	}
	if len(b.Subjects) > 0 {
		fmt.Fprintf(w, "Subjects: %s\n", strings.Join(b.Subjects, ", "))
	}
	if b.Description != "" {
		fmt.Fprintf(w, "\n%s\n", b.Description)
	}
}

func authorNames(b *book.Book) string {
	names := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		names = append(names, a.Name)
	}
	return strings.Join(names, "; ")
}
