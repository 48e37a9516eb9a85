package cmd

import (
	"context"
	"os"
)

// BrowseCmd lists popular books from every catalog on one page.
type BrowseCmd struct {
	Page int `short:"p" help:"Page number to fetch" default:"1"`
}

func (b *BrowseCmd) Run() error {
	a := newApp()

	page, err := a.aggregator.FetchAll(context.Background(), b.Page)
	if err != nil {
		return err
	}

	printPage(os.Stdout, page)
	return nil
}

// SearchCmd queries every catalog and merges the results by relevance.
type SearchCmd struct {
	Query string `arg:"" help:"Search terms"`
	Page  int    `short:"p" help:"Page number to fetch" default:"1"`
}

func (s *SearchCmd) Run() error {
	a := newApp()

	page, err := a.aggregator.SearchAll(context.Background(), s.Query, s.Page)
	if err != nil {
		return err
	}

	printPage(os.Stdout, page)
	return nil
}
