package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/skyrrd/alexandria/internal/covers"
	"github.com/spf13/viper"
)

// LibraryCmd groups the personal library operations.
type LibraryCmd struct {
	Save   LibrarySaveCmd   `cmd:"" help:"Save a book to the library"`
	Remove LibraryRemoveCmd `cmd:"" help:"Remove a book from the library"`
	List   LibraryListCmd   `cmd:"" help:"List saved books, newest first"`
	Notes  LibraryNotesCmd  `cmd:"" help:"Replace the notes on a saved book"`
	Export LibraryExportCmd `cmd:"" help:"Export the library as markdown notes"`
}

// LibrarySaveCmd resolves a book over the network and saves it.
type LibrarySaveCmd struct {
	ID    string `arg:"" help:"Book identifier"`
	Notes string `short:"n" help:"Notes to attach"`
	Cover bool   `help:"Also download the cover image"`
}

func (c *LibrarySaveCmd) Run() error {
	ctx := context.Background()
	a := newApp()

	b, err := a.resolver.ResolveByID(ctx, c.ID)
	if err != nil {
		return err
	}

	store, err := openLibraryStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(ctx, b, c.Notes); err != nil {
		return err
	}
	slog.Info("Saved to library", "id", b.ID, "title", b.Title)

	if c.Cover {
		fetcher := covers.NewFetcher(a.client, viper.GetString("covers.dir"))
		path, err := fetcher.Fetch(ctx, b)
		if err != nil {
			// A missing cover does not undo the save.
			slog.Warn("Cover download failed", "id", b.ID, "error", err)
			return nil
		}
		slog.Info("Saved cover", "file", path)
	}
	return nil
}

type LibraryRemoveCmd struct {
	ID string `arg:"" help:"Book identifier"`
}

func (c *LibraryRemoveCmd) Run() error {
	store, err := openLibraryStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Remove(context.Background(), c.ID); err != nil {
		return err
	}
	slog.Info("Removed from library", "id", c.ID)
	return nil
}

type LibraryListCmd struct{}

func (c *LibraryListCmd) Run() error {
	store, err := openLibraryStore()
	if err != nil {
		return err
	}
	defer store.Close()

	saved, err := store.List(context.Background())
	if err != nil {
		return err
	}
	if len(saved) == 0 {
		fmt.Println("Library is empty.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSOURCE\tSAVED\tNOTES")
	for i := range saved {
		s := &saved[i]
		notes := ""
		if s.Notes != "" {
			notes = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.Book.ID, s.Book.Title, s.Book.Source, s.SavedAt.Format("2006-01-02"), notes)
	}
	return tw.Flush()
}

type LibraryNotesCmd struct {
	ID    string `arg:"" help:"Book identifier"`
	Notes string `arg:"" help:"New notes text"`
}

func (c *LibraryNotesCmd) Run() error {
	store, err := openLibraryStore()
	if err != nil {
		return err
	}
	defer store.Close()

	return store.UpdateNotes(context.Background(), c.ID, c.Notes)
}

type LibraryExportCmd struct {
	Dir string `arg:"" optional:"" help:"Output directory for markdown notes" default:"./notes"`
}

func (c *LibraryExportCmd) Run() error {
	store, err := openLibraryStore()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.ExportMarkdown(context.Background(), c.Dir)
	if err != nil {
		return err
	}
	slog.Info("Exported library notes", "count", n, "dir", c.Dir)
	return nil
}
