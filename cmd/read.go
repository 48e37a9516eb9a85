package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/skyrrd/alexandria/internal/errors"
)

// ReadCmd fetches a book's full text. Identifiers from any catalog are
// accepted; the resolver tries Gutendex, then Open Library, then the
// archive. With --offline the cache is consulted instead of the network.
type ReadCmd struct {
	ID      string `arg:"" help:"Book identifier (Gutendex number, Open Library work key, or archive.org identifier)"`
	Output  string `short:"o" help:"Write the text to a file instead of stdout"`
	Offline bool   `help:"Read from the offline cache only"`
	Info    bool   `help:"Show book metadata instead of the text"`
}

func (r *ReadCmd) Run() error {
	ctx := context.Background()

	if r.Offline {
		return r.runOffline(ctx)
	}

	a := newApp()

	b, err := a.resolver.ResolveByID(ctx, r.ID)
	if err != nil {
		return err
	}

	if r.Info {
		printBook(os.Stdout, b)
		return nil
	}

	text, err := a.content.ResolveContent(ctx, b)
	if err != nil {
		return err
	}

	return r.write(text)
}

func (r *ReadCmd) runOffline(ctx context.Context) error {
	store, err := openOfflineStore()
	if err != nil {
		return err
	}
	defer store.Close()

	b, err := store.Get(ctx, r.ID)
	if err != nil {
		return err
	}
	if b == nil {
		return errors.NewNotFoundError(r.ID, 1)
	}

	if r.Info {
		printBook(os.Stdout, b)
		return nil
	}

	text, ok, err := store.GetContent(ctx, r.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no cached text for %q, only metadata is stored", r.ID)
	}

	return r.write(text)
}

func (r *ReadCmd) write(text string) error {
	if r.Output == "" {
		fmt.Print(text)
		return nil
	}

	if err := os.WriteFile(r.Output, []byte(text), 0644); err != nil {
		return err
	}
	slog.Info("Wrote book text", "file", r.Output, "bytes", len(text))
	return nil
}
