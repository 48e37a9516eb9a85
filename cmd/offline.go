package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// OfflineCmd groups the offline cache operations.
type OfflineCmd struct {
	Save   OfflineSaveCmd   `cmd:"" help:"Download a book into the offline cache"`
	Remove OfflineRemoveCmd `cmd:"" help:"Remove a book from the offline cache"`
	Stats  OfflineStatsCmd  `cmd:"" help:"Show offline cache statistics"`
	Clear  OfflineClearCmd  `cmd:"" help:"Empty the offline cache"`
}

// OfflineSaveCmd resolves a book and caches its metadata and text.
// When no text candidate works the metadata is still cached.
type OfflineSaveCmd struct {
	ID string `arg:"" help:"Book identifier"`
}

func (c *OfflineSaveCmd) Run() error {
	ctx := context.Background()
	a := newApp()

	b, err := a.resolver.ResolveByID(ctx, c.ID)
	if err != nil {
		return err
	}

	store, err := openOfflineStore()
	if err != nil {
		return err
	}
	defer store.Close()

	err = store.Save(ctx, b, func(ctx context.Context) (string, error) {
		return a.content.ResolveContent(ctx, b)
	})
	if err != nil {
		return err
	}

	slog.Info("Cached for offline reading", "id", b.ID, "title", b.Title)
	return nil
}

type OfflineRemoveCmd struct {
	ID string `arg:"" help:"Book identifier"`
}

func (c *OfflineRemoveCmd) Run() error {
	store, err := openOfflineStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Remove(context.Background(), c.ID); err != nil {
		return err
	}
	slog.Info("Removed from offline cache", "id", c.ID)
	return nil
}

type OfflineClearCmd struct{}

func (c *OfflineClearCmd) Run() error {
	store, err := openOfflineStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(context.Background()); err != nil {
		return err
	}
	slog.Info("Offline cache cleared")
	return nil
}

type OfflineStatsCmd struct{}

func (c *OfflineStatsCmd) Run() error {
	store, err := openOfflineStore()
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Books cached:  %d\n", stats.TotalBooks)
	fmt.Printf("With text:     %d\n", stats.BooksWithContent)
	fmt.Printf("Text size:     %d bytes\n", stats.TotalSize)

	if len(stats.BySource) > 0 {
		fmt.Println("By source:")
		names := make([]string, 0, len(stats.BySource))
		for name := range stats.BySource {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-12s %d\n", name, stats.BySource[name])
		}
	}
	return nil
}
