package library

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/skyrrd/alexandria/internal/book"
)

// noteFrontmatter is the YAML header written at the top of each exported
// markdown note.
type noteFrontmatter struct {
	Title    string   `yaml:"title"`
	Authors  []string `yaml:"authors"`
	Source   string   `yaml:"source"`
	BookID   string   `yaml:"book_id"`
	Subjects []string `yaml:"subjects,omitempty"`
	SavedAt  string   `yaml:"saved_at"`
	Language string   `yaml:"language,omitempty"`
}

// ExportMarkdown writes every saved book as a markdown note with YAML
// frontmatter under dir and returns how many notes were written.
func (s *Store) ExportMarkdown(ctx context.Context, dir string) (int, error) {
	books, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating export directory: %w", err)
	}

	written := 0
	for i := range books {
		note, err := renderNote(&books[i])
		if err != nil {
			return written, err
		}

		path := filepath.Join(dir, noteFilename(&books[i].Book))
		if err := os.WriteFile(path, note, 0o644); err != nil {
			return written, fmt.Errorf("writing note %s: %w", path, err)
		}
		written++
	}

	return written, nil
}

func renderNote(saved *book.SavedBook) ([]byte, error) {
	authors := make([]string, 0, len(saved.Authors))
	for _, author := range saved.Authors {
		authors = append(authors, author.Name)
	}

	fm := noteFrontmatter{
		Title:    saved.Title,
		Authors:  authors,
		Source:   saved.Source.String(),
		BookID:   saved.ID,
		Subjects: saved.Subjects,
		SavedAt:  saved.SavedAt.UTC().Format("2006-01-02"),
		Language: saved.Language,
	}

	header, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	buf.WriteString("# " + saved.Title + "\n")
	if saved.Description != "" {
		buf.WriteString("\n" + saved.Description + "\n")
	}
	if saved.Notes != "" {
		buf.WriteString("\n## Notes\n\n" + saved.Notes + "\n")
	}

	return buf.Bytes(), nil
}

// noteFilename derives a filesystem-safe name from the book's title and id.
func noteFilename(b *book.Book) string {
	base := b.Title
	if base == "" || base == book.UnknownTitle {
		base = b.ID
	}

	var sb strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			sb.WriteRune('-')
		}
	}

	name := strings.Trim(sb.String(), "-")
	if name == "" {
		name = "book"
	}
	return name + ".md"
}
