package document

import (
	"fmt"
	"os"
	"strings"
)

// TextFile reads a pre-extracted payslip document: one text file with pages
// separated by form feeds, as produced by upstream text extraction.
type TextFile struct {
	pages []string
}

var _ Reader = (*TextFile)(nil)

// OpenTextFile loads a form-feed separated page file.
func OpenTextFile(path string) (*TextFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	return NewTextDocument(string(data)), nil
}

// NewTextDocument splits raw text into pages on form feeds.
func NewTextDocument(text string) *TextFile {
	return &TextFile{pages: strings.Split(text, "\f")}
}

func (t *TextFile) PageCount() int { return len(t.pages) }

func (t *TextFile) PageText(index int) (string, error) {
	if index < 0 || index >= len(t.pages) {
		return "", fmt.Errorf("page %d out of range (document has %d pages)", index+1, len(t.pages))
	}
	return t.pages[index], nil
}

// SavePage writes one page as its own text file.
func (t *TextFile) SavePage(index int, base string) (string, error) {
	text, err := t.PageText(index)
	if err != nil {
		return "", err
	}
	path := base + ".txt"
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("save page %d: %w", index+1, err)
	}
	return path, nil
}
