package articles

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

var errMissingPath = errors.New("articles: catalog path is required")

// FileCatalog lists article titles kept one per line in a text file. The file
// is re-read on every call so edits show up without a restart.
type FileCatalog struct {
	path string
}

// NewFileCatalog returns a catalog backed by path.
func NewFileCatalog(path string) (*FileCatalog, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errMissingPath
	}
	return &FileCatalog{path: trimmed}, nil
}

// Titles returns the listed titles in file order. Blank lines and lines
// starting with "#" are ignored. A missing file yields an empty list.
func (c *FileCatalog) Titles(ctx context.Context) ([]string, error) {
	file, err := os.Open(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("articles: open %s: %w", c.path, err)
	}
	defer file.Close()

	titles := []string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		titles = append(titles, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("articles: read %s: %w", c.path, err)
	}
	return titles, nil
}
