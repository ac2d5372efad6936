package articles

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileCatalogReadsTitlesInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.txt")
	content := "Alan Turing\n\n# drafts\n  Grace Hopper  \nAda Lovelace"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	catalog, err := NewFileCatalog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	titles, err := catalog.Titles(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Alan Turing", "Grace Hopper", "Ada Lovelace"}
	if len(titles) != len(want) {
		t.Fatalf("expected %d titles, got %v", len(want), titles)
	}
	for index := range want {
		if titles[index] != want[index] {
			t.Fatalf("title %d: got %q want %q", index, titles[index], want[index])
		}
	}
}

func TestFileCatalogMissingFileIsEmpty(t *testing.T) {
	catalog, err := NewFileCatalog(filepath.Join(t.TempDir(), "absent.txt"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	titles, err := catalog.Titles(context.Background())
	if err != nil || len(titles) != 0 {
		t.Fatalf("expected empty list, got %v (%v)", titles, err)
	}

	if _, err := NewFileCatalog(" "); err == nil {
		t.Fatalf("expected blank path to be rejected")
	}
}
