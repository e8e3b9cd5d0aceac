package dircast

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTree creates files under root. Keys ending in "/" create directories.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			if err := os.MkdirAll(full, 0755); err != nil {
				t.Fatalf("Failed to create directory %s: %v", rel, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("Failed to create parent of %s: %v", rel, err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", rel, err)
		}
	}
}

// buildTree writes files into a fresh temp directory and builds a cast of it
func buildTree(t *testing.T, files map[string]string) (*Cast, string) {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, files)
	c, err := Build(context.Background(), root, BuildOptions{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return c, root
}

// mustIndex resolves a root-relative path or fails the test
func mustIndex(t *testing.T, c *Cast, path string) int {
	t.Helper()
	idx, ok := c.IndexOf(path, c.Root())
	if !ok {
		t.Fatalf("Path %q not found in cast", path)
	}
	return idx
}

// fileEntry makes a file entry with fixed fake digests derived from tag
func fileEntry(parent int, name string, size int64, tag string) Entry {
	return Entry{
		Parent: parent,
		Kind:   KindFile,
		Name:   name,
		Size:   size,
		File:   FileStats{Checksum: tag + "0a", Digest: tag + "0b"},
	}
}

func dirEntry(parent int, name string) Entry {
	return Entry{Parent: parent, Kind: KindDirectory, Name: name}
}

// castOf aggregates entries and wraps them in a Cast
func castOf(t *testing.T, entries ...Entry) *Cast {
	t.Helper()
	aggregate(entries)
	c, err := NewCast(entries)
	if err != nil {
		t.Fatalf("NewCast failed: %v", err)
	}
	return c
}
