package dircast

import (
	"context"
	"fmt"
	"os"
)

// EntryInfo is a read-only view of one cast entry for external tools
type EntryInfo struct {
	Index int
	Path  string // relative to the cast root, "" for the root itself
	Depth int    // 0 for the root
	Entry Entry
}

// EntryCallback is called for each entry during iteration; returning false stops it
type EntryCallback func(info *EntryInfo) bool

// IterateCast visits every entry in index order. Paths and depths are
// derived in the same pass since every parent precedes its children.
func IterateCast(c *Cast, callback EntryCallback) {
	paths := make([]string, c.Len())
	depths := make([]int, c.Len())

	for i := 0; i < c.Len(); i++ {
		e := c.Entry(i)
		if i != c.Root() {
			p := e.Parent
			depths[i] = depths[p] + 1
			if paths[p] == "" {
				paths[i] = e.Name
			} else {
				paths[i] = paths[p] + "/" + e.Name
			}
		}
		info := &EntryInfo{Index: i, Path: paths[i], Depth: depths[i], Entry: e}
		if !callback(info) {
			return
		}
	}
}

// IterateCastFile loads a saved cast and iterates over it
func IterateCastFile(path string, callback EntryCallback) error {
	c, err := LoadCast(path)
	if err != nil {
		return fmt.Errorf("failed to load cast: %w", err)
	}
	IterateCast(c, callback)
	return nil
}

// OpenSource returns the cast for path: a directory is built with opts,
// anything else is loaded as a saved cast file
func OpenSource(ctx context.Context, path string, opts BuildOptions) (*Cast, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &IOError{Op: "stat", Path: path, Err: err}
	}
	if info.IsDir() {
		VerboseLog(1, "Building cast of directory %s", path)
		return Build(ctx, path, opts)
	}
	VerboseLog(1, "Loading cast file %s", path)
	return LoadCast(path)
}
