package dircast

import (
	"strings"

	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// pathRef ties a cast entry to its path relative to some subtree root
type pathRef struct {
	Index int
	Path  string
}

// pathSet is a skiplist of pathRefs ordered by relative path. The context
// string of each item tracks whether the entry has been matched.
type pathSet struct {
	skiplist *zcsl.ZeroCopySkiplist[pathRef, string, string]
}

// newPathSet creates an empty path set
func newPathSet(maxLevels int) *pathSet {
	if maxLevels < 8 {
		maxLevels = 16
	}

	getKeyFromItem := func(ref *pathRef) string {
		return ref.Path
	}

	getItemSize := func(ref *pathRef) int {
		return len(ref.Path)
	}

	cmpKey := func(a, b string) int {
		return strings.Compare(a, b)
	}

	return &pathSet{
		skiplist: zcsl.MakeZeroCopySkiplist[pathRef, string, string](
			maxLevels,
			getKeyFromItem,
			getItemSize,
			cmpKey,
		),
	}
}

// subtreePathSet holds every descendant of root with context UnmatchedContext
func subtreePathSet(c *Cast, root int) *pathSet {
	ps := newPathSet(levelsFor(c.Len()))
	for _, idx := range c.Descendants(root, MaskAll, true) {
		ps.Insert(pathRef{Index: idx, Path: c.PathOf(idx, root)}, UnmatchedContext)
	}
	return ps
}

// levelsFor picks a skiplist height for n items
func levelsFor(n int) int {
	levels := 1
	for n > 1 {
		n >>= 1
		levels++
	}
	return levels
}

// Insert adds a pathRef with a specific context
func (ps *pathSet) Insert(ref pathRef, context string) bool {
	return ps.skiplist.Insert(&ref, context)
}

// Find returns the entry stored for path and its context
func (ps *pathSet) Find(path string) (*pathRef, string) {
	itemPtr, context := ps.skiplist.Find(path)
	if itemPtr != nil {
		return itemPtr.Item(), context
	}
	return nil, ""
}

// Mark moves the entry for path to a new context
func (ps *pathSet) Mark(path string, context string) bool {
	return ps.skiplist.UpdateContext(path, context)
}

// ForEachContext iterates entries with the given context in path order
func (ps *pathSet) ForEachContext(context string, callback func(*pathRef) bool) {
	for current := ps.skiplist.First(); current != nil; current = current.Next() {
		if current.Context() != context {
			continue
		}
		if !callback(current.Item()) {
			break
		}
	}
}

// Length returns the number of entries in the set
func (ps *pathSet) Length() int {
	return ps.skiplist.Length()
}
