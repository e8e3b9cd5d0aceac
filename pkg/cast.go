package dircast

import (
	"fmt"
	"strings"
)

// Cast is the flattened, parent-indexed snapshot of a directory tree.
// Index 0 is the scanned root directory and every other entry's parent index
// is smaller than its own index. A Cast is never modified after it has been
// built or decoded; all navigation works on that fixed array.
type Cast struct {
	entries []Entry
}

// CastStats summarises a cast
type CastStats struct {
	Directories int   `json:"directories"`
	Files       int   `json:"files"`
	Bytes       int64 `json:"bytes"`
}

// NewCast validates entries and wraps them in a Cast. The slice is copied.
func NewCast(entries []Entry) (*Cast, error) {
	owned := make([]Entry, len(entries))
	copy(owned, entries)
	if i, err := validateEntries(owned); err != nil {
		return nil, fmt.Errorf("entry %d: %w", i, err)
	}
	return &Cast{entries: owned}, nil
}

// siblingKey identifies a name within one directory
type siblingKey struct {
	parent int
	name   string
}

// validateEntries checks the structural invariants and returns the index of the first bad entry
func validateEntries(entries []Entry) (int, error) {
	if len(entries) == 0 {
		return 0, fmt.Errorf("cast has no root entry")
	}
	siblings := make(map[siblingKey]struct{}, len(entries))
	for i := range entries {
		e := &entries[i]
		if i == 0 {
			if e.Parent != NoParent {
				return 0, fmt.Errorf("root parent must be %d, got %d", NoParent, e.Parent)
			}
			if e.Kind != KindDirectory {
				return 0, fmt.Errorf("root must be a directory")
			}
		} else {
			if e.Parent < 0 || e.Parent >= i {
				return i, fmt.Errorf("parent index %d does not precede entry", e.Parent)
			}
			if entries[e.Parent].Kind != KindDirectory {
				return i, fmt.Errorf("parent index %d is not a directory", e.Parent)
			}
			key := siblingKey{parent: e.Parent, name: e.Name}
			if _, dup := siblings[key]; dup {
				return i, fmt.Errorf("duplicate name %q under parent %d", e.Name, e.Parent)
			}
			siblings[key] = struct{}{}
		}
		if e.Kind != KindDirectory && e.Kind != KindFile {
			return i, fmt.Errorf("unknown kind %d", e.Kind)
		}
		if e.Size < 0 {
			return i, fmt.Errorf("negative size %d", e.Size)
		}
		if e.Kind == KindDirectory && (e.Dir.Subdirs < 0 || e.Dir.Files < 0) {
			return i, fmt.Errorf("negative directory counters")
		}
	}
	return 0, nil
}

// Len returns the number of entries
func (c *Cast) Len() int {
	return len(c.entries)
}

// Root returns the index of the scanned root directory
func (c *Cast) Root() int {
	return 0
}

// Entry returns a copy of the entry at index. It panics when index is out of range.
func (c *Cast) Entry(index int) Entry {
	return c.entries[index]
}

// Entries returns a copy of all entries in index order
func (c *Cast) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Valid reports whether index names an entry
func (c *Cast) Valid(index int) bool {
	return index >= 0 && index < len(c.entries)
}

func (c *Cast) checkIndex(index int) error {
	if !c.Valid(index) {
		return fmt.Errorf("%w: %d (cast has %d entries)", ErrIndexOutOfRange, index, len(c.entries))
	}
	return nil
}

// PathOf joins the names from relativeTo (exclusive) down to index with "/".
// PathOf(x, x) is "". When relativeTo is not an ancestor of index the walk
// stops at the root and the root-relative path is returned.
func (c *Cast) PathOf(index, relativeTo int) string {
	var parts []string
	for i := index; i != relativeTo && i > 0; i = c.entries[i].Parent {
		parts = append(parts, c.entries[i].Name)
	}
	for l, r := 0, len(parts)-1; l < r; l, r = l+1, r-1 {
		parts[l], parts[r] = parts[r], parts[l]
	}
	return strings.Join(parts, "/")
}

// IndexOf resolves a /-separated path below relativeTo. Empty and "."
// components are skipped.
//
// Each component is searched for starting just after the entry matched for
// the previous component. This narrowing is only correct because children
// always follow their parent in a cast; casts are never edited, so the
// restriction holds for every cast this package produces or accepts.
func (c *Cast) IndexOf(path string, relativeTo int) (int, bool) {
	if !c.Valid(relativeTo) {
		return -1, false
	}
	current := relativeTo
	for _, name := range strings.Split(path, "/") {
		if name == "" || name == "." {
			continue
		}
		found := -1
		for j := current + 1; j < len(c.entries); j++ {
			if c.entries[j].Parent == current && c.entries[j].Name == name {
				found = j
				break
			}
		}
		if found < 0 {
			return -1, false
		}
		current = found
	}
	return current, true
}

// Descendants returns the children of index selected by kinds, or with
// recursive all descendants. Results are in ascending index order.
func (c *Cast) Descendants(index int, kinds KindMask, recursive bool) []int {
	var out []int
	if !c.Valid(index) || c.entries[index].Kind != KindDirectory {
		return out
	}

	if !recursive {
		for j := index + 1; j < len(c.entries); j++ {
			e := &c.entries[j]
			if e.Parent == index && kinds.Has(e.Kind) {
				out = append(out, j)
			}
		}
		return out
	}

	// Parents precede children, so one forward pass sees every directory of
	// the frontier before any of its children.
	inside := make([]bool, len(c.entries)-index)
	inside[0] = true
	for j := index + 1; j < len(c.entries); j++ {
		e := &c.entries[j]
		if e.Parent < index || !inside[e.Parent-index] {
			continue
		}
		inside[j-index] = true
		if kinds.Has(e.Kind) {
			out = append(out, j)
		}
	}
	return out
}

// IsEmptyDir reports whether index is a directory that contains nothing, recursively
func (c *Cast) IsEmptyDir(index int) bool {
	if !c.Valid(index) {
		return false
	}
	e := &c.entries[index]
	return e.Kind == KindDirectory && e.Size == 0 && e.Dir.Subdirs == 0 && e.Dir.Files == 0
}

// IsSub returns the number of parent hops from descendant up to ancestor, or
// 0 if descendant is not a strict descendant of the directory ancestor.
func (c *Cast) IsSub(descendant, ancestor int) int {
	if !c.Valid(descendant) || !c.Valid(ancestor) {
		return 0
	}
	if c.entries[ancestor].Kind != KindDirectory || descendant <= ancestor {
		return 0
	}
	hops := 0
	for i := descendant; i > ancestor; {
		parent := c.entries[i].Parent
		hops++
		if parent == ancestor {
			return hops
		}
		i = parent
	}
	return 0
}

// IsSubs reports whether every index in ds can be paired with a distinct
// index in as that it descends from.
func (c *Cast) IsSubs(ds, as []int) bool {
	if len(ds) > len(as) {
		return false
	}

	// candidates[i] lists positions in as that ds[i] descends from
	candidates := make([][]int, len(ds))
	for i, d := range ds {
		for j, a := range as {
			if c.IsSub(d, a) > 0 {
				candidates[i] = append(candidates[i], j)
			}
		}
		if len(candidates[i]) == 0 {
			return false
		}
	}

	owner := make([]int, len(as))
	for j := range owner {
		owner[j] = -1
	}

	var augment func(i int, seen []bool) bool
	augment = func(i int, seen []bool) bool {
		for _, j := range candidates[i] {
			if seen[j] {
				continue
			}
			seen[j] = true
			if owner[j] < 0 || augment(owner[j], seen) {
				owner[j] = i
				return true
			}
		}
		return false
	}

	for i := range ds {
		if !augment(i, make([]bool, len(as))) {
			return false
		}
	}
	return true
}

// Stats returns totals for the whole cast
func (c *Cast) Stats() CastStats {
	var s CastStats
	for i := range c.entries {
		if c.entries[i].Kind == KindFile {
			s.Files++
			s.Bytes += c.entries[i].Size
		} else {
			s.Directories++
		}
	}
	return s
}
