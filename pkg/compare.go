package dircast

import (
	"fmt"
)

// Verdict is the overall outcome of comparing two (sub)trees
type Verdict int

const (
	VerdictEqual Verdict = iota
	VerdictDifferent
	VerdictPartiallyDifferent
	VerdictTypeMismatch
)

// Token returns the report token for the verdict
func (v Verdict) Token() string {
	switch v {
	case VerdictEqual:
		return "eq"
	case VerdictDifferent:
		return "ne"
	case VerdictPartiallyDifferent:
		return "pd"
	case VerdictTypeMismatch:
		return "fd"
	default:
		return "??"
	}
}

func (v Verdict) String() string {
	switch v {
	case VerdictEqual:
		return "equal"
	case VerdictDifferent:
		return "different"
	case VerdictPartiallyDifferent:
		return "partially different"
	case VerdictTypeMismatch:
		return "type mismatch"
	default:
		return "unknown"
	}
}

// ChangeKind classifies one entry of a directory comparison
type ChangeKind int

const (
	ChangeUnchanged ChangeKind = iota
	ChangeChanged
	ChangeRemoved
	ChangeAdded
)

// Code returns the report code for the change kind
func (k ChangeKind) Code() string {
	switch k {
	case ChangeUnchanged:
		return "="
	case ChangeChanged:
		return "!"
	case ChangeRemoved:
		return "-"
	case ChangeAdded:
		return "+"
	default:
		return "?"
	}
}

func (k ChangeKind) String() string {
	switch k {
	case ChangeUnchanged:
		return "unchanged"
	case ChangeChanged:
		return "changed"
	case ChangeRemoved:
		return "removed"
	case ChangeAdded:
		return "added"
	default:
		return "unknown"
	}
}

// Change is one classified entry. IndexA/PathA are -1/"" for Added entries,
// IndexB/PathB are -1/"" for Removed entries.
type Change struct {
	Kind   ChangeKind
	IndexA int
	IndexB int
	PathA  string
	PathB  string
}

// DiffResult is the outcome of Compare
type DiffResult struct {
	Verdict Verdict
	Changes []Change
}

// Count returns how many changes have the given kind
func (r *DiffResult) Count(kind ChangeKind) int {
	n := 0
	for _, ch := range r.Changes {
		if ch.Kind == kind {
			n++
		}
	}
	return n
}

// HasDifferences returns true unless the verdict is Equal
func (r *DiffResult) HasDifferences() bool {
	return r.Verdict != VerdictEqual
}

// CompareOptions configures Compare
type CompareOptions struct {
	Progress ProgressFunc
}

// Compare compares the entry ia of a with the entry ib of b.
//
// Comparing an entry with itself is Equal with no changes. Entries of
// different kinds give VerdictTypeMismatch. Two files are Equal
// or Different by SameStats. Two directories are compared structurally:
// every descendant of ia is looked up by relative path under ib and
// classified as Unchanged, Changed or Removed; descendants of ib that were
// never matched are Added.
func Compare(a *Cast, ia int, b *Cast, ib int, opts CompareOptions) (*DiffResult, error) {
	defer VerboseEnter()()

	if err := a.checkIndex(ia); err != nil {
		return nil, fmt.Errorf("compare side A: %w", err)
	}
	if err := b.checkIndex(ib); err != nil {
		return nil, fmt.Errorf("compare side B: %w", err)
	}

	// An entry compared with itself has nothing to report
	if a == b && ia == ib {
		return &DiffResult{Verdict: VerdictEqual}, nil
	}

	ea, eb := &a.entries[ia], &b.entries[ib]
	if ea.Kind != eb.Kind {
		return &DiffResult{Verdict: VerdictTypeMismatch}, nil
	}
	if ea.Kind == KindFile {
		if SameStats(ea, eb) {
			return &DiffResult{Verdict: VerdictEqual}, nil
		}
		return &DiffResult{Verdict: VerdictDifferent}, nil
	}

	result := compareDirectories(a, ia, b, ib, opts.Progress)
	DebugLog("compare", "%s vs %s: %s (%d changes)",
		displayPath(a.PathOf(ia, 0)), displayPath(b.PathOf(ib, 0)), result.Verdict, len(result.Changes))
	return result, nil
}

// compareDirectories classifies every descendant on both sides
func compareDirectories(a *Cast, ia int, b *Cast, ib int, progress ProgressFunc) *DiffResult {
	tracker := newProgressTracker(progress, PhaseComparing)
	result := &DiffResult{}

	remaining := subtreePathSet(b, ib)
	descendants := a.Descendants(ia, MaskAll, true)

	for n, idx := range descendants {
		relPath := a.PathOf(idx, ia)
		change := Change{Kind: ChangeRemoved, IndexA: idx, IndexB: -1, PathA: relPath}

		if match, ok := b.IndexOf(relPath, ib); ok {
			change.IndexB = match
			change.PathB = relPath
			if SameStats(&a.entries[idx], &b.entries[match]) {
				change.Kind = ChangeUnchanged
			} else {
				change.Kind = ChangeChanged
			}
			remaining.Mark(relPath, MatchedContext)
		}

		result.Changes = append(result.Changes, change)
		tracker.update(n+1, len(descendants))
	}

	remaining.ForEachContext(UnmatchedContext, func(ref *pathRef) bool {
		result.Changes = append(result.Changes, Change{
			Kind:   ChangeAdded,
			IndexA: -1,
			IndexB: ref.Index,
			PathB:  ref.Path,
		})
		return true
	})

	tracker.finish()
	result.Verdict = verdictFor(result.Changes)
	return result
}

// verdictFor derives the directory verdict from a change list: Equal when
// nothing differs, Different when nothing is shared unchanged, otherwise
// PartiallyDifferent.
func verdictFor(changes []Change) Verdict {
	unchanged, differing := 0, 0
	for _, ch := range changes {
		if ch.Kind == ChangeUnchanged {
			unchanged++
		} else {
			differing++
		}
	}
	switch {
	case differing == 0:
		return VerdictEqual
	case unchanged == 0:
		return VerdictDifferent
	default:
		return VerdictPartiallyDifferent
	}
}
