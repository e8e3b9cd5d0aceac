package dircast

import (
	"strconv"
)

// NoParent is the parent index recorded for the root entry
const NoParent = -1

// Kind identifies what a cast entry describes
type Kind uint8

const (
	KindDirectory Kind = iota
	KindFile
)

// KindMask selects entry kinds for descendant queries
type KindMask uint8

const (
	MaskDirectories KindMask = 1 << KindDirectory
	MaskFiles       KindMask = 1 << KindFile
	MaskAll                  = MaskDirectories | MaskFiles
)

// Has reports whether the mask selects kind k
func (m KindMask) Has(k Kind) bool {
	return m&(1<<k) != 0
}

// Char returns the single character used for the kind in the line format
func (k Kind) Char() byte {
	if k == KindFile {
		return 'f'
	}
	return 'd'
}

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// kindFromChar parses the kind character of the line format
func kindFromChar(c string) (Kind, bool) {
	switch c {
	case "d":
		return KindDirectory, true
	case "f":
		return KindFile, true
	default:
		return 0, false
	}
}

// FileStats holds the two content digests of a file entry
type FileStats struct {
	Checksum string // fast checksum, hex (digest_a)
	Digest   string // strong hash, hex (digest_b)
}

// DirStats holds the recursive counters of a directory entry
type DirStats struct {
	Subdirs int64 // descendant directories (digest_a)
	Files   int64 // descendant files (digest_b)
}

// Entry is one file or directory record in a Cast.
// Only the stats variant matching Kind is meaningful.
type Entry struct {
	Parent int
	Kind   Kind
	Name   string
	Size   int64
	File   FileStats
	Dir    DirStats
}

// IsDir returns true for directory entries
func (e Entry) IsDir() bool {
	return e.Kind == KindDirectory
}

// DigestA returns the first stats field in its serialized form
func (e Entry) DigestA() string {
	if e.Kind == KindFile {
		return e.File.Checksum
	}
	return strconv.FormatInt(e.Dir.Subdirs, 10)
}

// DigestB returns the second stats field in its serialized form
func (e Entry) DigestB() string {
	if e.Kind == KindFile {
		return e.File.Digest
	}
	return strconv.FormatInt(e.Dir.Files, 10)
}

// SameStats reports whether two entries have the same kind, size and digests.
// For files this is content equality. For directories it only means the
// aggregate counters agree, which is necessary but not sufficient for equal
// contents.
func SameStats(e1, e2 *Entry) bool {
	if e1.Kind != e2.Kind || e1.Size != e2.Size {
		return false
	}
	if e1.Kind == KindFile {
		return e1.File == e2.File
	}
	return e1.Dir == e2.Dir
}
