package dircast

import (
	"strings"
)

// Comparator tracking contexts for the path skiplist
const (
	UnmatchedContext = "unmatched"
	MatchedContext   = "matched"
)

// Line format constants
const (
	FieldSeparator = " / "
	FieldCount     = 6
)

// Hashing defaults
const (
	DefaultChunkSize   = 2047 // bytes read per hash update
	DefaultHashWorkers = 4
	DefaultDigest      = "sha256"
	MaxChunkSize       = 64 * 1024 * 1024
)

// Progress phases
const (
	PhaseScanning  = "scanning"
	PhaseHashing   = "hashing"
	PhaseComparing = "comparing"
)

// Symlink handling modes
const (
	SymlinkNoFollow  = "nofollow"  // record directory links as entries, never descend
	SymlinkFollow    = "follow"    // descend into directory links
	SymlinkContained = "contained" // descend only when the target lies inside the root
	SymlinkSkip      = "skip"      // omit directory links entirely
)

// Compression selects the container used around the line format
type Compression string

const (
	CompressionXZ   Compression = "xz"
	CompressionLZMA Compression = "lzma"
	CompressionZstd Compression = "zstd"
)

// CompressionFromName returns the compression constant from a name (case-insensitive)
func CompressionFromName(name string) (Compression, bool) {
	switch strings.ToLower(name) {
	case "xz", "":
		return CompressionXZ, true
	case "lzma":
		return CompressionLZMA, true
	case "zstd", "zst":
		return CompressionZstd, true
	default:
		return "", false
	}
}

// Stream magic numbers used to detect the container on decode
var (
	xzMagic   = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
)
