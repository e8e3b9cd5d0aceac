package dircast

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// HashAlgorithm represents a strong digest configuration
type HashAlgorithm struct {
	Name    string
	Size    int
	NewFunc func() hash.Hash
}

// GetHashAlgorithm returns the hash algorithm configuration for the given name
func GetHashAlgorithm(name string) (*HashAlgorithm, error) {
	switch strings.ToLower(name) {
	case "sha1":
		return &HashAlgorithm{Name: "sha1", Size: sha1.Size, NewFunc: sha1.New}, nil
	case "sha256", "":
		return &HashAlgorithm{Name: "sha256", Size: sha256.Size, NewFunc: sha256.New}, nil
	case "sha512":
		return &HashAlgorithm{Name: "sha512", Size: sha512.Size, NewFunc: sha512.New}, nil
	case "sha3-256", "sha3":
		return &HashAlgorithm{Name: "sha3-256", Size: 32, NewFunc: sha3.New256}, nil
	case "blake3":
		return &HashAlgorithm{
			Name:    "blake3",
			Size:    32,
			NewFunc: func() hash.Hash { return blake3.New() },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", name)
	}
}

// SupportedHashAlgorithms lists the names accepted by GetHashAlgorithm
func SupportedHashAlgorithms() []string {
	return []string{"sha1", "sha256", "sha512", "sha3-256", "blake3"}
}

// HashOptions configures a Hasher
type HashOptions struct {
	Algorithm string // strong digest name, default sha256
	ChunkSize int    // bytes per read, default DefaultChunkSize
}

// FileHash is the result of streaming one file
type FileHash struct {
	Size     int64  // bytes observed while streaming
	Checksum string // xxhash64, hex
	Digest   string // strong digest, hex
}

// Hasher produces the two content digests of a byte stream.
// A Hasher holds no digest state between calls and may be shared by goroutines.
type Hasher struct {
	algorithm *HashAlgorithm
	chunkSize int
}

// NewHasher validates opts and returns a Hasher
func NewHasher(opts HashOptions) (*Hasher, error) {
	algorithm, err := GetHashAlgorithm(opts.Algorithm)
	if err != nil {
		return nil, err
	}
	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkSize < 1 || chunkSize > MaxChunkSize {
		return nil, fmt.Errorf("invalid hash chunk size: %d", chunkSize)
	}
	return &Hasher{algorithm: algorithm, chunkSize: chunkSize}, nil
}

// Algorithm returns the strong digest name
func (h *Hasher) Algorithm() string {
	return h.algorithm.Name
}

// ChunkSize returns the read size in bytes
func (h *Hasher) ChunkSize() int {
	return h.chunkSize
}

// HashReader streams r in fixed-size chunks, updating both digests per chunk.
// The context is checked before every read.
func (h *Hasher) HashReader(ctx context.Context, r io.Reader) (FileHash, error) {
	checksum := xxhash.New()
	digest := h.algorithm.NewFunc()
	buffer := make([]byte, h.chunkSize)
	var size int64

	for {
		if err := ctx.Err(); err != nil {
			return FileHash{}, err
		}

		n, err := r.Read(buffer)
		if n > 0 {
			checksum.Write(buffer[:n])
			digest.Write(buffer[:n])
			size += int64(n)
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return FileHash{}, err
		}
	}

	return FileHash{
		Size:     size,
		Checksum: formatChecksum(checksum.Sum64()),
		Digest:   hex.EncodeToString(digest.Sum(nil)),
	}, nil
}

// HashFile opens and hashes the file at path; failures come back as *IOError
func (h *Hasher) HashFile(ctx context.Context, path string) (FileHash, error) {
	file, err := os.Open(path)
	if err != nil {
		return FileHash{}, &IOError{Op: "open", Path: path, Err: err}
	}
	defer file.Close()

	result, err := h.HashReader(ctx, file)
	if err != nil {
		if ctx.Err() != nil {
			return FileHash{}, err
		}
		return FileHash{}, &IOError{Op: "read", Path: path, Err: err}
	}

	DebugLog("hash", "%s: %d bytes %s %s", path, result.Size, result.Checksum, result.Digest)
	return result, nil
}

// HashBytes is a convenience wrapper for in-memory data
func (h *Hasher) HashBytes(data []byte) FileHash {
	digest := h.algorithm.NewFunc()
	digest.Write(data)
	return FileHash{
		Size:     int64(len(data)),
		Checksum: formatChecksum(xxhash.Sum64(data)),
		Digest:   hex.EncodeToString(digest.Sum(nil)),
	}
}

func formatChecksum(sum uint64) string {
	s := strconv.FormatUint(sum, 16)
	if len(s) < 16 {
		s = strings.Repeat("0", 16-len(s)) + s
	}
	return s
}
