package dircast

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/google/vectorio"
	"golang.org/x/sys/unix"
)

// iovMax bounds the iovecs passed to a single writev call (Linux UIO_MAXIOV)
const iovMax = 1024

// segmentWriter keeps every Write as its own buffer so the encoded cast can
// be flushed with a handful of writev calls instead of one big copy
type segmentWriter struct {
	segments [][]byte
	size     int
}

func (sw *segmentWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	seg := make([]byte, len(p))
	copy(seg, p)
	sw.segments = append(sw.segments, seg)
	sw.size += len(p)
	return len(p), nil
}

// SaveCast encodes c and atomically replaces path with the result
func SaveCast(path string, c *Cast, comp Compression) error {
	defer VerboseEnter()()

	var sw segmentWriter
	if err := WriteCast(&sw, c, comp); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cast file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := writeSegments(tmp, sw.segments); err != nil {
		return fmt.Errorf("failed to write cast file %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync cast file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cast file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move cast file into place: %w", err)
	}
	committed = true

	VerboseLog(1, "Saved cast to %s (%d entries, %s, %s)", path, c.Len(), comp, formatSize(int64(sw.size)))
	return nil
}

// writeSegments writes all segments to file with vectored I/O
func writeSegments(file *os.File, segments [][]byte) error {
	fd := uintptr(file.Fd())
	return writevAll(segments, func(iovecs []syscall.Iovec) (int, error) {
		return vectorio.WritevRaw(fd, iovecs)
	})
}

// writevAll issues writev calls of at most iovMax iovecs until every segment
// is written, resuming inside a segment after a short write
func writevAll(segments [][]byte, writev func([]syscall.Iovec) (int, error)) error {
	pending := append([][]byte(nil), segments...)
	iovecs := make([]syscall.Iovec, 0, min(len(pending), iovMax))

	for len(pending) > 0 {
		iovecs = iovecs[:0]
		for _, seg := range pending[:min(len(pending), iovMax)] {
			iov := syscall.Iovec{Base: &seg[0]}
			iov.SetLen(len(seg))
			iovecs = append(iovecs, iov)
		}

		nw, err := writev(iovecs)
		if err != nil {
			return fmt.Errorf("writev failed: %w", err)
		}
		if nw <= 0 {
			return fmt.Errorf("writev made no progress with %d segments pending", len(pending))
		}

		for nw > 0 && len(pending) > 0 {
			if nw < len(pending[0]) {
				pending[0] = pending[0][nw:]
				break
			}
			nw -= len(pending[0])
			pending = pending[1:]
		}
	}
	return nil
}

// LoadCast maps the cast file at path read-only and decodes it
func LoadCast(path string) (*Cast, error) {
	defer VerboseEnter()()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cast file %s: %w", path, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat cast file: %w", err)
	}
	if stat.Size() == 0 {
		return nil, fmt.Errorf("cast file %s: %w", path, decodeErrorf(0, "empty input"))
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(stat.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap cast file: %w", err)
	}
	defer unix.Munmap(data)

	c, err := ReadCast(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cast file %s: %w", path, err)
	}
	VerboseLog(2, "Loaded cast from %s: %d entries", path, c.Len())
	return c, nil
}
