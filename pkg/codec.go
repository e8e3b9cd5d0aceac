package dircast

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// MarshalLines renders a cast in the uncompressed line format, one entry per
// line: parent / kind / name / size / digest_a / digest_b
func MarshalLines(c *Cast) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(c.Len() * 96)

	for i := range c.entries {
		e := &c.entries[i]
		if err := checkEncodableName(e.Name); err != nil {
			return nil, fmt.Errorf("entry %d (%q): %w", i, e.Name, err)
		}
		buf.WriteString(strconv.Itoa(e.Parent))
		buf.WriteString(FieldSeparator)
		buf.WriteByte(e.Kind.Char())
		buf.WriteString(FieldSeparator)
		buf.WriteString(e.Name)
		buf.WriteString(FieldSeparator)
		buf.WriteString(strconv.FormatInt(e.Size, 10))
		buf.WriteString(FieldSeparator)
		buf.WriteString(e.DigestA())
		buf.WriteString(FieldSeparator)
		buf.WriteString(e.DigestB())
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// checkEncodableName rejects names that would break line or field splitting
func checkEncodableName(name string) error {
	if strings.ContainsAny(name, "/\n") {
		return ErrUnencodableName
	}
	return nil
}

// UnmarshalLines parses the uncompressed line format. Any malformed line
// fails the whole decode with a *DecodeError.
func UnmarshalLines(text []byte) (*Cast, error) {
	defer VerboseEnter()()

	if len(text) == 0 {
		return nil, decodeErrorf(0, "no entries")
	}

	// bufio.Scanner would strip a trailing \r, which is legal in a name
	lines := strings.Split(string(text), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	entries := make([]Entry, 0, len(lines))
	siblings := make(map[siblingKey]struct{}, len(lines))
	for i, line := range lines {
		lineNum := i + 1
		e, err := parseLine(line, lineNum)
		if err != nil {
			return nil, err
		}
		if err := checkPlacement(entries, &e, lineNum); err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			key := siblingKey{parent: e.Parent, name: e.Name}
			if _, dup := siblings[key]; dup {
				return nil, decodeErrorf(lineNum, "duplicate name %q under parent %d", e.Name, e.Parent)
			}
			siblings[key] = struct{}{}
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, decodeErrorf(0, "no entries")
	}

	DebugLog("codec", "decoded %d entries", len(entries))
	return &Cast{entries: entries}, nil
}

// parseLine parses the fields of a single line
func parseLine(line string, lineNum int) (Entry, error) {
	var e Entry

	fields := strings.Split(line, FieldSeparator)
	if len(fields) != FieldCount {
		return e, decodeErrorf(lineNum, "expected %d fields, got %d", FieldCount, len(fields))
	}

	parent, err := strconv.Atoi(fields[0])
	if err != nil {
		return e, &DecodeError{Line: lineNum, Reason: "parent is not an integer", Err: err}
	}
	e.Parent = parent

	kind, ok := kindFromChar(fields[1])
	if !ok {
		return e, decodeErrorf(lineNum, "unknown kind %q", fields[1])
	}
	e.Kind = kind
	e.Name = fields[2]

	if e.Size, err = parseCount(fields[3]); err != nil {
		return e, &DecodeError{Line: lineNum, Reason: "invalid size", Err: err}
	}

	if kind == KindFile {
		if !isHex(fields[4]) || !isHex(fields[5]) {
			return e, decodeErrorf(lineNum, "file digests must be hexadecimal")
		}
		e.File = FileStats{Checksum: fields[4], Digest: fields[5]}
		return e, nil
	}

	if e.Dir.Subdirs, err = parseCount(fields[4]); err != nil {
		return e, &DecodeError{Line: lineNum, Reason: "invalid subdirectory count", Err: err}
	}
	if e.Dir.Files, err = parseCount(fields[5]); err != nil {
		return e, &DecodeError{Line: lineNum, Reason: "invalid file count", Err: err}
	}
	return e, nil
}

// checkPlacement enforces the root and parent-precedes-child rules
func checkPlacement(entries []Entry, e *Entry, lineNum int) error {
	if len(entries) == 0 {
		if e.Parent != NoParent || e.Kind != KindDirectory {
			return decodeErrorf(lineNum, "first entry must be a directory with parent %d", NoParent)
		}
		return nil
	}
	if e.Parent < 0 || e.Parent >= len(entries) {
		return decodeErrorf(lineNum, "parent %d is not an earlier entry", e.Parent)
	}
	if entries[e.Parent].Kind != KindDirectory {
		return decodeErrorf(lineNum, "parent %d is not a directory", e.Parent)
	}
	return nil
}

// parseCount accepts plain non-negative decimal numbers only
func parseCount(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%q is not a non-negative decimal number", s)
		}
	}
	return strconv.ParseInt(s, 10, 64)
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// Encode renders and compresses a cast in the default xz container
func Encode(c *Cast) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCast(&buf, c, CompressionXZ); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode decompresses and parses a cast produced by Encode or WriteCast
func Decode(data []byte) (*Cast, error) {
	return ReadCast(bytes.NewReader(data))
}

// WriteCast writes c to w using the given compression
func WriteCast(w io.Writer, c *Cast, comp Compression) error {
	defer VerboseEnter()()

	text, err := MarshalLines(c)
	if err != nil {
		return fmt.Errorf("encode cast: %w", err)
	}

	cw, err := newCompressor(w, comp)
	if err != nil {
		return fmt.Errorf("encode cast: %w", err)
	}
	if _, err := cw.Write(text); err != nil {
		cw.Close()
		return fmt.Errorf("encode cast: %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("encode cast: %w", err)
	}

	DebugLog("codec", "encoded %d entries (%d bytes uncompressed, %s)", c.Len(), len(text), comp)
	return nil
}

// ReadCast reads a compressed cast from r. The container is detected from
// its magic bytes so xz, lzma and zstd streams are all accepted.
func ReadCast(r io.Reader) (*Cast, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(xzMagic))
	if err != nil && len(head) == 0 {
		if err == io.EOF {
			return nil, decodeErrorf(0, "empty input")
		}
		return nil, &DecodeError{Reason: "read failed", Err: err}
	}

	comp := sniffCompression(head)
	dr, err := newDecompressor(br, comp)
	if err != nil {
		return nil, &DecodeError{Reason: fmt.Sprintf("invalid %s stream", comp), Err: err}
	}
	defer dr.Close()

	text, err := io.ReadAll(dr)
	if err != nil {
		return nil, &DecodeError{Reason: fmt.Sprintf("%s decompression failed", comp), Err: err}
	}
	DebugLog("codec", "decompressed %s stream to %d bytes", comp, len(text))
	return UnmarshalLines(text)
}

func sniffCompression(head []byte) Compression {
	switch {
	case bytes.HasPrefix(head, xzMagic):
		return CompressionXZ
	case bytes.HasPrefix(head, zstdMagic):
		return CompressionZstd
	default:
		return CompressionLZMA
	}
}

func newCompressor(w io.Writer, comp Compression) (io.WriteCloser, error) {
	switch comp {
	case CompressionXZ, "":
		return xz.NewWriter(w)
	case CompressionLZMA:
		return lzma.NewWriter(w)
	case CompressionZstd:
		return zstd.NewWriter(w)
	default:
		return nil, fmt.Errorf("unsupported compression %q", comp)
	}
}

// nopCloser adapts readers without resources to io.ReadCloser
type nopCloser struct{ io.Reader }

func (nopCloser) Close() error { return nil }

// zstdReadCloser drops the error-less Close of the zstd decoder into io.Closer
type zstdReadCloser struct{ *zstd.Decoder }

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

func newDecompressor(r io.Reader, comp Compression) (io.ReadCloser, error) {
	switch comp {
	case CompressionXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return nopCloser{xr}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{zr}, nil
	default:
		lr, err := lzma.NewReader(r)
		if err != nil {
			return nil, err
		}
		return nopCloser{lr}, nil
	}
}
