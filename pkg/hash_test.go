package dircast

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashBytes_KnownValues(t *testing.T) {
	tests := []struct {
		algorithm string
		input     string
		checksum  string
		digest    string
	}{
		{"sha256", "", "ef46db3751d8e999", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"sha256", "abc", "44bc2cf5ad770999", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"sha1", "abc", "44bc2cf5ad770999", "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"sha3-256", "", "ef46db3751d8e999", "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"},
		{"blake3", "", "ef46db3751d8e999", "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm+"/"+tt.input, func(t *testing.T) {
			h, err := NewHasher(HashOptions{Algorithm: tt.algorithm})
			require.NoError(t, err)

			got := h.HashBytes([]byte(tt.input))
			assert.Equal(t, int64(len(tt.input)), got.Size)
			assert.Equal(t, tt.checksum, got.Checksum)
			assert.Equal(t, tt.digest, got.Digest)
		})
	}
}

func TestHashReader_MatchesHashBytesAcrossChunkSizes(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdef-"), 700)

	reference, err := NewHasher(HashOptions{})
	require.NoError(t, err)
	want := reference.HashBytes(data)

	for _, chunk := range []int{1, 7, DefaultChunkSize, len(data), len(data) * 2} {
		h, err := NewHasher(HashOptions{ChunkSize: chunk})
		require.NoError(t, err)

		got, err := h.HashReader(context.Background(), bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, want, got, "chunk size %d", chunk)

		// short reads must not change the result
		got, err = h.HashReader(context.Background(), iotest.OneByteReader(bytes.NewReader(data)))
		require.NoError(t, err)
		assert.Equal(t, want, got, "one-byte reader, chunk size %d", chunk)
	}
}

func TestHashReader_Cancelled(t *testing.T) {
	h, err := NewHasher(HashOptions{ChunkSize: 16})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.HashReader(ctx, strings.NewReader(strings.Repeat("x", 1024)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHashReader_ReadError(t *testing.T) {
	h, err := NewHasher(HashOptions{})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = h.HashReader(context.Background(), iotest.ErrReader(boom))
	assert.ErrorIs(t, err, boom)
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0644))

	h, err := NewHasher(HashOptions{})
	require.NoError(t, err)

	got, err := h.HashFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, h.HashBytes([]byte("abc")), got)

	_, err = h.HashFile(context.Background(), filepath.Join(dir, "missing"))
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "open", ioErr.Op)
	assert.True(t, os.IsNotExist(errors.Unwrap(err)))
}

func TestNewHasher_InvalidOptions(t *testing.T) {
	if _, err := NewHasher(HashOptions{Algorithm: "md5"}); err == nil {
		t.Error("Expected error for unsupported algorithm")
	}
	if _, err := NewHasher(HashOptions{ChunkSize: -1}); err == nil {
		t.Error("Expected error for negative chunk size")
	}
	if _, err := NewHasher(HashOptions{ChunkSize: MaxChunkSize + 1}); err == nil {
		t.Error("Expected error for oversized chunk")
	}

	h, err := NewHasher(HashOptions{})
	if err != nil {
		t.Fatalf("Default options rejected: %v", err)
	}
	if h.Algorithm() != DefaultDigest || h.ChunkSize() != DefaultChunkSize {
		t.Errorf("Expected defaults %s/%d, got %s/%d", DefaultDigest, DefaultChunkSize, h.Algorithm(), h.ChunkSize())
	}
}

func TestSupportedHashAlgorithms_AllResolve(t *testing.T) {
	for _, name := range SupportedHashAlgorithms() {
		alg, err := GetHashAlgorithm(name)
		if err != nil {
			t.Errorf("Listed algorithm %s does not resolve: %v", name, err)
			continue
		}
		if got := alg.NewFunc().Size(); got != alg.Size {
			t.Errorf("%s: declared size %d, hash size %d", name, alg.Size, got)
		}
	}
}
