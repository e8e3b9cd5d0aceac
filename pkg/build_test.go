package dircast

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleFiles = map[string]string{
	"alpha/one.txt":         "one",
	"alpha/two.txt":         "two two",
	"alpha/deep/three.txt":  "three three three",
	"alpha/deep/deeper/4":   "4444",
	"beta/one.txt":          "one",
	"beta/empty/":           "",
	"gamma.txt":             "gamma",
	"zeta/nested/leaf.bin":  "\x00\x01\x02",
	"zeta/nested/other.bin": "",
}

func TestBuild_Order(t *testing.T) {
	c, root := buildTree(t, sampleFiles)

	assert.Equal(t, filepath.Base(root), c.Entry(0).Name)
	assert.Equal(t, NoParent, c.Entry(0).Parent)

	// the root's children: subdirectories first, then files, each sorted
	var names []string
	for _, idx := range c.Descendants(0, MaskAll, false) {
		names = append(names, c.Entry(idx).Name)
	}
	assert.Equal(t, []string{"alpha", "beta", "zeta", "gamma.txt"}, names)

	for i := 1; i < c.Len(); i++ {
		e := c.Entry(i)
		require.Less(t, e.Parent, i, "entry %d", i)
		require.True(t, c.Entry(e.Parent).IsDir(), "parent of entry %d", i)
	}
}

func TestBuild_ChildrenAreContiguous(t *testing.T) {
	c, _ := buildTree(t, sampleFiles)

	for d := 0; d < c.Len(); d++ {
		children := c.Descendants(d, MaskAll, false)
		for i := 1; i < len(children); i++ {
			if children[i] != children[i-1]+1 {
				t.Errorf("Children of %s are not contiguous: %v", displayPath(c.PathOf(d, 0)), children)
				break
			}
		}
	}
}

// TestBuild_AggregationMatchesFilesystem checks every directory total against
// an independent walk of the same directory on disk
func TestBuild_AggregationMatchesFilesystem(t *testing.T) {
	c, root := buildTree(t, sampleFiles)

	for _, idx := range append([]int{0}, c.Descendants(0, MaskDirectories, true)...) {
		dirPath := filepath.Join(root, filepath.FromSlash(c.PathOf(idx, 0)))

		var size, subdirs, files int64
		err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == dirPath {
				return nil
			}
			if d.IsDir() {
				subdirs++
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			files++
			size += info.Size()
			return nil
		})
		require.NoError(t, err)

		e := c.Entry(idx)
		assert.Equal(t, size, e.Size, "size of %s", dirPath)
		assert.Equal(t, subdirs, e.Dir.Subdirs, "subdirs of %s", dirPath)
		assert.Equal(t, files, e.Dir.Files, "files of %s", dirPath)
	}
}

func TestBuild_FileDigests(t *testing.T) {
	c, _ := buildTree(t, sampleFiles)

	h, err := NewHasher(HashOptions{})
	require.NoError(t, err)

	for rel, content := range sampleFiles {
		if rel[len(rel)-1] == '/' {
			continue
		}
		e := c.Entry(mustIndex(t, c, rel))
		want := h.HashBytes([]byte(content))
		assert.Equal(t, KindFile, e.Kind, rel)
		assert.Equal(t, want.Size, e.Size, rel)
		assert.Equal(t, want.Checksum, e.File.Checksum, rel)
		assert.Equal(t, want.Digest, e.File.Digest, rel)
	}
}

func TestBuild_WorkerCountDoesNotChangeResult(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, sampleFiles)

	one, err := Build(context.Background(), root, BuildOptions{Workers: 1})
	require.NoError(t, err)
	many, err := Build(context.Background(), root, BuildOptions{Workers: 16})
	require.NoError(t, err)

	assert.Equal(t, one.Entries(), many.Entries())
}

func TestBuild_InvalidRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(dir, link); err != nil {
		t.Fatal(err)
	}

	for _, root := range []string{filepath.Join(dir, "missing"), file, link} {
		c, err := Build(context.Background(), root, BuildOptions{})
		if !errors.Is(err, ErrInvalidRoot) {
			t.Errorf("Build(%s): expected ErrInvalidRoot, got %v", root, err)
		}
		if c != nil {
			t.Errorf("Build(%s): expected no cast on error", root)
		}
	}
}

func TestBuild_DanglingSymlinkIsIOError(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"ok.txt": "fine"})
	require.NoError(t, os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "broken")))

	c, err := Build(context.Background(), root, BuildOptions{})
	assert.Nil(t, c)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, filepath.Join(root, "broken"), ioErr.Path)
}

func TestBuild_UnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	root := t.TempDir()
	writeTree(t, root, map[string]string{"secret.txt": "hidden"})
	require.NoError(t, os.Chmod(filepath.Join(root, "secret.txt"), 0))

	_, err := Build(context.Background(), root, BuildOptions{})
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "open", ioErr.Op)
}

func TestBuild_SkipsSpecialFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"plain.txt": "plain"})
	if err := syscall.Mkfifo(filepath.Join(root, "pipe"), 0644); err != nil {
		t.Skipf("mkfifo not available: %v", err)
	}

	c, err := Build(context.Background(), root, BuildOptions{})
	require.NoError(t, err)

	_, found := c.IndexOf("pipe", 0)
	assert.False(t, found)
	assert.Equal(t, 2, c.Len())
}

func TestBuild_SymlinkModes(t *testing.T) {
	outside := t.TempDir()
	writeTree(t, outside, map[string]string{"far.txt": "far away"})

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"real/inner.txt": "inner",
		"target.txt":     "target",
	})
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "inlink")))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "outlink")))
	require.NoError(t, os.Symlink(root, filepath.Join(root, "real", "loop")))
	require.NoError(t, os.Symlink("target.txt", filepath.Join(root, "filelink")))

	tests := []struct {
		mode         string
		present      []string
		absent       []string
		emptyDirs    []string
		nonEmptyDirs []string
	}{
		{
			mode:      SymlinkNoFollow,
			present:   []string{"inlink", "outlink", "real/loop", "filelink"},
			absent:    []string{"inlink/inner.txt", "outlink/far.txt"},
			emptyDirs: []string{"inlink", "outlink", "real/loop"},
		},
		{
			mode:         SymlinkFollow,
			present:      []string{"inlink/inner.txt", "outlink/far.txt", "real/loop", "filelink"},
			absent:       []string{"real/loop/real"},
			emptyDirs:    []string{"real/loop", "inlink/loop"},
			nonEmptyDirs: []string{"inlink", "outlink"},
		},
		{
			mode:         SymlinkContained,
			present:      []string{"inlink/inner.txt", "outlink", "filelink"},
			absent:       []string{"outlink/far.txt"},
			emptyDirs:    []string{"outlink", "real/loop"},
			nonEmptyDirs: []string{"inlink"},
		},
		{
			mode:    SymlinkSkip,
			present: []string{"real/inner.txt", "filelink"},
			absent:  []string{"inlink", "outlink", "real/loop"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			c, err := Build(context.Background(), root, BuildOptions{SymlinkMode: tt.mode})
			require.NoError(t, err)

			for _, p := range tt.present {
				_, ok := c.IndexOf(p, 0)
				assert.True(t, ok, "%s should be present", p)
			}
			for _, p := range tt.absent {
				_, ok := c.IndexOf(p, 0)
				assert.False(t, ok, "%s should be absent", p)
			}
			for _, p := range tt.emptyDirs {
				assert.True(t, c.IsEmptyDir(mustIndex(t, c, p)), "%s should be an empty directory", p)
			}
			for _, p := range tt.nonEmptyDirs {
				idx := mustIndex(t, c, p)
				assert.True(t, c.Entry(idx).IsDir(), "%s should be a directory", p)
				assert.False(t, c.IsEmptyDir(idx), "%s should have contents", p)
			}

			// a link to a file is hashed through the link
			link := c.Entry(mustIndex(t, c, "filelink"))
			target := c.Entry(mustIndex(t, c, "target.txt"))
			assert.True(t, SameStats(&link, &target))
		})
	}
}

func TestBuild_Ignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep.txt":         "keep",
		"scratch.tmp":      "drop",
		"cache/big.bin":    "drop drop",
		"src/cache/ok.txt": "nested name is kept",
		"src/main.go":      "package main",
	})

	matcher, err := NewIgnoreMatcher(`\.tmp$`, `^cache(/|$)`)
	require.NoError(t, err)

	c, err := Build(context.Background(), root, BuildOptions{Ignore: matcher})
	require.NoError(t, err)

	for _, p := range []string{"scratch.tmp", "cache", "cache/big.bin"} {
		_, ok := c.IndexOf(p, 0)
		assert.False(t, ok, "%s should be ignored", p)
	}
	for _, p := range []string{"keep.txt", "src/cache/ok.txt", "src/main.go"} {
		_, ok := c.IndexOf(p, 0)
		assert.True(t, ok, "%s should be kept", p)
	}
	assert.Equal(t, int64(2), c.Entry(0).Dir.Subdirs)
}

func TestBuild_Progress(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, sampleFiles)

	var mu sync.Mutex
	seen := map[string][]int{}
	progress := func(phase string, percent int) {
		mu.Lock()
		defer mu.Unlock()
		seen[phase] = append(seen[phase], percent)
	}

	_, err := Build(context.Background(), root, BuildOptions{Progress: progress, Workers: 3})
	require.NoError(t, err)

	for _, phase := range []string{PhaseScanning, PhaseHashing} {
		values := seen[phase]
		require.NotEmpty(t, values, phase)
		assert.Equal(t, 100, values[len(values)-1], phase)
		for i := 1; i < len(values); i++ {
			assert.Greater(t, values[i], values[i-1], "%s progress must increase", phase)
		}
	}
}

func TestBuild_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, sampleFiles)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, err := Build(ctx, root, BuildOptions{})
	assert.Nil(t, c)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBuilder_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts BuildOptions
	}{
		{"too many workers", BuildOptions{Workers: 1000}},
		{"negative workers", BuildOptions{Workers: -2}},
		{"unknown symlink mode", BuildOptions{SymlinkMode: "sometimes"}},
		{"unknown digest", BuildOptions{Hash: HashOptions{Algorithm: "crc32"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBuilder(tt.opts); err == nil {
				t.Errorf("Expected NewBuilder to reject %s", tt.name)
			}
		})
	}
}

func TestAggregate_ResetsDirectoryTotals(t *testing.T) {
	entries := []Entry{
		{Parent: NoParent, Kind: KindDirectory, Name: "r", Size: 999, Dir: DirStats{Subdirs: 9, Files: 9}},
		{Parent: 0, Kind: KindDirectory, Name: "d", Size: 5},
		fileEntry(1, "f", 4, "aa"),
		fileEntry(0, "g", 6, "bb"),
	}
	aggregate(entries)

	assert.Equal(t, int64(10), entries[0].Size)
	assert.Equal(t, DirStats{Subdirs: 1, Files: 2}, entries[0].Dir)
	assert.Equal(t, int64(4), entries[1].Size)
	assert.Equal(t, DirStats{Subdirs: 0, Files: 1}, entries[1].Dir)
}
