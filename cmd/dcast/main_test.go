package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	dircast "github.com/mattkeenan/dircast/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runDcast executes the command tree with an isolated config file
func runDcast(t *testing.T, configPath string, args ...string) (string, string, *app, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	cmd := NewRootCmd(a)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), a, err
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
}

func TestBuildAndShow(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config")
	root := filepath.Join(dir, "tree")
	writeFiles(t, root, map[string]string{"a/one.txt": "1", "two.txt": "22"})
	castPath := filepath.Join(dir, "tree.cast")

	_, stderr, _, err := runDcast(t, cfg, "build", root, "-o", castPath, "--compression", "zstd", "--progress")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Wrote "+castPath)
	assert.Contains(t, stderr, "hashing")

	c, err := dircast.LoadCast(castPath)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Len())

	stdout, _, _, err := runDcast(t, cfg, "show", castPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "-1 / d / tree / 3 / 1 / 2"), lines[0])
}

func TestBuildToStdout(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "tree")
	writeFiles(t, root, map[string]string{"f": "x"})

	stdout, _, _, err := runDcast(t, filepath.Join(dir, "config"), "build", root)
	require.NoError(t, err)

	c, err := dircast.Decode([]byte(stdout))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestBuildRejectsUnknownCompression(t *testing.T) {
	dir := t.TempDir()
	_, _, _, err := runDcast(t, filepath.Join(dir, "config"), "build", dir, "--compression", "gzip")
	assert.ErrorContains(t, err, "unknown compression")
}

func TestCompareExitCodes(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config")
	writeFiles(t, filepath.Join(dir, "A"), map[string]string{"x": "same", "y": "only in A"})
	writeFiles(t, filepath.Join(dir, "B"), map[string]string{"x": "same", "z": "only in B"})
	writeFiles(t, filepath.Join(dir, "C"), map[string]string{"x": "same", "y": "only in A"})

	stdout, _, a, err := runDcast(t, cfg, "compare", filepath.Join(dir, "A"), filepath.Join(dir, "C"))
	require.NoError(t, err)
	assert.Equal(t, "eq\n=\tx\tx\n=\ty\ty\n", stdout)
	assert.Equal(t, 0, a.exitCode)

	stdout, _, a, err = runDcast(t, cfg, "compare", filepath.Join(dir, "A"), filepath.Join(dir, "B"))
	require.NoError(t, err)
	assert.Equal(t, 1, a.exitCode)
	assert.Equal(t, "pd\n=\tx\tx\n-\ty\t\n+\t\tz\n", stdout)

	_, _, a, err = runDcast(t, cfg, "compare", filepath.Join(dir, "A"), filepath.Join(dir, "missing"))
	assert.Error(t, err)
	assert.Equal(t, 2, a.failCode)
}

func TestCompareSubtreesFromCastFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config")
	root := filepath.Join(dir, "tree")
	writeFiles(t, root, map[string]string{"left/f.txt": "v1", "right/f.txt": "v2"})
	castPath := filepath.Join(dir, "tree.cast")

	_, _, _, err := runDcast(t, cfg, "build", root, "-o", castPath)
	require.NoError(t, err)

	stdout, _, a, err := runDcast(t, cfg, "compare", castPath, castPath,
		"--at-a", "left", "--at-b", "right", "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, 1, a.exitCode)

	var report struct {
		Verdict string `json:"verdict"`
		Changes []struct {
			Code  string `json:"code"`
			PathA string `json:"path_a"`
		} `json:"changes"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, "ne", report.Verdict)
	require.Len(t, report.Changes, 1)
	assert.Equal(t, "!", report.Changes[0].Code)
	assert.Equal(t, "f.txt", report.Changes[0].PathA)

	_, _, _, err = runDcast(t, cfg, "compare", castPath, castPath, "--at-a", "nowhere")
	assert.ErrorContains(t, err, "no entry at nowhere")
}

func TestDupes(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config")
	root := filepath.Join(dir, "tree")
	writeFiles(t, root, map[string]string{
		"one/a.txt": "payload",
		"two/a.txt": "payload",
		"other/b":   "different",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty1"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty2"), 0755))

	stdout, _, _, err := runDcast(t, cfg, "dupes", root, "--format", "fdupes")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", stdout)

	stdout, _, _, err = runDcast(t, cfg, "dupes", root, "--format", "fdupes", "--include-empty")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n\nempty1\nempty2\n", stdout)
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "tree")
	writeFiles(t, root, map[string]string{"d/f": "abc", "g": "de"})

	stdout, _, _, err := runDcast(t, filepath.Join(dir, "config"), "stats", root, "--format", "json")
	require.NoError(t, err)

	var stats dircast.CastStats
	require.NoError(t, json.Unmarshal([]byte(stdout), &stats))
	assert.Equal(t, dircast.CastStats{Directories: 2, Files: 2, Bytes: 5}, stats)
}

func TestConfigSetAndShow(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config")

	stdout, _, _, err := runDcast(t, cfg, "config", "set", "codec.compression", "lzma")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Set codec.compression = lzma")

	stdout, _, _, err = runDcast(t, cfg, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "compression = lzma")

	_, _, _, err = runDcast(t, cfg, "config", "set", "codec.compression", "gzip")
	assert.Error(t, err)
}

func TestGlobalFlags(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "tree")
	writeFiles(t, root, map[string]string{"f": "x"})
	defer dircast.SetLogOutput(nil)
	defer dircast.InitLogging(0, "")
	defer dircast.SetDebugFlags("")

	var logs bytes.Buffer
	dircast.SetLogOutput(&logs)

	_, _, _, err := runDcast(t, filepath.Join(dir, "config"), "-vv", "--debug", "scan", "stats", root)
	require.NoError(t, err)
	assert.Equal(t, 2, dircast.GetVerbose())
	assert.Contains(t, logs.String(), "[SCAN]")

	_, _, _, err = runDcast(t, filepath.Join(dir, "config"), "--debug", "bogus", "stats", root)
	assert.Error(t, err)
}
