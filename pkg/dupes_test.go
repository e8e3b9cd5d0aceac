package dircast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dupeFiles = map[string]string{
	"E1/":        "",
	"E2/":        "",
	"P1/Q/a.txt": "aaa",
	"P1/b.txt":   "bb",
	"P2/Q/a.txt": "aaa",
	"P2/b.txt":   "bb",
	"S1/f":       "s",
	"S2/f":       "s",
	"X/one":      "unique",
}

func groupPaths(groups []DuplicateGroup) [][]string {
	var out [][]string
	for _, g := range groups {
		out = append(out, g.Paths)
	}
	return out
}

func TestFindDuplicates_PrunesNestedGroups(t *testing.T) {
	c, _ := buildTree(t, dupeFiles)

	groups := FindDuplicates(c, DuplicateOptions{IgnoreEmpty: true})

	// P1/Q and P2/Q are duplicates too, but only inside P1 and P2
	assert.Equal(t, [][]string{{"P1", "P2"}, {"S1", "S2"}}, groupPaths(groups))
	require.Len(t, groups, 2)
	assert.Equal(t, int64(5), groups[0].Size)
	assert.Equal(t, int64(1), groups[1].Size)
	assert.Equal(t, []int{mustIndex(t, c, "P1"), mustIndex(t, c, "P2")}, groups[0].Members)
}

func TestFindDuplicates_EmptyDirectories(t *testing.T) {
	c, _ := buildTree(t, dupeFiles)

	withEmpty := FindDuplicates(c, DuplicateOptions{IgnoreEmpty: false})
	assert.Equal(t, [][]string{{"P1", "P2"}, {"S1", "S2"}, {"E1", "E2"}}, groupPaths(withEmpty))

	withoutEmpty := FindDuplicates(c, DuplicateOptions{IgnoreEmpty: true})
	for _, g := range withoutEmpty {
		for _, m := range g.Members {
			assert.False(t, c.IsEmptyDir(m), "empty directory %s reported", c.PathOf(m, 0))
		}
	}
}

func TestFindDuplicateDirs_EmptyTree(t *testing.T) {
	c, _ := buildTree(t, map[string]string{})
	require.True(t, c.IsEmptyDir(0))

	assert.Empty(t, FindDuplicateDirs(c, true))
	// a lone empty root has nothing to pair with
	assert.Empty(t, FindDuplicateDirs(c, false))
}

func TestFindDuplicateDirs_NestedGroupWithOutsideMember(t *testing.T) {
	files := map[string]string{
		"T/Q/a.txt": "aaa",
	}
	for k, v := range dupeFiles {
		files[k] = v
	}
	c, _ := buildTree(t, files)

	groups := FindDuplicates(c, DuplicateOptions{IgnoreEmpty: true})

	// three copies of Q cannot all sit inside the two members of {P1, P2}
	assert.Contains(t, groupPaths(groups), []string{"P1/Q", "P2/Q", "T/Q"})
	assert.Contains(t, groupPaths(groups), []string{"P1", "P2"})
}

func TestFindDuplicateDirs_SameStatsButDifferentContent(t *testing.T) {
	// equal sizes and counts, different file names
	c, _ := buildTree(t, map[string]string{
		"A/x": "12345",
		"B/y": "12345",
	})
	a, b := c.Entry(mustIndex(t, c, "A")), c.Entry(mustIndex(t, c, "B"))
	require.True(t, SameStats(&a, &b))

	assert.Empty(t, FindDuplicateDirs(c, true))
}

func TestInsertBySize_StableDescending(t *testing.T) {
	c := castOf(t,
		dirEntry(NoParent, "r"),     // 0
		dirEntry(0, "small1"),       // 1
		dirEntry(0, "big"),          // 2
		dirEntry(0, "small2"),       // 3
		fileEntry(1, "f", 1, "aa"),  // 4
		fileEntry(2, "f", 10, "bb"), // 5
		fileEntry(3, "f", 1, "cc"),  // 6
	)

	var accepted [][]int
	accepted = insertBySize(c, accepted, []int{1})
	accepted = insertBySize(c, accepted, []int{2})
	accepted = insertBySize(c, accepted, []int{3})

	assert.Equal(t, [][]int{{2}, {1}, {3}}, accepted)
}
