package dircast

// DuplicateOptions configures FindDuplicates
type DuplicateOptions struct {
	IgnoreEmpty bool // skip directories with no content at all
}

// DuplicateGroup is one set of identical directories
type DuplicateGroup struct {
	Size    int64    `json:"size"`
	Members []int    `json:"members"`
	Paths   []string `json:"paths"`
}

// FindDuplicateDirs returns groups of directory indices whose subtrees are
// identical. A group that lies entirely inside the members of an earlier
// accepted group is dropped, so only the outermost copies are reported.
// Groups are sorted by size, largest first.
func FindDuplicateDirs(c *Cast, ignoreEmpty bool) [][]int {
	defer VerboseEnter()()

	var dirs []int
	for i := range c.entries {
		if c.entries[i].Kind == KindDirectory {
			dirs = append(dirs, i)
		}
	}

	grouped := make(map[int]bool)
	var accepted [][]int

	for n, x := range dirs {
		if grouped[x] {
			continue
		}
		if ignoreEmpty && c.IsEmptyDir(x) {
			continue
		}

		group := []int{x}
		for _, y := range dirs[n+1:] {
			if grouped[y] || !SameStats(&c.entries[x], &c.entries[y]) {
				continue
			}
			result, err := Compare(c, x, c, y, CompareOptions{})
			if err == nil && result.Verdict == VerdictEqual {
				group = append(group, y)
			}
		}
		if len(group) < 2 {
			continue
		}

		if coveredByAccepted(c, group, accepted) {
			DebugLog("dupes", "group at %s is nested in an accepted group", displayPath(c.PathOf(x, 0)))
			continue
		}

		for _, m := range group {
			grouped[m] = true
		}
		accepted = insertBySize(c, accepted, group)
		DebugLog("dupes", "group at %s: %d members", displayPath(c.PathOf(x, 0)), len(group))
	}

	VerboseLog(1, "Found %d duplicate directory groups", len(accepted))
	return accepted
}

// FindDuplicates wraps FindDuplicateDirs with sizes and root-relative paths
func FindDuplicates(c *Cast, opts DuplicateOptions) []DuplicateGroup {
	raw := FindDuplicateDirs(c, opts.IgnoreEmpty)
	groups := make([]DuplicateGroup, 0, len(raw))
	for _, members := range raw {
		g := DuplicateGroup{
			Size:    c.entries[members[0]].Size,
			Members: members,
			Paths:   make([]string, len(members)),
		}
		for i, m := range members {
			g.Paths[i] = c.PathOf(m, 0)
		}
		groups = append(groups, g)
	}
	return groups
}

func coveredByAccepted(c *Cast, group []int, accepted [][]int) bool {
	for _, a := range accepted {
		if c.IsSubs(group, a) {
			return true
		}
	}
	return false
}

// insertBySize inserts group after every accepted group whose first member
// is at least as large, keeping scan order among equal sizes.
func insertBySize(c *Cast, accepted [][]int, group []int) [][]int {
	size := c.entries[group[0]].Size
	pos := len(accepted)
	for pos > 0 && c.entries[accepted[pos-1][0]].Size < size {
		pos--
	}
	accepted = append(accepted, nil)
	copy(accepted[pos+1:], accepted[pos:])
	accepted[pos] = group
	return accepted
}
