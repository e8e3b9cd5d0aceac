package dircast

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// BuildOptions configures cast construction
type BuildOptions struct {
	Hash        HashOptions
	Workers     int            // concurrent hash workers, default DefaultHashWorkers
	SymlinkMode string         // one of the Symlink* modes, default SymlinkNoFollow
	Ignore      *IgnoreMatcher // optional exclusion patterns
	Progress    ProgressFunc   // optional phase/percentage hook
}

// Builder turns a directory tree into a Cast
type Builder struct {
	opts   BuildOptions
	hasher *Hasher
}

// fileID identifies a directory on disk for symlink cycle detection
type fileID struct {
	dev uint64
	ino uint64
}

// scanState is the arena being filled by one build
type scanState struct {
	rootDir  string
	entries  []Entry
	absPaths []string       // filesystem path per entry
	relPaths []string       // /-joined path relative to the root per entry
	dirIDs   map[int]fileID // device/inode of walked directories
	files    []int          // file entries awaiting hashes

	dirsDiscovered int
	dirsWalked     int
}

// scannedChild is a directory listing entry that will become a cast entry
type scannedChild struct {
	name    string
	descend bool
	id      fileID
	hasID   bool
}

// hashJob is one file waiting for its digests
type hashJob struct {
	index int
	path  string
}

// NewBuilder validates opts and returns a Builder
func NewBuilder(opts BuildOptions) (*Builder, error) {
	hasher, err := NewHasher(opts.Hash)
	if err != nil {
		return nil, err
	}
	if opts.Workers == 0 {
		opts.Workers = DefaultHashWorkers
	}
	if err := ValidateHashWorkers(opts.Workers); err != nil {
		return nil, err
	}
	if opts.SymlinkMode == "" {
		opts.SymlinkMode = SymlinkNoFollow
	}
	if err := ValidateSymlinkMode(opts.SymlinkMode); err != nil {
		return nil, err
	}
	opts.SymlinkMode = strings.ToLower(opts.SymlinkMode)
	return &Builder{opts: opts, hasher: hasher}, nil
}

// Build is shorthand for NewBuilder(opts) followed by Build(ctx, rootPath)
func Build(ctx context.Context, rootPath string, opts BuildOptions) (*Cast, error) {
	b, err := NewBuilder(opts)
	if err != nil {
		return nil, err
	}
	return b.Build(ctx, rootPath)
}

// Build walks rootPath once, hashes every file, then aggregates directory
// totals. Any I/O failure aborts the build; no partial cast is returned.
func (b *Builder) Build(ctx context.Context, rootPath string) (*Cast, error) {
	defer VerboseEnter()()

	absRoot, err := checkRoot(rootPath)
	if err != nil {
		return nil, err
	}
	VerboseLog(1, "Building cast of %s (digest %s, chunk %d, workers %d, symlinks %s)",
		absRoot, b.hasher.Algorithm(), b.hasher.ChunkSize(), b.opts.Workers, b.opts.SymlinkMode)

	s := &scanState{
		rootDir: absRoot,
		dirIDs:  make(map[int]fileID),
	}

	if err := b.walk(ctx, s); err != nil {
		return nil, err
	}
	VerboseLog(2, "Walk complete: %d entries, %d files to hash", len(s.entries), len(s.files))

	if err := b.hashFiles(ctx, s); err != nil {
		return nil, err
	}

	aggregate(s.entries)

	c := &Cast{entries: s.entries}
	stats := c.Stats()
	VerboseLog(1, "Cast built: %d directories, %d files, %s",
		stats.Directories, stats.Files, formatSize(stats.Bytes))
	return c, nil
}

// checkRoot rejects roots that are missing, not directories, or symlinks
func checkRoot(rootPath string) (string, error) {
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidRoot, rootPath, err)
	}
	absRoot = filepath.Clean(absRoot)

	info, err := os.Lstat(absRoot)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidRoot, rootPath, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return "", fmt.Errorf("%w: %s is a symlink", ErrInvalidRoot, rootPath)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, rootPath)
	}
	return absRoot, nil
}

// ============================================================================
// PHASE 1: WALK
// ============================================================================

// walk allocates every entry in a single-threaded depth-first walk. Each
// visited directory appends all of its subdirectories and then all of its
// files, sorted by name, so children always follow their parent.
func (b *Builder) walk(ctx context.Context, s *scanState) error {
	defer VerboseEnter()()

	rootName := filepath.Base(s.rootDir)
	if rootName == string(filepath.Separator) {
		rootName = ""
	}
	s.entries = append(s.entries, Entry{Parent: NoParent, Kind: KindDirectory, Name: rootName})
	s.absPaths = append(s.absPaths, s.rootDir)
	s.relPaths = append(s.relPaths, "")
	if id, ok := statID(s.rootDir); ok {
		s.dirIDs[0] = id
	}

	tracker := newProgressTracker(b.opts.Progress, PhaseScanning)
	s.dirsDiscovered = 1
	stack := []int{0}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		descend, err := b.readDirectory(s, current)
		if err != nil {
			return err
		}

		s.dirsWalked++
		s.dirsDiscovered += len(descend)
		tracker.update(s.dirsWalked, s.dirsDiscovered)

		// Reverse push so the first subdirectory is walked next
		for i := len(descend) - 1; i >= 0; i-- {
			stack = append(stack, descend[i])
		}
	}

	tracker.finish()
	return nil
}

// readDirectory appends the children of dir and returns the new directory
// entries that must be walked.
func (b *Builder) readDirectory(s *scanState, dir int) ([]int, error) {
	dirPath := s.absPaths[dir]
	dirents, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, &IOError{Op: "readdir", Path: dirPath, Err: err}
	}

	var subdirs, files []scannedChild

	for _, d := range dirents {
		name := d.Name()
		relPath := joinRel(s.relPaths[dir], name)
		if b.opts.Ignore.ShouldIgnore(relPath) {
			DebugLog("scan", "ignored %s", relPath)
			continue
		}

		fullPath := filepath.Join(dirPath, name)
		mode := d.Type()

		switch {
		case mode.IsDir():
			c := scannedChild{name: name, descend: true}
			c.id, c.hasID = statID(fullPath)
			subdirs = append(subdirs, c)

		case mode&os.ModeSymlink != 0:
			targetInfo, err := os.Stat(fullPath)
			if err != nil || !targetInfo.IsDir() {
				if err == nil && !targetInfo.Mode().IsRegular() {
					DebugLog("scan", "skipping special file behind link %s", relPath)
					continue
				}
				// dangling links fail later while hashing
				files = append(files, scannedChild{name: name})
				continue
			}
			c, keep := b.symlinkDirectory(s, dir, fullPath, relPath)
			if keep {
				c.name = name
				subdirs = append(subdirs, c)
			}

		case mode.IsRegular():
			files = append(files, scannedChild{name: name})

		default:
			DebugLog("scan", "skipping special file %s (%s)", relPath, mode)
		}
	}

	var descend []int
	for _, c := range subdirs {
		idx := len(s.entries)
		s.entries = append(s.entries, Entry{Parent: dir, Kind: KindDirectory, Name: c.name})
		s.absPaths = append(s.absPaths, filepath.Join(dirPath, c.name))
		s.relPaths = append(s.relPaths, joinRel(s.relPaths[dir], c.name))
		if c.hasID {
			s.dirIDs[idx] = c.id
		}
		if c.descend {
			descend = append(descend, idx)
		}
		DebugLog("scan", "dir  %d <- %d %s", idx, dir, s.relPaths[idx])
	}
	for _, c := range files {
		idx := len(s.entries)
		s.entries = append(s.entries, Entry{Parent: dir, Kind: KindFile, Name: c.name})
		s.absPaths = append(s.absPaths, filepath.Join(dirPath, c.name))
		s.relPaths = append(s.relPaths, joinRel(s.relPaths[dir], c.name))
		s.files = append(s.files, idx)
		DebugLog("scan", "file %d <- %d %s", idx, dir, s.relPaths[idx])
	}

	return descend, nil
}

// symlinkDirectory applies the symlink mode to a link that points at a directory
func (b *Builder) symlinkDirectory(s *scanState, parent int, fullPath, relPath string) (scannedChild, bool) {
	var c scannedChild

	switch b.opts.SymlinkMode {
	case SymlinkSkip:
		DebugLog("scan", "skipping directory link %s", relPath)
		return c, false

	case SymlinkFollow, SymlinkContained:
		if b.opts.SymlinkMode == SymlinkContained {
			target, err := filepath.EvalSymlinks(fullPath)
			if err != nil || !isPathContained(target, s.rootDir) {
				DebugLog("scan", "not following %s outside root", relPath)
				return c, true
			}
		}
		c.id, c.hasID = statID(fullPath)
		if c.hasID && s.onAncestorChain(parent, c.id) {
			DebugLog("scan", "not following %s: link cycle", relPath)
			return c, true
		}
		c.descend = true
		return c, true

	default:
		// nofollow: recorded as a directory that is never descended
		return c, true
	}
}

// onAncestorChain reports whether id is dir or one of its ancestors
func (s *scanState) onAncestorChain(dir int, id fileID) bool {
	for i := dir; i != NoParent; i = s.entries[i].Parent {
		if known, ok := s.dirIDs[i]; ok && known == id {
			return true
		}
	}
	return false
}

// statID returns the device/inode pair of the directory at path (following links)
func statID(path string) (fileID, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return fileID{}, false
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileID{}, false
	}
	return fileID{dev: uint64(st.Dev), ino: uint64(st.Ino)}, true
}

// isPathContained checks if targetPath is contained within containerPath
func isPathContained(targetPath, containerPath string) bool {
	targetPath = filepath.Clean(targetPath)
	containerPath = filepath.Clean(containerPath)

	// The root itself may be reached through links in its own path
	if resolved, err := filepath.EvalSymlinks(containerPath); err == nil {
		containerPath = resolved
	}

	if targetPath == containerPath {
		return true
	}
	return strings.HasPrefix(targetPath, containerPath+string(filepath.Separator))
}

func joinRel(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// ============================================================================
// PHASE 2: HASH
// ============================================================================

// hashFiles hashes every file entry with a bounded worker pool. Each job
// writes only its own entry. The first failure cancels the remaining jobs.
func (b *Builder) hashFiles(ctx context.Context, s *scanState) error {
	defer VerboseEnter()()

	tracker := newProgressTracker(b.opts.Progress, PhaseHashing)
	total := len(s.files)
	var hashed int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)

	for _, idx := range s.files {
		job := hashJob{index: idx, path: s.absPaths[idx]}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := b.hasher.HashFile(gctx, job.path)
			if err != nil {
				return err
			}
			e := &s.entries[job.index]
			e.Size = result.Size
			e.File = FileStats{Checksum: result.Checksum, Digest: result.Digest}

			tracker.update(int(atomic.AddInt64(&hashed, 1)), total)
			return nil
		})
	}

	// Barrier: aggregation must not start before every hash is final
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	tracker.finish()
	return nil
}

// ============================================================================
// PHASE 3: AGGREGATE
// ============================================================================

// aggregate fills directory sizes and counters in one backward pass. Every
// entry is folded into its parent; because a child's index is always larger
// than its parent's, each entry's own totals are final by the time the pass
// reaches it.
func aggregate(entries []Entry) {
	for i := range entries {
		if entries[i].Kind == KindDirectory {
			entries[i].Size = 0
			entries[i].Dir = DirStats{}
		}
	}

	for i := len(entries) - 1; i > 0; i-- {
		child := &entries[i]
		parent := &entries[child.Parent]
		parent.Size += child.Size
		if child.Kind == KindDirectory {
			parent.Dir.Subdirs += child.Dir.Subdirs + 1
			parent.Dir.Files += child.Dir.Files
		} else {
			parent.Dir.Files++
		}
	}
}
