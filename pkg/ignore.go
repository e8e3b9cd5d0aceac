package dircast

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// IgnoreMatcher excludes entries from a build by regular expression.
// Patterns are matched against the /-joined path relative to the build root;
// an ignored directory excludes its whole subtree.
type IgnoreMatcher struct {
	source   string
	patterns []*regexp.Regexp
}

// NewIgnoreMatcher compiles the given patterns
func NewIgnoreMatcher(patterns ...string) (*IgnoreMatcher, error) {
	im := &IgnoreMatcher{source: "inline"}
	for _, p := range patterns {
		if err := im.AddPattern(p); err != nil {
			return nil, err
		}
	}
	return im, nil
}

// LoadIgnoreFile reads one pattern per line; blank lines and # comments are skipped
func LoadIgnoreFile(path string) (*IgnoreMatcher, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ignore file: %w", err)
	}
	defer file.Close()

	im, err := ReadIgnorePatterns(file)
	if err != nil {
		return nil, fmt.Errorf("ignore file %s: %w", path, err)
	}
	im.source = path
	return im, nil
}

// ReadIgnorePatterns parses patterns from r in the ignore file format
func ReadIgnorePatterns(r io.Reader) (*IgnoreMatcher, error) {
	im := &IgnoreMatcher{source: "reader"}
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pattern, err := regexp.Compile(line)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern at line %d: %s - %w", lineNum, line, err)
		}
		im.patterns = append(im.patterns, pattern)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ignore patterns: %w", err)
	}

	return im, nil
}

// AddPattern adds a new ignore pattern
func (im *IgnoreMatcher) AddPattern(patternStr string) error {
	pattern, err := regexp.Compile(patternStr)
	if err != nil {
		return fmt.Errorf("invalid regex pattern: %s - %w", patternStr, err)
	}
	im.patterns = append(im.patterns, pattern)
	return nil
}

// ShouldIgnore checks if a relative path matches any pattern. A nil matcher ignores nothing.
func (im *IgnoreMatcher) ShouldIgnore(relativePath string) bool {
	if im == nil {
		return false
	}
	for _, pattern := range im.patterns {
		if pattern.MatchString(relativePath) {
			return true
		}
	}
	return false
}

// Patterns returns the pattern sources in load order
func (im *IgnoreMatcher) Patterns() []string {
	if im == nil {
		return nil
	}
	out := make([]string, len(im.patterns))
	for i, p := range im.patterns {
		out[i] = p.String()
	}
	return out
}

// HasPatterns returns true if there are any ignore patterns loaded
func (im *IgnoreMatcher) HasPatterns() bool {
	return im != nil && len(im.patterns) > 0
}

// Source returns where the patterns were loaded from
func (im *IgnoreMatcher) Source() string {
	if im == nil {
		return ""
	}
	return im.source
}
