// Package filter removes excluded paths from a diff.
package filter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// Apply returns a copy of diff with every path matching one of patterns
// removed from all four sets. The input is not modified.
func Apply(diff *s3types.DiffResult, patterns []string) *s3types.DiffResult {
	return &s3types.DiffResult{
		Missing: keep(diff.Missing, patterns),
		Changed: keep(diff.Changed, patterns),
		Extra:   keep(diff.Extra, patterns),
		Keep:    keep(diff.Keep, patterns),
	}
}

// Excluded reports whether path matches any of patterns.
func Excluded(path string, patterns []string) bool {
	path = strings.ReplaceAll(path, `\`, "/")
	for _, pattern := range patterns {
		if matches(path, pattern) {
			return true
		}
	}
	return false
}

func keep(paths, patterns []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !Excluded(p, patterns) {
			out = append(out, p)
		}
	}
	return out
}

// matches checks path and each of its parent directories against pattern,
// so "tmp/*" also excludes "tmp/a/b.txt".
func matches(path, pattern string) bool {
	pattern = filepath.ToSlash(pattern)

	// Directory patterns (ending with /) match everything beneath them
	if dir, ok := strings.CutSuffix(pattern, "/"); ok {
		return path == dir || strings.HasPrefix(path, dir+"/") || matchAncestors(path, dir)
	}

	if ok, _ := doublestar.Match(pattern, path); ok {
		return true
	}
	return matchAncestors(path, pattern)
}

func matchAncestors(path, pattern string) bool {
	for i := strings.LastIndex(path, "/"); i > 0; i = strings.LastIndex(path[:i], "/") {
		if ok, _ := doublestar.Match(pattern, path[:i]); ok {
			return true
		}
	}
	return false
}

// Validate checks that every pattern is well formed.
func Validate(patterns []string) []error {
	var errs []error

	for i, pattern := range patterns {
		if pattern == "" {
			errs = append(errs, &PatternError{Pattern: pattern, Index: i, Err: fmt.Errorf("empty pattern")})
			continue
		}
		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			errs = append(errs, &PatternError{Pattern: pattern, Index: i, Err: doublestar.ErrBadPattern})
		}
	}

	return errs
}

// PatternError represents an error with a pattern.
type PatternError struct {
	Pattern string
	Index   int
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern at index %d '%s': %v", e.Index, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}
