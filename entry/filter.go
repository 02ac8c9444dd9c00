package entry

import (
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// FilterKind selects which part of a path a Filter's glob is matched
// against.
type FilterKind int

const (
	// FilterFolders matches the final path component and only applies to
	// directories.
	FilterFolders FilterKind = iota
	// FilterFiles matches the final path component and only applies to
	// regular files.
	FilterFiles
	// FilterCommon matches the full path regardless of entry type.
	FilterCommon
)

// Filter is an unvalidated glob rule. Use Folders/Files/Common to build one
// and pass it to Entry.Include/Entry.Exclude, which compile and validate it.
type Filter struct {
	Kind    FilterKind
	Pattern string
}

// Folders builds a Filter that matches directory paths.
func Folders(pattern string) Filter { return Filter{Kind: FilterFolders, Pattern: pattern} }

// Files builds a Filter that matches file base names.
func Files(pattern string) Filter { return Filter{Kind: FilterFiles, Pattern: pattern} }

// Common builds a Filter that matches any path regardless of entry type.
func Common(pattern string) Filter { return Filter{Kind: FilterCommon, Pattern: pattern} }

// compiledFilter is a Filter whose glob has been validated by doublestar.
type compiledFilter struct {
	kind    FilterKind
	pattern string
}

func compileFilter(f Filter) (compiledFilter, error) {
	if !doublestar.ValidatePattern(f.Pattern) {
		return compiledFilter{}, fmt.Errorf("invalid glob pattern %q", f.Pattern)
	}
	return compiledFilter{kind: f.Kind, pattern: f.Pattern}, nil
}

// filtered reports whether path matches this filter. The second return
// value is false when the filter doesn't apply to path at all (e.g. a Files
// filter being asked about a directory); such filters abstain rather than
// reject.
func (c compiledFilter) filtered(fullPath string, isDir bool) (matched bool, applies bool) {
	switch c.kind {
	case FilterFiles:
		if isDir {
			return false, false
		}
		m, _ := doublestar.Match(c.pattern, filepath.Base(fullPath))
		return m, true
	case FilterFolders:
		if !isDir {
			return false, false
		}
		m, _ := doublestar.Match(c.pattern, filepath.Base(fullPath))
		return m, true
	default: // FilterCommon
		m, _ := doublestar.Match(c.pattern, toSlash(fullPath))
		return m, true
	}
}

func toSlash(p string) string {
	return filepath.ToSlash(p)
}
