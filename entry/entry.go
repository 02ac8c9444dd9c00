// Package entry implements the Filter Model: per-root include/exclude
// globs, full-path pattern filters, and .gitignore-style context files,
// combined into the single Entry.Filtered decision a traversal consults for
// every path it visits.
package entry

import (
	"fmt"
	"os"
	"path/filepath"
)

// Entry binds a root directory to the set of rules that decide which paths
// under it are collected.
type Entry struct {
	Root string

	include  []compiledFilter
	exclude  []compiledFilter
	patterns []compiledPattern
	context  *ContextBindings
}

// Option configures an Entry at construction time.
type Option func(*Entry) error

// Include adds an include Filter. Include and Exclude are ignored entirely
// once the Entry also carries one or more Pattern filters.
func Include(f Filter) Option {
	return func(e *Entry) error {
		cf, err := compileFilter(f)
		if err != nil {
			return fmt.Errorf("include filter: %w", err)
		}
		e.include = append(e.include, cf)
		return nil
	}
}

// Exclude adds an exclude Filter.
func Exclude(f Filter) Option {
	return func(e *Entry) error {
		cf, err := compileFilter(f)
		if err != nil {
			return fmt.Errorf("exclude filter: %w", err)
		}
		e.exclude = append(e.exclude, cf)
		return nil
	}
}

// Pattern adds a full-path PatternFilter. A non-empty set of PatternFilters
// supersedes every Filter the Entry carries (see Filtered).
func Pattern(p PatternFilter) Option {
	return func(e *Entry) error {
		cp, err := compilePattern(p, 0)
		if err != nil {
			return fmt.Errorf("pattern filter: %w", err)
		}
		e.patterns = append(e.patterns, cp)
		return nil
	}
}

// Context attaches context files (e.g. a ".dirsumignore") to be discovered
// and evaluated hierarchically beneath the Entry's root.
func Context(files ...ContextFile) Option {
	return func(e *Entry) error {
		e.context = NewContextBindings(files...)
		return nil
	}
}

// New validates root (must be an absolute, existing directory) and applies
// opts, returning a ready-to-use Entry.
func New(root string, opts ...Option) (*Entry, error) {
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("entry root %q is not absolute", root)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("entry root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("entry root %q is not a directory", root)
	}

	e := &Entry{Root: filepath.Clean(root)}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.include = dedupFilters(e.include)
	e.exclude = dedupFilters(e.exclude)
	return e, nil
}

// dedupFilters drops repeated (kind, pattern) pairs, keeping first
// occurrence order.
func dedupFilters(filters []compiledFilter) []compiledFilter {
	seen := make(map[compiledFilter]bool, len(filters))
	out := filters[:0]
	for _, f := range filters {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// ContextBindings exposes the Entry's context file bindings, or nil if none
// were configured. Traversal uses this to call Consider per directory.
func (e *Entry) ContextBindings() *ContextBindings {
	return e.context
}

// Filtered reports whether path should be collected. Non-empty
// PatternFilters supersede Filters entirely; otherwise an exclude match
// rejects the path; otherwise an empty include list passes everything, and
// a non-empty one requires a match (a Filter that doesn't apply to this
// path kind abstains rather than rejects).
// Context file rules are applied last and independently of Filters/Patterns.
func (e *Entry) Filtered(path string, isDir bool) bool {
	if len(e.patterns) > 0 {
		matched := false
		for _, p := range e.patterns {
			if p.filtered(path) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	} else {
		for _, ex := range e.exclude {
			if m, applies := ex.filtered(path, isDir); applies && m {
				return false
			}
		}
		if len(e.include) > 0 {
			anyMatch := false
			for _, inc := range e.include {
				m, applies := inc.filtered(path, isDir)
				if !applies || m {
					anyMatch = true
					break
				}
			}
			if !anyMatch {
				return false
			}
		}
	}

	if e.context != nil && !e.context.Filtered(path, isDir) {
		return false
	}
	return true
}
