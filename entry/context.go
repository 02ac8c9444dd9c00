package entry

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gitignore "github.com/sabhiram/go-gitignore"
)

// ContextFileKind distinguishes a context file whose lines are ignore rules
// from one whose lines are accept rules. See ContextFile for the semantic
// difference between the two.
type ContextFileKind int

const (
	// ContextIgnore rules are applied to both files and directories: a
	// match rejects the path unless the matching line was negated.
	ContextIgnore ContextFileKind = iota
	// ContextAccept rules only apply to files: a file is rejected unless
	// some non-negated accept rule matches it (directories always pass).
	ContextAccept
)

// ContextFile names a per-directory rules file, similar to .gitignore, to
// be discovered and parsed wherever it's found under an Entry's root.
type ContextFile struct {
	Kind ContextFileKind
	Name string
}

// IgnoreFile builds a ContextFile whose lines are ignore rules.
func IgnoreFile(name string) ContextFile { return ContextFile{Kind: ContextIgnore, Name: name} }

// AcceptFile builds a ContextFile whose lines are accept rules.
func AcceptFile(name string) ContextFile { return ContextFile{Kind: ContextAccept, Name: name} }

// patternLine is one compiled line of a context file: the underlying
// gitignore-style glob engine plus whether the line was negated with a
// leading '!'.
type patternLine struct {
	matcher  *gitignore.GitIgnore
	negative bool
}

func parseContextFile(path string) ([]patternLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []patternLine
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		negative := strings.HasPrefix(raw, "!")
		pattern := raw
		if negative {
			pattern = strings.TrimSpace(raw[1:])
		}
		// Each line is compiled on its own so the accept/ignore/negation
		// split keeps its two ordered lists instead of deferring to
		// gitignore's own last-match-wins semantics across a whole file.
		matcher := gitignore.CompileIgnoreLines(pattern)
		lines = append(lines, patternLine{matcher: matcher, negative: negative})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// contextPatterns holds the accept/ignore rules that apply starting at one
// directory, merged with whatever rules it inherited from ancestor
// directories: the rules in effect at a directory are the union of its own
// and every ancestor's.
type contextPatterns struct {
	accept []patternLine
	ignore []patternLine
}

func (c *contextPatterns) append(kind ContextFileKind, lines []patternLine) {
	if len(lines) == 0 {
		return
	}
	switch kind {
	case ContextAccept:
		c.accept = append(c.accept, lines...)
	default:
		c.ignore = append(c.ignore, lines...)
	}
}

// mergeFrom prepends an ancestor's accept and ignore rules ahead of this
// directory's own, for both rule lists, not ignore alone.
func (c *contextPatterns) mergeFrom(other *contextPatterns) {
	c.ignore = append(append([]patternLine{}, other.ignore...), c.ignore...)
	c.accept = append(append([]patternLine{}, other.accept...), c.accept...)
}

// filtered applies context-rule precedence: empty rule set passes;
// a negated ignore match with no accept rules is an exception that passes;
// a non-negated ignore match fails; an empty accept list passes; accept
// rules apply to files only; a negated accept match fails; otherwise the
// path passes iff some non-negated accept rule matches.
func (c *contextPatterns) filtered(relPath string, isDir bool) bool {
	if len(c.ignore) == 0 && len(c.accept) == 0 {
		return true
	}
	if len(c.accept) == 0 {
		for _, line := range c.ignore {
			if line.negative && line.matcher.MatchesPath(relPath) {
				return true
			}
		}
	}
	for _, line := range c.ignore {
		if !line.negative && line.matcher.MatchesPath(relPath) {
			return false
		}
	}
	if len(c.accept) == 0 {
		return true
	}
	if isDir {
		return true
	}
	for _, line := range c.accept {
		if line.negative && line.matcher.MatchesPath(relPath) {
			return false
		}
	}
	for _, line := range c.accept {
		if !line.negative && line.matcher.MatchesPath(relPath) {
			return true
		}
	}
	return false
}

// ContextBindings discovers and evaluates one or more ContextFile kinds
// across a directory tree: each directory's rules are kept as two ordered
// accept/ignore lists rather than a single gitignore matcher, both
// inherited down the tree. Consider and Filtered are safe to call from
// concurrent traversal workers.
type ContextBindings struct {
	files  []ContextFile
	logger *slog.Logger

	mu       sync.RWMutex
	patterns map[string]*contextPatterns
}

// NewContextBindings prepares a ContextBindings for the given context file
// kinds. Call Consider for every directory a traversal visits, root first.
func NewContextBindings(files ...ContextFile) *ContextBindings {
	return &ContextBindings{
		files:    files,
		patterns: make(map[string]*contextPatterns),
		logger:   slog.Default().With("component", "entry.context"),
	}
}

// Consider reads any configured context files present directly in dir and
// records their rules, merged with the accept and ignore rules inherited
// from dir's closest recorded ancestor. Callers must invoke Consider in top-down order
// (parent directories before their children) for inheritance to resolve
// correctly.
func (c *ContextBindings) Consider(dir string) error {
	cp := &contextPatterns{}
	for _, cf := range c.files {
		candidate := filepath.Join(dir, cf.Name)
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		lines, err := parseContextFile(candidate)
		if err != nil {
			return fmt.Errorf("parsing context file %s: %w", candidate, err)
		}
		cp.append(cf.Kind, lines)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if parent := c.nearestAncestorLocked(dir); parent != nil {
		cp.mergeFrom(parent)
	}

	if len(cp.ignore) == 0 && len(cp.accept) == 0 {
		return nil
	}
	c.patterns[dir] = cp
	c.logger.Debug("recorded context rules", "dir", dir, "ignore", len(cp.ignore), "accept", len(cp.accept))
	return nil
}

func (c *ContextBindings) nearestAncestorLocked(dir string) *contextPatterns {
	best := ""
	for d := range c.patterns {
		if d == dir {
			continue
		}
		if !strings.HasPrefix(dir+string(filepath.Separator), d+string(filepath.Separator)) {
			continue
		}
		if len(d) > len(best) {
			best = d
		}
	}
	if best == "" {
		return nil
	}
	return c.patterns[best]
}

// Filtered reports whether path passes the context rules recorded for its
// parent directory (or any ancestor, if the parent itself has none). A path
// with no applicable context rules always passes.
func (c *ContextBindings) Filtered(path string, isDir bool) bool {
	dir := filepath.Dir(path)
	c.mu.RLock()
	cp, ok := c.patterns[dir]
	if !ok {
		cp = c.nearestAncestorLocked(dir)
	}
	c.mu.RUnlock()
	if cp == nil {
		return true
	}
	return cp.filtered(path, isDir)
}
