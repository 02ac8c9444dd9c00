package entry

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// maxPatternDepth bounds PatternFilter combination nesting: a Combination
// may hold Ignore/Accept leaves but not another Combination.
const maxPatternDepth = 1

// PatternFilterKind tags a PatternFilter.
type PatternFilterKind int

const (
	// PatternIgnore rejects a path when its glob matches the full path.
	PatternIgnore PatternFilterKind = iota
	// PatternAccept accepts a path only when its glob matches the full path.
	PatternAccept
	// PatternCombination ANDs together a set of Ignore/Accept leaves.
	PatternCombination
)

// PatternFilter is an unvalidated pattern rule, applied to the full path
// rather than to a file name or a directory-only subset the way Filter is.
// When an Entry carries one or more PatternFilters, they supersede every
// Filter the Entry also carries.
type PatternFilter struct {
	Kind    PatternFilterKind
	Pattern string
	Members []PatternFilter // only used when Kind == PatternCombination
}

// Ignore builds a PatternFilter that rejects full-path matches.
func Ignore(pattern string) PatternFilter {
	return PatternFilter{Kind: PatternIgnore, Pattern: pattern}
}

// Accept builds a PatternFilter that requires a full-path match.
func Accept(pattern string) PatternFilter {
	return PatternFilter{Kind: PatternAccept, Pattern: pattern}
}

// Combination builds a PatternFilter that ANDs its members. Members must
// themselves be Ignore or Accept; nesting another Combination is rejected at
// compile time.
func Combination(members ...PatternFilter) PatternFilter {
	return PatternFilter{Kind: PatternCombination, Members: members}
}

type compiledPattern struct {
	kind    PatternFilterKind
	pattern string
	members []compiledPattern
}

func compilePattern(p PatternFilter, depth int) (compiledPattern, error) {
	if depth > maxPatternDepth {
		return compiledPattern{}, fmt.Errorf("pattern combination nesting exceeds depth %d", maxPatternDepth)
	}
	switch p.Kind {
	case PatternIgnore, PatternAccept:
		if !doublestar.ValidatePattern(p.Pattern) {
			return compiledPattern{}, fmt.Errorf("invalid glob pattern %q", p.Pattern)
		}
		return compiledPattern{kind: p.Kind, pattern: p.Pattern}, nil
	case PatternCombination:
		members := make([]compiledPattern, 0, len(p.Members))
		for _, m := range p.Members {
			if m.Kind == PatternCombination {
				return compiledPattern{}, fmt.Errorf("pattern combination cannot nest another combination")
			}
			cm, err := compilePattern(m, depth+1)
			if err != nil {
				return compiledPattern{}, err
			}
			members = append(members, cm)
		}
		return compiledPattern{kind: PatternCombination, members: members}, nil
	default:
		return compiledPattern{}, fmt.Errorf("unknown pattern filter kind %d", p.Kind)
	}
}

// filtered reports whether path satisfies this compiled pattern. A
// Combination requires every member to accept.
func (c compiledPattern) filtered(path string) bool {
	switch c.kind {
	case PatternIgnore:
		m, _ := doublestar.Match(c.pattern, toSlash(path))
		return !m
	case PatternAccept:
		m, _ := doublestar.Match(c.pattern, toSlash(path))
		return m
	case PatternCombination:
		for _, m := range c.members {
			if !m.filtered(path) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
