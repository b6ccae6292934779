package validate

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// minSubstringLen keeps one- and two-letter values from matching everything.
const minSubstringLen = 3

// Match is the outcome of a category lookup.
type Match struct {
	Value    string
	Exact    bool
	Found    bool
	Distance int
}

// Matcher resolves free-form values against a reference list.
type Matcher struct {
	refs        []string
	folded      []string
	maxDistance int
}

// NewMatcher builds a Matcher over refs.
func NewMatcher(refs []string, maxDistance int) *Matcher {
	m := &Matcher{
		refs:        refs,
		folded:      make([]string, len(refs)),
		maxDistance: maxDistance,
	}
	for i, r := range refs {
		m.folded[i] = Fold(r)
	}
	return m
}

// Empty reports whether the reference list is empty.
func (m *Matcher) Empty() bool { return len(m.refs) == 0 }

// Match looks value up in three steps: exact case-insensitive equality,
// substring containment in either direction, then the smallest edit distance
// within maxDistance. Steps two and three compare folded strings.
func (m *Matcher) Match(value string) Match {
	for _, r := range m.refs {
		if strings.EqualFold(value, r) {
			return Match{Value: r, Exact: true, Found: true}
		}
	}

	fv := Fold(value)
	if fv == "" {
		return Match{}
	}

	best, bestDist := -1, 0
	consider := func(i, d int) {
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}

	if utf8.RuneCountInString(fv) >= minSubstringLen {
		for i, f := range m.folded {
			if strings.Contains(f, fv) || strings.Contains(fv, f) {
				consider(i, levenshtein.ComputeDistance(fv, f))
			}
		}
	}
	if best < 0 {
		for i, f := range m.folded {
			if d := levenshtein.ComputeDistance(fv, f); d <= m.maxDistance {
				consider(i, d)
			}
		}
	}

	if best < 0 {
		return Match{}
	}
	return Match{Value: m.refs[best], Found: true, Distance: bestDist}
}
