package compiledb

import (
	"fmt"
	"regexp"
)

// compilerPattern matches executable paths whose basename is a C-family
// compiler: an optional dash-separated target prefix, one of the known
// driver names, and an optional -N[.N[.N]] version suffix.
var compilerPattern = regexp.MustCompile(
	`(^|/)([^-/]+-)*(cc|c\+\+|gcc|g\+\+|clang|clang\+\+)(-[0-9]+(\.[0-9]+){0,2})?$`)

// Matcher decides whether an executable path is a C-family compiler.
type Matcher struct {
	patterns []*regexp.Regexp
}

// NewMatcher compiles the matcher, extended with any additional end-anchored
// patterns. Extra patterns are compiled once here; an invalid pattern fails
// the whole constructor.
func NewMatcher(extra ...string) (*Matcher, error) {
	patterns := []*regexp.Regexp{compilerPattern}
	for _, p := range extra {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return &Matcher{patterns: patterns}, nil
}

// Match reports whether path names a compiler executable.
func (m *Matcher) Match(path string) bool {
	for _, re := range m.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
