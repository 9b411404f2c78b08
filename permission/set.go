package permission

import "sort"

// Set is the resolved collection of granted patterns for one user. It is a
// plain value type; resolution builds a fresh set per call so concurrent
// requests never share mutable state.
type Set map[Pattern]struct{}

// NewSet builds a set from the provided patterns.
func NewSet(patterns ...Pattern) Set {
	set := make(Set, len(patterns))
	for _, pattern := range patterns {
		set[pattern] = struct{}{}
	}
	return set
}

// Add inserts the pattern.
func (s Set) Add(pattern Pattern) {
	s[pattern] = struct{}{}
}

// Remove deletes the exact pattern. Removal is pattern-exact: revoking
// "report.read" does not narrow a broader "report.*" grant that remains in
// the set.
func (s Set) Remove(pattern Pattern) {
	delete(s, pattern)
}

// Contains reports whether the exact pattern is present.
func (s Set) Contains(pattern Pattern) bool {
	_, ok := s[pattern]
	return ok
}

// Allows reports whether any pattern in the set matches the code. The global
// wildcard short-circuits.
func (s Set) Allows(code Code) bool {
	if s.Contains(Global()) {
		return true
	}
	if s.Contains(code.Pattern()) {
		return true
	}
	if s.Contains(ResourceWildcard(code.Resource())) {
		return true
	}
	return false
}

// Equal reports order-independent set equality.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for pattern := range s {
		if !other.Contains(pattern) {
			return false
		}
	}
	return true
}

// Patterns returns the stored string forms sorted for stable output.
func (s Set) Patterns() []string {
	out := make([]string, 0, len(s))
	for pattern := range s {
		out = append(out, pattern.String())
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	clone := make(Set, len(s))
	for pattern := range s {
		clone[pattern] = struct{}{}
	}
	return clone
}
