package permission

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// patternKind discriminates the three pattern shapes stored in grants.
type patternKind uint8

const (
	kindExact patternKind = iota
	kindResourceWildcard
	kindGlobal
)

// Pattern is a stored grant: an exact code, a resource wildcard
// ("resource.*"), or the global wildcard ("*"). The zero value is not a valid
// pattern; construct via ParsePattern or the typed constructors.
type Pattern struct {
	kind     patternKind
	resource string
	action   string
}

// Code is a validated exact "resource.action" string naming one gated
// operation.
type Code struct {
	resource string
	action   string
}

// Global returns the global wildcard pattern.
func Global() Pattern {
	return Pattern{kind: kindGlobal}
}

// ResourceWildcard returns a pattern matching every action on the resource.
func ResourceWildcard(resource string) Pattern {
	return Pattern{kind: kindResourceWildcard, resource: normalizeToken(resource)}
}

// Exact returns a pattern matching a single code.
func Exact(resource, action string) Pattern {
	return Pattern{kind: kindExact, resource: normalizeToken(resource), action: normalizeToken(action)}
}

// ParsePattern parses a stored pattern string into its typed form. Accepted
// shapes: "*", "resource.*", "resource.action".
func ParsePattern(raw string) (Pattern, error) {
	value := strings.TrimSpace(raw)
	if value == "*" {
		return Global(), nil
	}
	resource, action, ok := strings.Cut(value, ".")
	if !ok {
		return Pattern{}, invalidPattern(raw, "expected resource.action or wildcard")
	}
	resource = normalizeToken(resource)
	action = normalizeToken(action)
	if resource == "" || action == "" || strings.Contains(action, ".") {
		return Pattern{}, invalidPattern(raw, "expected resource.action or wildcard")
	}
	if strings.Contains(resource, "*") {
		return Pattern{}, invalidPattern(raw, "wildcard only allowed as action")
	}
	if action == "*" {
		return Pattern{kind: kindResourceWildcard, resource: resource}, nil
	}
	if strings.Contains(action, "*") {
		return Pattern{}, invalidPattern(raw, "partial wildcards are not supported")
	}
	return Pattern{kind: kindExact, resource: resource, action: action}, nil
}

// ParseCode parses an exact permission code. Wildcards are rejected; codes
// name one operation.
func ParseCode(raw string) (Code, error) {
	pattern, err := ParsePattern(raw)
	if err != nil {
		return Code{}, err
	}
	if pattern.kind != kindExact {
		return Code{}, invalidPattern(raw, "codes cannot contain wildcards")
	}
	return Code{resource: pattern.resource, action: pattern.action}, nil
}

// MustCode parses a code and panics on failure. Intended for registry
// literals and tests.
func MustCode(raw string) Code {
	code, err := ParseCode(raw)
	if err != nil {
		panic(err)
	}
	return code
}

// MustPattern parses a pattern and panics on failure. Intended for registry
// literals and tests.
func MustPattern(raw string) Pattern {
	pattern, err := ParsePattern(raw)
	if err != nil {
		panic(err)
	}
	return pattern
}

// Matches reports whether the pattern grants the exact code. Matching is a
// total function over the three shapes: global matches everything, a resource
// wildcard matches codes sharing its resource, an exact pattern matches only
// the identical code.
func (p Pattern) Matches(code Code) bool {
	switch p.kind {
	case kindGlobal:
		return true
	case kindResourceWildcard:
		return p.resource == code.resource
	case kindExact:
		return p.resource == code.resource && p.action == code.action
	}
	return false
}

// IsGlobal reports whether the pattern is the global wildcard.
func (p Pattern) IsGlobal() bool { return p.kind == kindGlobal }

// IsWildcard reports whether the pattern matches more than one code.
func (p Pattern) IsWildcard() bool { return p.kind != kindExact }

// Resource returns the resource segment; empty for the global wildcard.
func (p Pattern) Resource() string { return p.resource }

// String renders the stored form of the pattern.
func (p Pattern) String() string {
	switch p.kind {
	case kindGlobal:
		return "*"
	case kindResourceWildcard:
		return p.resource + ".*"
	default:
		return p.resource + "." + p.action
	}
}

// Resource returns the code's resource segment.
func (c Code) Resource() string { return c.resource }

// Action returns the code's action segment.
func (c Code) Action() string { return c.action }

// String renders the "resource.action" form.
func (c Code) String() string { return c.resource + "." + c.action }

// Pattern returns the exact pattern equivalent to the code.
func (c Code) Pattern() Pattern {
	return Pattern{kind: kindExact, resource: c.resource, action: c.action}
}

func normalizeToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func invalidPattern(raw, reason string) error {
	return goerrors.New(fmt.Sprintf("go-access: invalid permission pattern %q: %s", raw, reason), goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode("PERMISSION_PATTERN_INVALID")
}
