package domain

import (
	"strings"
	"unique"
)

// InternedString is a value object that wraps a unique.Handle[string].
// Module names are compared on every graph edge, so handles keep those comparisons cheap.
type InternedString struct {
	h unique.Handle[string]
}

// NewInternedString creates a new InternedString from a string.
func NewInternedString(s string) InternedString {
	return InternedString{
		h: unique.Make(s),
	}
}

// NewInternedStrings interns every element of names, preserving order.
func NewInternedStrings(names ...string) []InternedString {
	out := make([]InternedString, 0, len(names))
	for _, n := range names {
		out = append(out, NewInternedString(n))
	}
	return out
}

// String returns the underlying string value.
func (is InternedString) String() string {
	var zero unique.Handle[string]
	if is.h == zero {
		return ""
	}
	return is.h.Value()
}

// IsZero reports whether the value was never assigned.
func (is InternedString) IsZero() bool {
	var zero unique.Handle[string]
	return is.h == zero
}

// Compare orders two interned strings lexically. It is meant for slices.SortFunc.
func (is InternedString) Compare(other InternedString) int {
	return strings.Compare(is.String(), other.String())
}

// MarshalText implements encoding.TextMarshaler.
func (is InternedString) MarshalText() ([]byte, error) {
	return []byte(is.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (is *InternedString) UnmarshalText(text []byte) error {
	is.h = unique.Make(string(text))
	return nil
}

// Strings converts a slice of interned strings back to plain strings.
func Strings(names []InternedString) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, n.String())
	}
	return out
}
