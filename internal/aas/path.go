package aas

import "strings"

// Path is the sequence of IDShort values from a submodel down to an element.
type Path []string

// ParsePath splits a dot-joined path.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

func (p Path) String() string { return strings.Join(p, ".") }

// Append returns a new path with segment appended; p is never modified.
func (p Path) Append(segment string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, segment)
}

// Leaf returns the last segment, or "" for an empty path.
func (p Path) Leaf() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Submodel returns the first segment, or "" for an empty path.
func (p Path) Submodel() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}
