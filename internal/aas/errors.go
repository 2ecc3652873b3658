package aas

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an identifier or path does not designate an
	// element of the shell.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTree is returned when the tree violates a structural invariant.
	ErrInvalidTree = errors.New("invalid tree")
)

// PathError records the segment at which a path stopped matching the tree.
type PathError struct {
	Path    Path
	Segment string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path %s: segment %q not found", e.Path, e.Segment)
}

func (e *PathError) Unwrap() error { return ErrNotFound }
