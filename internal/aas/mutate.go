package aas

import "fmt"

// Lookup returns the property at path.
func (s *Shell) Lookup(path Path) (SubmodelElement, error) {
	el, err := s.locate(path)
	if err != nil {
		return SubmodelElement{}, err
	}
	return *el, nil
}

// SetValue overwrites the value of the property at path, leaving every other
// node untouched. Missing segments are reported as a *PathError and are never
// created.
func (s *Shell) SetValue(path Path, value string) error {
	el, err := s.locate(path)
	if err != nil {
		return err
	}
	el.Value = value
	return nil
}

func (s *Shell) locate(path Path) (*SubmodelElement, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("%w: path %q does not address a property", ErrInvalidTree, path.String())
	}
	sm, err := s.Submodel(path[0])
	if err != nil {
		return nil, &PathError{Path: path, Segment: path[0]}
	}

	elements := sm.Elements
	for depth, segment := range path[1:] {
		el := find(elements, segment)
		if el == nil {
			return nil, &PathError{Path: path, Segment: segment}
		}
		last := depth == len(path)-2
		switch el.ModelType {
		case ElementProperty:
			if !last {
				return nil, fmt.Errorf("%w: %s is a property, cannot descend to %s", ErrInvalidTree, path[:depth+2], path)
			}
			return el, nil
		case ElementCollection:
			if last {
				return nil, fmt.Errorf("%w: %s is a collection, not a property", ErrInvalidTree, path)
			}
			elements = el.Elements
		default:
			return nil, fmt.Errorf("%w: unknown model type %q at %s", ErrInvalidTree, el.ModelType, path[:depth+2])
		}
	}
	// unreachable: the loop returns on the last segment
	return nil, &PathError{Path: path, Segment: path.Leaf()}
}

func find(elements []SubmodelElement, idShort string) *SubmodelElement {
	for i := range elements {
		if elements[i].IDShort == idShort {
			return &elements[i]
		}
	}
	return nil
}
