package aas

// A Visitor defines a Visit method invoked for each element encountered by
// Walk, together with the element's full path. If the result visitor w is not
// nil, Walk visits each child of a collection with the visitor w, followed by a
// call of w.Visit(nil, nil).
type Visitor interface {
	Visit(path Path, el *SubmodelElement) (w Visitor)
}

// Walk traverses every submodel of the shell in depth-first, pre-order: it calls
// WalkElement for each direct element of each submodel in document order.
func Walk(v Visitor, s *Shell) {
	for i := range s.Submodels {
		sm := &s.Submodels[i]
		scope := Path{sm.IDShort}
		for j := range sm.Elements {
			WalkElement(v, scope, &sm.Elements[j])
		}
	}
}

// WalkElement starts by calling v.Visit with the element found in scope. If the
// visitor w returned is not nil and the element is a collection, WalkElement is
// invoked recursively with w for each child, followed by a call of
// w.Visit(nil, nil).
func WalkElement(v Visitor, scope Path, el *SubmodelElement) {
	path := scope.Append(el.IDShort)
	if v = v.Visit(path, el); v == nil {
		return
	}
	switch el.ModelType {
	case ElementCollection:
		for i := range el.Elements {
			WalkElement(v, path, &el.Elements[i])
		}
	case ElementProperty:
		// leaf
	}
	v.Visit(nil, nil)
}

type inspector func(path Path, el *SubmodelElement) bool

func (f inspector) Visit(path Path, el *SubmodelElement) Visitor {
	if f(path, el) {
		return f
	}
	return nil
}

// Inspect traverses the shell in depth-first order, calling f for each element.
// If f returns true, Inspect descends into the children of that element,
// followed by a call of f(nil, nil).
func Inspect(s *Shell, f func(path Path, el *SubmodelElement) bool) {
	Walk(inspector(f), s)
}

// PropertyRef is a read-only view of a property leaf and where it sits.
type PropertyRef struct {
	Path     Path
	Property SubmodelElement
}

// Properties returns every property leaf of the shell for which keep returns
// true, in traversal order. A nil keep selects every property.
func Properties(s *Shell, keep func(PropertyRef) bool) []PropertyRef {
	var refs []PropertyRef
	Inspect(s, func(path Path, el *SubmodelElement) bool {
		if el == nil {
			return false
		}
		switch el.ModelType {
		case ElementProperty:
			ref := PropertyRef{Path: path, Property: *el}
			if keep == nil || keep(ref) {
				refs = append(refs, ref)
			}
			return false
		case ElementCollection:
			return true
		default:
			return false
		}
	})
	return refs
}

// OfKind selects properties tagged with kind.
func OfKind(kind Kind) func(PropertyRef) bool {
	return func(ref PropertyRef) bool { return ref.Property.Kind == kind }
}
