// Package aas holds the Asset Administration Shell of the fish tank: a tree of
// submodels whose elements are either scalar properties or nested collections
// of elements.
//
// The shell is the single source of truth for device configuration and state.
// It is only ever read and replaced as a whole; this package provides the
// in-memory traversal, path resolution and mutation over that tree.
package aas

import "fmt"

// ElementType discriminates the variants of a SubmodelElement.
type ElementType string

const (
	ElementProperty   ElementType = "Property"
	ElementCollection ElementType = "SubmodelElementCollection"
)

// Kind classifies a property as device state or fixed metadata.
type Kind string

const (
	// KindVariable marks device-writable/readable state (e.g. feeding time).
	KindVariable Kind = "variable"
	// KindConstant marks fixed descriptive metadata.
	KindConstant Kind = "constant"
)

// ValueType tags the semantic type of a property's string-encoded value.
type ValueType string

const (
	ValueTypeString   ValueType = "xs:string"
	ValueTypeDouble   ValueType = "xs:double"
	ValueTypeInteger  ValueType = "xs:integer"
	ValueTypeBoolean  ValueType = "xs:boolean"
	ValueTypeDateTime ValueType = "xs:dateTime"
	ValueTypeTime     ValueType = "xs:time"
)

// Shell is the root of the document.
type Shell struct {
	ID        string     `json:"id" bson:"id" yaml:"id"`
	IDShort   string     `json:"id_short,omitempty" bson:"id_short,omitempty" yaml:"id_short,omitempty"`
	Submodels []Submodel `json:"submodels" bson:"submodels" yaml:"submodels"`
}

// Submodel is a named top-level grouping of elements. IDShort values are unique
// within the shell.
type Submodel struct {
	ID       string            `json:"id" bson:"id" yaml:"id"`
	IDShort  string            `json:"id_short" bson:"id_short" yaml:"id_short"`
	Elements []SubmodelElement `json:"submodel_elements" bson:"submodel_elements" yaml:"submodel_elements"`
}

// SubmodelElement is a tagged union over Property and SubmodelElementCollection,
// discriminated by ModelType. Value, ValueType and Kind belong to properties;
// Elements belongs to collections.
type SubmodelElement struct {
	ModelType ElementType       `json:"model_type" bson:"model_type" yaml:"model_type"`
	IDShort   string            `json:"id_short" bson:"id_short" yaml:"id_short"`
	Value     string            `json:"value,omitempty" bson:"value,omitempty" yaml:"value,omitempty"`
	ValueType ValueType         `json:"value_type,omitempty" bson:"value_type,omitempty" yaml:"value_type,omitempty"`
	Kind      Kind              `json:"kind,omitempty" bson:"kind,omitempty" yaml:"kind,omitempty"`
	Elements  []SubmodelElement `json:"elements,omitempty" bson:"elements,omitempty" yaml:"elements,omitempty"`
}

// NewProperty returns a Property element.
func NewProperty(idShort string, valueType ValueType, kind Kind, value string) SubmodelElement {
	return SubmodelElement{
		ModelType: ElementProperty,
		IDShort:   idShort,
		Value:     value,
		ValueType: valueType,
		Kind:      kind,
	}
}

// NewCollection returns a SubmodelElementCollection element.
func NewCollection(idShort string, elements ...SubmodelElement) SubmodelElement {
	return SubmodelElement{
		ModelType: ElementCollection,
		IDShort:   idShort,
		Elements:  elements,
	}
}

// Submodel returns the submodel with the given IDShort.
func (s *Shell) Submodel(idShort string) (*Submodel, error) {
	for i := range s.Submodels {
		if s.Submodels[i].IDShort == idShort {
			return &s.Submodels[i], nil
		}
	}
	return nil, &PathError{Path: Path{idShort}, Segment: idShort}
}

// Validate checks the structural invariants of the tree: every element has a
// known model type, and IDShort values are non-empty and unique within each
// scope.
func (s *Shell) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: shell id is empty", ErrInvalidTree)
	}
	seen := make(map[string]struct{}, len(s.Submodels))
	for _, sm := range s.Submodels {
		if sm.IDShort == "" {
			return fmt.Errorf("%w: submodel %q has an empty id_short", ErrInvalidTree, sm.ID)
		}
		if _, dup := seen[sm.IDShort]; dup {
			return fmt.Errorf("%w: duplicate submodel id_short %q", ErrInvalidTree, sm.IDShort)
		}
		seen[sm.IDShort] = struct{}{}
		if err := validateScope(Path{sm.IDShort}, sm.Elements); err != nil {
			return err
		}
	}
	return nil
}

func validateScope(scope Path, elements []SubmodelElement) error {
	seen := make(map[string]struct{}, len(elements))
	for _, el := range elements {
		if el.IDShort == "" {
			return fmt.Errorf("%w: element with empty id_short in %s", ErrInvalidTree, scope)
		}
		if _, dup := seen[el.IDShort]; dup {
			return fmt.Errorf("%w: duplicate id_short %q in %s", ErrInvalidTree, el.IDShort, scope)
		}
		seen[el.IDShort] = struct{}{}

		switch el.ModelType {
		case ElementProperty:
			if len(el.Elements) > 0 {
				return fmt.Errorf("%w: property %s has child elements", ErrInvalidTree, scope.Append(el.IDShort))
			}
		case ElementCollection:
			if err := validateScope(scope.Append(el.IDShort), el.Elements); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown model type %q at %s", ErrInvalidTree, el.ModelType, scope.Append(el.IDShort))
		}
	}
	return nil
}
