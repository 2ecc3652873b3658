package aas

import "fmt"

// FeedingFamily is the submodel holding the feeding schedule of the tank. Its
// properties are mirrored to the device on every write.
const FeedingFamily = "FishFeeding"

// FeedingSchedule lists the feeding properties at their conventional location,
// independent of how the rest of the tree evolves.
var FeedingSchedule = map[string]Path{
	"FirstFeedingTime":  {FeedingFamily, "FeedingSchedule", "FirstFeedingTime"},
	"SecondFeedingTime": {FeedingFamily, "FeedingSchedule", "SecondFeedingTime"},
	"FeedingAmount":     {FeedingFamily, "FeedingSchedule", "FeedingAmount"},
}

// Resolver translates a flat property identifier into a full path.
type Resolver struct {
	wellKnown map[string]Path
}

// NewResolver returns a Resolver consulting the given table of well-known
// identifiers before searching the tree. A nil table disables the lookup.
func NewResolver(wellKnown map[string]Path) *Resolver {
	return &Resolver{wellKnown: wellKnown}
}

// Resolve returns the path of the property designated by idShort.
//
// Well-known identifiers map to their fixed path. Any other identifier is
// searched among the submodels' direct properties first, then one level into
// collections, and so on; within a level the first match in document order
// wins. An identifier matching no property yields an error wrapping
// ErrNotFound.
func (r *Resolver) Resolve(s *Shell, idShort string) (Path, error) {
	if p, ok := r.wellKnown[idShort]; ok {
		return append(Path(nil), p...), nil
	}

	var found Path
	Inspect(s, func(path Path, el *SubmodelElement) bool {
		if el == nil {
			return false
		}
		switch el.ModelType {
		case ElementProperty:
			if el.IDShort == idShort && (found == nil || len(path) < len(found)) {
				found = path
			}
			return false
		case ElementCollection:
			// nothing below can beat a match at this depth or shallower
			return found == nil || len(path)+1 < len(found)
		default:
			return false
		}
	})
	if found == nil {
		return nil, fmt.Errorf("property %q: %w", idShort, ErrNotFound)
	}
	return found, nil
}

// Family reports the family of a well-known identifier: the submodel its fixed
// path starts at.
func (r *Resolver) Family(idShort string) (string, bool) {
	p, ok := r.wellKnown[idShort]
	if !ok {
		return "", false
	}
	return p.Submodel(), true
}
