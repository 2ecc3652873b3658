package aas

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetValueRoundTrip(t *testing.T) {
	for _, ref := range Properties(tankShell(), nil) {
		t.Run(ref.Path.String(), func(t *testing.T) {
			s := tankShell()
			require.NoError(t, s.SetValue(ref.Path, "changed"))

			got, err := s.Lookup(ref.Path)
			require.NoError(t, err)
			assert.Equal(t, "changed", got.Value)

			// Everything else is untouched.
			want := tankShell()
			require.NoError(t, want.SetValue(ref.Path, "changed"))
			if diff := cmp.Diff(want, s); diff != "" {
				t.Errorf("unexpected tree (-want +got):\n%s", diff)
			}
			for _, other := range Properties(s, nil) {
				if other.Path.String() == ref.Path.String() {
					continue
				}
				orig, err := tankShell().Lookup(other.Path)
				require.NoError(t, err)
				assert.Equal(t, orig.Value, other.Property.Value, "sibling %s changed", other.Path)
			}
		})
	}
}

func TestSetValueMissingSegment(t *testing.T) {
	tests := []struct {
		path    Path
		segment string
	}{
		{path: Path{"Nope", "Manufacturer"}, segment: "Nope"},
		{path: Path{"FishFeeding", "Nope", "FirstFeedingTime"}, segment: "Nope"},
		{path: Path{"FishFeeding", "FeedingSchedule", "ThirdFeedingTime"}, segment: "ThirdFeedingTime"},
	}
	for _, tt := range tests {
		t.Run(tt.path.String(), func(t *testing.T) {
			s := tankShell()
			err := s.SetValue(tt.path, "x")

			var pe *PathError
			require.True(t, errors.As(err, &pe), "want *PathError, got %v", err)
			assert.Equal(t, tt.segment, pe.Segment)
			assert.ErrorIs(t, err, ErrNotFound)

			if diff := cmp.Diff(tankShell(), s); diff != "" {
				t.Errorf("tree changed on failed update (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSetValueStructuralMisuse(t *testing.T) {
	s := tankShell()

	err := s.SetValue(Path{"FishFeeding", "FeedingSchedule"}, "x")
	assert.ErrorIs(t, err, ErrInvalidTree)

	err = s.SetValue(Path{"Identification", "Manufacturer", "Name"}, "x")
	assert.ErrorIs(t, err, ErrInvalidTree)

	err = s.SetValue(Path{"Identification"}, "x")
	assert.ErrorIs(t, err, ErrInvalidTree)
}

func TestSubmodel(t *testing.T) {
	s := tankShell()

	sm, err := s.Submodel("FishFeeding")
	require.NoError(t, err)
	assert.Equal(t, "urn:sm:feeding", sm.ID)

	_, err = s.Submodel("Nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidate(t *testing.T) {
	require.NoError(t, tankShell().Validate())

	dup := tankShell()
	dup.Submodels[0].Elements = append(dup.Submodels[0].Elements,
		NewProperty("Manufacturer", ValueTypeString, KindConstant, "again"))
	assert.ErrorIs(t, dup.Validate(), ErrInvalidTree)

	unknown := tankShell()
	unknown.Submodels[1].Elements[0].ModelType = "Blob"
	assert.ErrorIs(t, unknown.Validate(), ErrInvalidTree)

	noID := tankShell()
	noID.ID = ""
	assert.ErrorIs(t, noID.Validate(), ErrInvalidTree)
}
