package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryFromClass(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		class string
		want  Category
	}{
		{"aves maps to bird", "aves", CategoryBird},
		{"mammalia maps to mammal", "mammalia", CategoryMammal},
		{"reptilia maps to reptile", "reptilia", CategoryReptile},
		{"case insensitive", "AVES", CategoryBird},
		{"surrounding whitespace", "  mammalia  ", CategoryMammal},
		{"empty maps to unknown", "", CategoryUnknown},
		{"unknown class carried through", "Amphibia", Category("amphibia")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CategoryFromClass(tt.class))
		})
	}
}

func TestNewResult(t *testing.T) {
	t.Parallel()

	r := NewResult("/data/photos/IMG_0001.JPG", nil)
	assert.Equal(t, "/data/photos/IMG_0001.JPG", r.ImagePath)
	assert.Equal(t, "IMG_0001.JPG", r.ImageName)
	assert.False(t, r.HasDetections())
	assert.False(t, r.Timestamp.IsZero())
}

func TestBestCandidate(t *testing.T) {
	t.Parallel()

	t.Run("no candidates", func(t *testing.T) {
		t.Parallel()
		r := NewResult("a.jpg", nil)
		_, ok := r.BestCandidate()
		assert.False(t, ok)
	})

	t.Run("highest confidence wins", func(t *testing.T) {
		t.Parallel()
		r := NewResult("a.jpg", []Candidate{
			{Species: "fox", Confidence: 0.4},
			{Species: "deer", Confidence: 0.9},
			{Species: "boar", Confidence: 0.7},
		})
		best, ok := r.BestCandidate()
		require.True(t, ok)
		assert.Equal(t, "deer", best.Species)
	})

	t.Run("tie keeps first encountered", func(t *testing.T) {
		t.Parallel()
		r := NewResult("a.jpg", []Candidate{
			{Species: "fox", Confidence: 0.8},
			{Species: "deer", Confidence: 0.8},
		})
		best, ok := r.BestCandidate()
		require.True(t, ok)
		assert.Equal(t, "fox", best.Species)
	})
}

func TestSpeciesCount(t *testing.T) {
	t.Parallel()

	r := NewResult("a.jpg", []Candidate{
		{Species: "fox", Confidence: 0.8},
		{Species: "fox", Confidence: 0.6},
		{Species: "deer", Confidence: 0.5},
	})
	assert.Equal(t, 2, r.SpeciesCount())

	empty := NewResult("b.jpg", nil)
	assert.Equal(t, 0, empty.SpeciesCount())
}
