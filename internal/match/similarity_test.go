package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein_Classic(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"a", "b", 1},
		{"café", "cafe", 1}, // rune-wise, not byte-wise
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Levenshtein(tt.a, tt.b), "Levenshtein(%q, %q)", tt.a, tt.b)
	}
}

func TestSimilarity_Identical(t *testing.T) {
	for _, s := range []string{"a", "smith", "123 main st suite 4"} {
		assert.Equal(t, 1.0, Similarity(s, s))
	}
}

func TestSimilarity_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", "anything"))
	assert.Equal(t, 0.0, Similarity("anything", ""))
	assert.Equal(t, 0.0, Similarity("", ""))
}

func TestSimilarity_Symmetry(t *testing.T) {
	pairs := [][2]string{
		{"kitten", "sitting"},
		{"jon", "john"},
		{"acme plumbing", "acme plumbing llc"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]))
	}
}

func TestSimilarity_KittenSitting(t *testing.T) {
	// Edit distance 3, longer length 7: (7-3)/7.
	assert.InDelta(t, 4.0/7.0, Similarity("kitten", "sitting"), 1e-9)
}

func TestSimilarity_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"a", "zzzzzzzzzz"},
		{"completely", "different"},
		{"x", "x"},
	}
	for _, p := range pairs {
		got := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestSimilarity_Pure(t *testing.T) {
	first := Similarity("jon smith", "john smith")
	second := Similarity("jon smith", "john smith")
	assert.Equal(t, first, second)
}

func TestIsSimilar_ThresholdInclusive(t *testing.T) {
	// jon vs john scores exactly 0.75.
	assert.True(t, IsSimilar("jon", "john", 0.75))
	assert.False(t, IsSimilar("jon", "john", 0.76))
}
