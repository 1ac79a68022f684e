package procset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MergesConsecutiveIDs(t *testing.T) {
	tests := []struct {
		name string
		ids  []int
		want string
	}{
		{"empty", nil, ""},
		{"single", []int{4}, "4"},
		{"range", []int{0, 1, 2, 3}, "0-3"},
		{"unsorted with gap", []int{5, 1, 0, 3, 2}, "0-3 5"},
		{"duplicates", []int{2, 2, 3, 3}, "2-3"},
		{"scattered", []int{9, 1, 5}, "1 5 9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.ids...).String())
		})
	}
}

func TestSet_LenContainsIDs(t *testing.T) {
	s := New(7, 0, 1, 2, 10, 11)

	assert.Equal(t, 6, s.Len())
	assert.Equal(t, []int{0, 1, 2, 7, 10, 11}, s.IDs())
	for _, id := range []int{0, 2, 7, 11} {
		assert.True(t, s.Contains(id), id)
	}
	for _, id := range []int{-1, 3, 6, 8, 12} {
		assert.False(t, s.Contains(id), id)
	}
	assert.False(t, Set{}.Contains(0))
	assert.True(t, Set{}.IsEmpty())
}

func TestSet_UnionMergesAdjacentIntervals(t *testing.T) {
	a := New(0, 1, 2)
	b := New(3, 4, 8)

	u := a.Union(b)

	assert.Equal(t, "0-4 8", u.String())
	assert.Equal(t, []Interval{{0, 4}, {8, 8}}, u.Intervals())
	assert.Equal(t, "0-2", a.String(), "operands are not modified")
	assert.Equal(t, "0-2 5", a.Insert(5).String())
}

func TestParse_RoundTripsString(t *testing.T) {
	for _, in := range []string{"", "3", "0-3 5", "1 5 9", "0-10 12-14"} {
		s, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, in, s.String())
	}
}

func TestParse_NormalizesOverlaps(t *testing.T) {
	s, err := Parse("4-6 0-2 3 5-9")
	require.NoError(t, err)
	assert.Equal(t, "0-9", s.String())
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"a", "1-b", "5-2", "1-2-3"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}
