package cloud

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lascloud/internal/las"
)

func testCloud(t *testing.T) *Cloud {
	t.Helper()
	c, err := New([]Point{
		{X: 0, Y: 0, Z: 10},
		{X: 4, Y: 1, Z: 12},
		{X: 2, Y: 5, Z: 11},
		{X: 1, Y: 2, Z: 30},
	}, []uint8{2, 2, 5, 6})
	require.NoError(t, err)
	return c
}

func TestNewEnforcesLabelInvariant(t *testing.T) {
	t.Parallel()

	_, err := New(make([]Point, 3), []uint8{1, 2})
	assert.ErrorContains(t, err, "3 points but 2 class labels")

	c, err := New(make([]Point, 3), nil)
	require.NoError(t, err)
	assert.False(t, c.HasClasses())
	assert.Nil(t, c.UniqueClasses())
	assert.Nil(t, c.ClassHistogram())
}

func TestBounds(t *testing.T) {
	t.Parallel()

	b, err := testCloud(t).Bounds()
	require.NoError(t, err)

	want := Bounds{
		X: Range{Min: 0, Max: 4},
		Y: Range{Min: 0, Max: 5},
		Z: Range{Min: 10, Max: 30},
	}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Errorf("bounds mismatch (-want +got):\n%s", diff)
	}

	empty := &Cloud{}
	_, err = empty.Bounds()
	assert.ErrorContains(t, err, "empty cloud")
}

func TestClassQueries(t *testing.T) {
	t.Parallel()

	c := testCloud(t)
	assert.Equal(t, []uint8{2, 5, 6}, c.UniqueClasses())
	assert.Equal(t, map[uint8]int{2: 2, 5: 1, 6: 1}, c.ClassHistogram())

	ground := c.PointsOfClass(2)
	require.Len(t, ground, 2)
	assert.Equal(t, Point{X: 4, Y: 1, Z: 12}, ground[1])
	assert.Empty(t, c.PointsOfClass(9))
}

func TestDecimate(t *testing.T) {
	t.Parallel()

	points := make([]Point, 100)
	classes := make([]uint8, 100)
	for i := range points {
		points[i] = Point{X: float64(i)}
		classes[i] = uint8(i % 4)
	}
	c, err := New(points, classes)
	require.NoError(t, err)

	small := c.Decimate(10)
	assert.LessOrEqual(t, small.Count(), 10)
	assert.Len(t, small.Classes, small.Count())
	assert.Equal(t, 0.0, small.Points[0].X)

	// Already under budget: same cloud back.
	assert.Same(t, c, c.Decimate(1000))
	assert.Same(t, c, c.Decimate(0))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	s, err := testCloud(t).Summarize()
	require.NoError(t, err)
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 15.75, s.ElevationMean, 1e-9)
	assert.Greater(t, s.ElevationStd, 0.0)
	require.Len(t, s.Classes, 3)
	assert.Equal(t, "ground", s.Classes[0].Name)
	assert.Equal(t, 2, s.Classes[0].Count)
}

func TestFromLAS(t *testing.T) {
	t.Parallel()

	f := &las.File{Points: []las.Point{
		{X: 1, Y: 2, Z: 3, Classification: 2, Intensity: 9},
		{X: 4, Y: 5, Z: 6, Classification: 5, Intensity: 1},
	}}
	c := FromLAS(f)
	assert.Equal(t, 2, c.Count())
	assert.True(t, c.HasClasses())
	assert.Equal(t, []uint8{2, 5}, c.Classes)
	assert.Equal(t, []uint16{9, 1}, c.Intensity)
	assert.Equal(t, Point{X: 4, Y: 5, Z: 6}, c.Points[1])
}

func TestClassName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ground", ClassName(2))
	assert.Equal(t, "high noise", ClassName(18))
	assert.Equal(t, "reserved (40)", ClassName(40))
	assert.Equal(t, "user defined (65)", ClassName(65))
}
