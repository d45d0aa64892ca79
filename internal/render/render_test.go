package render

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lascloud/internal/cloud"
	"github.com/banshee-data/lascloud/internal/svm"
)

func labeledCloud(t *testing.T) *cloud.Cloud {
	t.Helper()
	c, err := cloud.New([]cloud.Point{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0.2}, {X: 0, Y: 1, Z: 0.1},
		{X: 0.5, Y: 0.5, Z: 10}, {X: 1, Y: 1, Z: 10.5}, {X: 0.2, Y: 0.8, Z: 10.2},
	}, []uint8{2, 2, 2, 5, 5, 5})
	require.NoError(t, err)
	return c
}

func TestClassScatter3D(t *testing.T) {
	t.Parallel()

	chart, err := ClassScatter3D(labeledCloud(t), SceneOptions{Title: "test cloud"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, chart.Render(&buf))
	html := buf.String()

	assert.Contains(t, html, "scatter3D")
	assert.Contains(t, html, "Class 2 (ground)")
	assert.Contains(t, html, "Class 5 (high vegetation)")
	assert.Contains(t, html, "test cloud")
}

func TestClassScatter3DUnlabeled(t *testing.T) {
	t.Parallel()

	c, err := cloud.New([]cloud.Point{{X: 1}, {Y: 1}, {Z: 1}}, nil)
	require.NoError(t, err)

	chart, err := ClassScatter3D(c, SceneOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, chart.Render(&buf))
	assert.Contains(t, buf.String(), "points")
}

func TestClassScatter3DEmptyCloud(t *testing.T) {
	t.Parallel()

	empty, err := cloud.New(nil, nil)
	require.NoError(t, err)
	_, err = ClassScatter3D(empty, SceneOptions{})
	assert.ErrorContains(t, err, "empty cloud")
}

func TestAddPlaneOverlay(t *testing.T) {
	t.Parallel()

	c := labeledCloud(t)
	res, err := svm.Train(c, 2, 5, svm.Config{})
	require.NoError(t, err)

	chart, err := ClassScatter3D(c, SceneOptions{})
	require.NoError(t, err)
	require.NoError(t, AddPlaneOverlay(chart, c, res, 10, 0))

	var buf bytes.Buffer
	require.NoError(t, chart.Render(&buf))
	html := buf.String()
	assert.Contains(t, html, "surface")
	assert.Contains(t, html, "Class 2 vs 5 plane")
}

func TestClassColorsStable(t *testing.T) {
	t.Parallel()

	c := labeledCloud(t)
	colors := ClassColors(c)
	require.Len(t, colors, 2)
	// Ascending label order maps onto the palette front.
	assert.Equal(t, tab20[0], colors[2])
	assert.Equal(t, tab20[1], colors[5])
	assert.Equal(t, ClassColors(c), colors)
}

func TestParseHexColor(t *testing.T) {
	t.Parallel()

	col, err := parseHexColor("#1f77b4")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 255}, col)

	_, err = parseHexColor("blue")
	assert.Error(t, err)
}

func TestWriteProjection(t *testing.T) {
	t.Parallel()

	t.Run("png", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, WriteProjection(labeledCloud(t), &buf, ProjectionOptions{}))
		// PNG magic.
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0x89, 'P', 'N', 'G'}))
	})

	t.Run("svg carries legend labels", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, WriteProjection(labeledCloud(t), &buf, ProjectionOptions{Format: "svg"}))
		assert.True(t, strings.Contains(buf.String(), "Class 2"))
	})

	t.Run("empty cloud rejected", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		err := WriteProjection(&cloud.Cloud{}, &buf, ProjectionOptions{})
		assert.ErrorContains(t, err, "empty cloud")
	})
}
