package export

import (
	"os"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lascloud/internal/cloud"
)

func exportCloud(t *testing.T) *cloud.Cloud {
	t.Helper()
	c, err := cloud.New([]cloud.Point{
		{X: 471000.5, Y: 5556000.25, Z: 102.375},
		{X: 471001.0, Y: 5556002.0, Z: 108.0},
	}, []uint8{2, 5})
	require.NoError(t, err)
	c.Intensity = []uint16{120, 90}
	return c
}

func TestWriteASC(t *testing.T) {
	require.NoError(t, SetExportDir(t.TempDir()))

	path, err := WriteASC(exportCloud(t), "cloud.asc")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "# Format: X Y Z Intensity Class", lines[1])
	assert.Equal(t, "471000.500000 5556000.250000 102.375000 120 2", lines[2])
	assert.Equal(t, "471001.000000 5556002.000000 108.000000 90 5", lines[3])
}

func TestWriteASCUnlabeled(t *testing.T) {
	require.NoError(t, SetExportDir(t.TempDir()))

	c, err := cloud.New([]cloud.Point{{X: 1, Y: 2, Z: 3}}, nil)
	require.NoError(t, err)

	path, err := WriteASC(c, "bare.asc")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Format: X Y Z Intensity\n")
	assert.Contains(t, string(data), "1.000000 2.000000 3.000000 0\n")
}

func TestWriteParquetRoundTrip(t *testing.T) {
	require.NoError(t, SetExportDir(t.TempDir()))

	path, err := WriteParquet(exportCloud(t), "cloud.parquet")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	info, err := f.Stat()
	require.NoError(t, err)

	rows, err := parquet.Read[PointRow](f, info.Size())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, PointRow{X: 471000.5, Y: 5556000.25, Z: 102.375, Intensity: 120, Class: 2}, rows[0])
	assert.Equal(t, int32(5), rows[1].Class)
}

func TestSafeExportPath(t *testing.T) {
	require.NoError(t, SetExportDir(t.TempDir()))

	t.Run("traversal reduced to basename", func(t *testing.T) {
		path, err := safeExportPath("../../etc/passwd")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(path, exportDir))
		assert.True(t, strings.HasSuffix(path, "passwd"))
	})

	t.Run("empty and dot paths rejected", func(t *testing.T) {
		_, err := safeExportPath("")
		assert.Error(t, err)
		_, err = safeExportPath(".")
		assert.Error(t, err)
		_, err = safeExportPath("..")
		assert.Error(t, err)
	})

	t.Run("empty cloud rejected", func(t *testing.T) {
		_, err := WriteASC(&cloud.Cloud{}, "empty.asc")
		assert.ErrorContains(t, err, "no points")
		_, err = WriteParquet(&cloud.Cloud{}, "empty.parquet")
		assert.ErrorContains(t, err, "no points")
	})
}
