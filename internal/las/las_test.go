package las

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePoints() []Point {
	return []Point{
		{X: 471000.50, Y: 5556000.25, Z: 102.375, Intensity: 120, ReturnNumber: 1, NumReturns: 2, Classification: 2, PointSourceID: 7},
		{X: 471001.00, Y: 5556002.00, Z: 108.000, Intensity: 90, ReturnNumber: 1, NumReturns: 1, Classification: 5, PointSourceID: 7},
		{X: 471003.25, Y: 5556001.75, Z: 104.500, Intensity: 30, ReturnNumber: 2, NumReturns: 2, Classification: 2, PointSourceID: 7},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("format 0", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, samplePoints(), 0))

		file, err := Read(&buf)
		require.NoError(t, err)

		assert.Equal(t, "1.2", file.Header.Version())
		assert.Equal(t, uint8(0), file.Header.PointFormat)
		assert.Equal(t, uint64(3), file.Header.PointCount)
		require.Len(t, file.Points, 3)

		for i, want := range samplePoints() {
			got := file.Points[i]
			assert.InDelta(t, want.X, got.X, defaultScale)
			assert.InDelta(t, want.Y, got.Y, defaultScale)
			assert.InDelta(t, want.Z, got.Z, defaultScale)
			assert.Equal(t, want.Intensity, got.Intensity)
			assert.Equal(t, want.Classification, got.Classification)
			assert.Equal(t, want.ReturnNumber, got.ReturnNumber)
			assert.Equal(t, want.NumReturns, got.NumReturns)
		}
	})

	t.Run("format 1 carries GPS time", func(t *testing.T) {
		t.Parallel()
		points := samplePoints()
		for i := range points {
			points[i].GPSTime = 300000.5 + float64(i)
		}
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, points, 1))

		file, err := Read(&buf)
		require.NoError(t, err)
		require.Len(t, file.Points, 3)
		for i := range points {
			assert.Equal(t, points[i].GPSTime, file.Points[i].GPSTime)
		}
	})

	t.Run("header bounds match data", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, samplePoints(), 0))
		file, err := Read(&buf)
		require.NoError(t, err)

		assert.Equal(t, 471000.50, file.Header.MinX)
		assert.Equal(t, 471003.25, file.Header.MaxX)
		assert.Equal(t, 102.375, file.Header.MinZ)
		assert.Equal(t, 108.0, file.Header.MaxZ)
	})
}

func TestReadFileGzip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "cloud.las.gz")

	var raw bytes.Buffer
	require.NoError(t, Write(&raw, samplePoints(), 0))

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write(raw.Bytes())
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	file, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, file.Points, 3)
}

func TestReadRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	t.Run("bad signature", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, samplePoints(), 0))
		data := buf.Bytes()
		copy(data[0:4], "LAZF")
		_, err := Read(bytes.NewReader(data))
		assert.ErrorContains(t, err, "bad file signature")
	})

	t.Run("truncated header", func(t *testing.T) {
		t.Parallel()
		_, err := Read(bytes.NewReader([]byte("LASF")))
		assert.ErrorContains(t, err, "read header")
	})

	t.Run("truncated point data", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, samplePoints(), 0))
		data := buf.Bytes()
		_, err := Read(bytes.NewReader(data[:len(data)-10]))
		assert.ErrorContains(t, err, "truncated point data")
	})

	t.Run("inflated declared count", func(t *testing.T) {
		t.Parallel()
		// Two real points but a header claiming 2^31-1. The reader must
		// not size buffers from the declared count; it fails with a
		// truncation error once the bytes run out.
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, samplePoints()[:2], 0))
		data := buf.Bytes()
		le := uint32(1<<31 - 1)
		data[offLegacyCount] = byte(le)
		data[offLegacyCount+1] = byte(le >> 8)
		data[offLegacyCount+2] = byte(le >> 16)
		data[offLegacyCount+3] = byte(le >> 24)
		_, err := Read(bytes.NewReader(data))
		assert.ErrorContains(t, err, "truncated point data: got 2 of 2147483647 points")
	})

	t.Run("compressed flag", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, samplePoints(), 0))
		data := buf.Bytes()
		data[offPointFormat] |= 0x80
		_, err := Read(bytes.NewReader(data))
		assert.ErrorContains(t, err, "compressed")
	})

	t.Run("unsupported point format", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, samplePoints(), 0))
		data := buf.Bytes()
		data[offPointFormat] = 11
		_, err := Read(bytes.NewReader(data))
		assert.ErrorContains(t, err, "unsupported point data record format")
	})

	t.Run("empty write rejected", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		assert.Error(t, Write(&buf, nil, 0))
	})
}

func TestDecodeExtendedFormat(t *testing.T) {
	t.Parallel()

	// Format 6 record with classification 65 (extended range) and 4-bit
	// return fields.
	h := &Header{ScaleX: 0.01, ScaleY: 0.01, ScaleZ: 0.01}
	rec := make([]byte, 30)
	rec[0] = 100 // X raw = 100 -> 1.0
	rec[12] = 55 // intensity
	rec[14] = 0x21
	rec[16] = 65

	var p Point
	decodePoint(rec, 6, h, &p)
	assert.Equal(t, 1.0, p.X)
	assert.Equal(t, uint16(55), p.Intensity)
	assert.Equal(t, uint8(1), p.ReturnNumber)
	assert.Equal(t, uint8(2), p.NumReturns)
	assert.Equal(t, uint8(65), p.Classification)
}
