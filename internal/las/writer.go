package las

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// defaultScale is the coordinate resolution used by the writer: 1mm,
// matching common survey-grade LAS output.
const defaultScale = 0.001

// WriteFile encodes points as a LAS 1.2 file at path.
func WriteFile(path string, points []Point, format uint8) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, points, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write encodes points as a LAS 1.2 stream using point record format 0 or 1.
// The header offset is anchored at the minimum coordinate so raw values stay
// well inside int32 range at millimetre resolution.
func Write(w io.Writer, points []Point, format uint8) error {
	if format != 0 && format != 1 {
		return fmt.Errorf("las: write supports formats 0 and 1, got %d", format)
	}
	if len(points) == 0 {
		return fmt.Errorf("las: no points to write")
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	minZ, maxZ := points[0].Z, points[0].Z
	for _, p := range points[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		minZ, maxZ = math.Min(minZ, p.Z), math.Max(maxZ, p.Z)
	}

	recLen := pointFormatSize[format]
	le := binary.LittleEndian

	header := make([]byte, HeaderSize12)
	copy(header[0:4], FileSignature)
	header[offVersionMajor] = 1
	header[offVersionMinor] = 2
	copy(header[offSystemID:], "lascloud")
	copy(header[offGeneratingSW:], "lascloud las writer")
	now := time.Now().UTC()
	le.PutUint16(header[offCreationDay:], uint16(now.YearDay()))
	le.PutUint16(header[offCreationYear:], uint16(now.Year()))
	le.PutUint16(header[offHeaderSize:], HeaderSize12)
	le.PutUint32(header[offPointDataStart:], HeaderSize12)
	header[offPointFormat] = format
	le.PutUint16(header[offPointRecordLen:], uint16(recLen))
	le.PutUint32(header[offLegacyCount:], uint32(len(points)))

	le.PutUint64(header[offScaleX:], math.Float64bits(defaultScale))
	le.PutUint64(header[offScaleX+8:], math.Float64bits(defaultScale))
	le.PutUint64(header[offScaleX+16:], math.Float64bits(defaultScale))
	le.PutUint64(header[offOffsetX:], math.Float64bits(minX))
	le.PutUint64(header[offOffsetX+8:], math.Float64bits(minY))
	le.PutUint64(header[offOffsetX+16:], math.Float64bits(minZ))

	le.PutUint64(header[offMaxX:], math.Float64bits(maxX))
	le.PutUint64(header[offMaxX+8:], math.Float64bits(minX))
	le.PutUint64(header[offMaxX+16:], math.Float64bits(maxY))
	le.PutUint64(header[offMaxX+24:], math.Float64bits(minY))
	le.PutUint64(header[offMaxX+32:], math.Float64bits(maxZ))
	le.PutUint64(header[offMaxX+40:], math.Float64bits(minZ))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("las: write header: %w", err)
	}

	rec := make([]byte, recLen)
	for i, p := range points {
		le.PutUint32(rec[0:4], uint32(int32(math.Round((p.X-minX)/defaultScale))))
		le.PutUint32(rec[4:8], uint32(int32(math.Round((p.Y-minY)/defaultScale))))
		le.PutUint32(rec[8:12], uint32(int32(math.Round((p.Z-minZ)/defaultScale))))
		le.PutUint16(rec[12:14], p.Intensity)
		rec[14] = (p.ReturnNumber & 0x07) | (p.NumReturns&0x07)<<3
		rec[15] = p.Classification & 0x1F
		rec[16] = 0 // scan angle rank
		rec[17] = 0 // user data
		le.PutUint16(rec[18:20], p.PointSourceID)
		if format == 1 {
			le.PutUint64(rec[20:28], math.Float64bits(p.GPSTime))
		}
		if _, err := w.Write(rec); err != nil {
			return fmt.Errorf("las: write point %d: %w", i, err)
		}
	}
	return nil
}
