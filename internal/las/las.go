// Package las reads and writes ASPRS LAS point-cloud files.
//
// The reader decodes the public header block and the core fields of point
// record formats 0-8 (coordinates, intensity, return information,
// classification, GPS time and RGB where the format carries them). Variable
// length records are skipped, not interpreted. Compressed (LAZ) files are
// rejected.
package las

import (
	"encoding/binary"
	"fmt"
	"math"
)

// LAS file format constants. Offsets are into the public header block,
// all fields little-endian.
const (
	FileSignature = "LASF"

	HeaderSize12 = 227 // LAS 1.0 - 1.2
	HeaderSize13 = 235 // adds waveform data packet offset
	HeaderSize14 = 375 // adds EVLRs and 64-bit point counts

	// Offsets of the fields the reader consumes.
	offVersionMajor   = 24
	offVersionMinor   = 25
	offSystemID       = 26
	offGeneratingSW   = 58
	offCreationDay    = 90
	offCreationYear   = 92
	offHeaderSize     = 94
	offPointDataStart = 96
	offVLRCount       = 100
	offPointFormat    = 104
	offPointRecordLen = 105
	offLegacyCount    = 107
	offScaleX         = 131
	offOffsetX        = 155
	offMaxX           = 179
	offPointCount14   = 247

	// Bit 7 of the point data record format byte flags LAZ compression
	// (bit 6 is set by some writers as well).
	compressionMask = 0xC0

	// Guard against absurd declared point counts before allocating.
	maxPointCount = 1 << 31
)

// pointFormatSize is the core record size in bytes for each point data
// record format. Formats 4, 5, 9 and 10 carry waveform packets after the
// core fields; the record length in the header covers the difference.
var pointFormatSize = map[uint8]int{
	0: 20, 1: 28, 2: 26, 3: 34, 4: 57, 5: 63,
	6: 30, 7: 36, 8: 38,
}

// Header is the decoded LAS public header block.
type Header struct {
	FileSourceID       uint16
	GlobalEncoding     uint16
	VersionMajor       uint8
	VersionMinor       uint8
	SystemIdentifier   string
	GeneratingSoftware string
	CreationDay        uint16
	CreationYear       uint16
	HeaderSize         uint16
	OffsetToPointData  uint32
	VLRCount           uint32
	PointFormat        uint8
	PointRecordLength  uint16
	PointCount         uint64

	ScaleX, ScaleY, ScaleZ    float64
	OffsetX, OffsetY, OffsetZ float64
	MinX, MaxX                float64
	MinY, MaxY                float64
	MinZ, MaxZ                float64
}

// Version returns the header version as a "1.4"-style string.
func (h *Header) Version() string {
	return fmt.Sprintf("%d.%d", h.VersionMajor, h.VersionMinor)
}

// Point is one decoded point record. X, Y, Z have the header scale and
// offset applied. Fields a format does not carry are zero.
type Point struct {
	X, Y, Z        float64
	Intensity      uint16
	ReturnNumber   uint8
	NumReturns     uint8
	Classification uint8
	PointSourceID  uint16
	GPSTime        float64
	Red            uint16
	Green          uint16
	Blue           uint16
}

// File is a fully decoded LAS file.
type File struct {
	Header Header
	Points []Point
}

// parseHeader decodes the public header block from buf, which must hold at
// least HeaderSize12 bytes.
func parseHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < HeaderSize12 {
		return h, fmt.Errorf("las: header too short: %d bytes", len(buf))
	}
	if string(buf[0:4]) != FileSignature {
		return h, fmt.Errorf("las: bad file signature %q", string(buf[0:4]))
	}

	le := binary.LittleEndian
	h.FileSourceID = le.Uint16(buf[4:6])
	h.GlobalEncoding = le.Uint16(buf[6:8])
	h.VersionMajor = buf[offVersionMajor]
	h.VersionMinor = buf[offVersionMinor]
	h.SystemIdentifier = cString(buf[offSystemID : offSystemID+32])
	h.GeneratingSoftware = cString(buf[offGeneratingSW : offGeneratingSW+32])
	h.CreationDay = le.Uint16(buf[offCreationDay:])
	h.CreationYear = le.Uint16(buf[offCreationYear:])
	h.HeaderSize = le.Uint16(buf[offHeaderSize:])
	h.OffsetToPointData = le.Uint32(buf[offPointDataStart:])
	h.VLRCount = le.Uint32(buf[offVLRCount:])

	format := buf[offPointFormat]
	if format&compressionMask != 0 {
		return h, fmt.Errorf("las: compressed (LAZ) point data is not supported")
	}
	h.PointFormat = format
	h.PointRecordLength = le.Uint16(buf[offPointRecordLen:])
	h.PointCount = uint64(le.Uint32(buf[offLegacyCount:]))

	h.ScaleX = math.Float64frombits(le.Uint64(buf[offScaleX:]))
	h.ScaleY = math.Float64frombits(le.Uint64(buf[offScaleX+8:]))
	h.ScaleZ = math.Float64frombits(le.Uint64(buf[offScaleX+16:]))
	h.OffsetX = math.Float64frombits(le.Uint64(buf[offOffsetX:]))
	h.OffsetY = math.Float64frombits(le.Uint64(buf[offOffsetX+8:]))
	h.OffsetZ = math.Float64frombits(le.Uint64(buf[offOffsetX+16:]))

	h.MaxX = math.Float64frombits(le.Uint64(buf[offMaxX:]))
	h.MinX = math.Float64frombits(le.Uint64(buf[offMaxX+8:]))
	h.MaxY = math.Float64frombits(le.Uint64(buf[offMaxX+16:]))
	h.MinY = math.Float64frombits(le.Uint64(buf[offMaxX+24:]))
	h.MaxZ = math.Float64frombits(le.Uint64(buf[offMaxX+32:]))
	h.MinZ = math.Float64frombits(le.Uint64(buf[offMaxX+40:]))

	if h.VersionMajor != 1 {
		return h, fmt.Errorf("las: unsupported version %s", h.Version())
	}
	size, ok := pointFormatSize[h.PointFormat]
	if !ok {
		return h, fmt.Errorf("las: unsupported point data record format %d", h.PointFormat)
	}
	if int(h.PointRecordLength) < size {
		return h, fmt.Errorf("las: point record length %d smaller than format %d core size %d",
			h.PointRecordLength, h.PointFormat, size)
	}
	if h.HeaderSize < HeaderSize12 {
		return h, fmt.Errorf("las: declared header size %d too small", h.HeaderSize)
	}
	if uint32(h.HeaderSize) > h.OffsetToPointData {
		return h, fmt.Errorf("las: point data offset %d precedes header end %d",
			h.OffsetToPointData, h.HeaderSize)
	}

	// LAS 1.4 moves the authoritative point count to a 64-bit field; the
	// legacy field is zero when the count does not fit in 32 bits.
	if h.VersionMinor >= 4 && len(buf) >= HeaderSize14 {
		if count := le.Uint64(buf[offPointCount14:]); count != 0 {
			h.PointCount = count
		}
	}
	if h.PointCount > maxPointCount {
		return h, fmt.Errorf("las: declared point count %d exceeds limit", h.PointCount)
	}
	return h, nil
}

// decodePoint decodes the core fields of a single point record into p.
// rec must be at least the core size for the format, which parseHeader
// has already guaranteed via the record length check.
func decodePoint(rec []byte, format uint8, h *Header, p *Point) {
	le := binary.LittleEndian

	rawX := int32(le.Uint32(rec[0:4]))
	rawY := int32(le.Uint32(rec[4:8]))
	rawZ := int32(le.Uint32(rec[8:12]))
	p.X = float64(rawX)*h.ScaleX + h.OffsetX
	p.Y = float64(rawY)*h.ScaleY + h.OffsetY
	p.Z = float64(rawZ)*h.ScaleZ + h.OffsetZ
	p.Intensity = le.Uint16(rec[12:14])

	if format <= 5 {
		ret := rec[14]
		p.ReturnNumber = ret & 0x07
		p.NumReturns = (ret >> 3) & 0x07
		// Bits 5-7 of the classification byte are the synthetic,
		// key-point and withheld flags.
		p.Classification = rec[15] & 0x1F
		p.PointSourceID = le.Uint16(rec[18:20])

		switch format {
		case 1:
			p.GPSTime = math.Float64frombits(le.Uint64(rec[20:28]))
		case 2:
			p.Red = le.Uint16(rec[20:22])
			p.Green = le.Uint16(rec[22:24])
			p.Blue = le.Uint16(rec[24:26])
		case 3, 5:
			p.GPSTime = math.Float64frombits(le.Uint64(rec[20:28]))
			p.Red = le.Uint16(rec[28:30])
			p.Green = le.Uint16(rec[30:32])
			p.Blue = le.Uint16(rec[32:34])
		case 4:
			p.GPSTime = math.Float64frombits(le.Uint64(rec[20:28]))
		}
		return
	}

	// Formats 6-8: 4-bit return fields, a separate flags byte, and the
	// full 8-bit extended classification.
	ret := rec[14]
	p.ReturnNumber = ret & 0x0F
	p.NumReturns = (ret >> 4) & 0x0F
	p.Classification = rec[16]
	p.PointSourceID = le.Uint16(rec[20:22])
	p.GPSTime = math.Float64frombits(le.Uint64(rec[22:30]))

	if format == 7 || format == 8 {
		p.Red = le.Uint16(rec[30:32])
		p.Green = le.Uint16(rec[32:34])
		p.Blue = le.Uint16(rec[34:36])
	}
}

// cString trims a fixed-width NUL-padded byte field to a string.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
