package las

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// maxPreallocPoints bounds the slice capacity reserved from the header's
// declared point count. Larger files still load fully; the slice just
// grows as records are read.
const maxPreallocPoints = 1 << 20

// ReadFile opens and decodes a LAS file. Paths ending in ".gz" are
// decompressed transparently.
func ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("las: open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	file, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("las: read %s: %w", path, err)
	}
	return file, nil
}

// Read decodes a LAS stream. The reader is consumed sequentially so it
// works on non-seekable sources such as gzip streams.
func Read(r io.Reader) (*File, error) {
	br := bufio.NewReaderSize(r, 1<<16)

	// The smallest valid header is 227 bytes; read that first, then the
	// remainder of whatever size the header declares.
	buf := make([]byte, HeaderSize14)
	if _, err := io.ReadFull(br, buf[:HeaderSize12]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	declared := int(binary16(buf[offHeaderSize:]))
	read := HeaderSize12
	if declared > HeaderSize12 {
		extra := declared - HeaderSize12
		if declared > len(buf) {
			// Oversized vendor headers: parse the standard portion,
			// discard the rest below.
			extra = len(buf) - HeaderSize12
		}
		if _, err := io.ReadFull(br, buf[read:read+extra]); err != nil {
			return nil, fmt.Errorf("read extended header: %w", err)
		}
		read += extra
	}

	h, err := parseHeader(buf[:read])
	if err != nil {
		return nil, err
	}

	// Skip VLRs and any padding between the header and the point data.
	if skip := int64(h.OffsetToPointData) - int64(read); skip > 0 {
		if _, err := io.CopyN(io.Discard, br, skip); err != nil {
			return nil, fmt.Errorf("skip to point data: %w", err)
		}
	}

	// The declared count is untrusted until the bytes actually arrive, so
	// cap the initial allocation and let append grow past it. A lying
	// header then fails with a truncation error instead of exhausting
	// memory up front.
	capHint := h.PointCount
	if capHint > maxPreallocPoints {
		capHint = maxPreallocPoints
	}
	points := make([]Point, 0, capHint)
	rec := make([]byte, h.PointRecordLength)
	for i := uint64(0); i < h.PointCount; i++ {
		if _, err := io.ReadFull(br, rec); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("truncated point data: got %d of %d points", i, h.PointCount)
			}
			return nil, fmt.Errorf("read point %d: %w", i, err)
		}
		var p Point
		decodePoint(rec, h.PointFormat, &h, &p)
		points = append(points, p)
	}

	return &File{Header: h, Points: points}, nil
}

func binary16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}
