// Package npy reads NumPy .npy array files.
//
// Only the subset our tooling produces is supported: versions 1.0 and 2.0,
// C-order little-endian numeric arrays. Values are widened to float64.
package npy

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var magic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y'}

// maxElements bounds the total element count a declared shape may claim
// before any data is read. 2^28 float64s is a 2 GiB decode buffer, far
// beyond any array this tooling handles.
const maxElements = 1 << 28

// Array is a decoded .npy file: a flat float64 buffer plus its shape in
// row-major (C) order.
type Array struct {
	Shape []int
	DType string
	Data  []float64
}

// Len returns the total element count implied by the shape.
func (a *Array) Len() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

// At returns the element at row i, column j of a 2-D array.
func (a *Array) At(i, j int) float64 {
	return a.Data[i*a.Shape[1]+j]
}

// elementSize maps supported dtype codes to their byte width.
var elementSize = map[string]int{
	"f8": 8, "f4": 4, "i8": 8, "i4": 4, "u1": 1,
}

// ReadFile opens and decodes a .npy file.
func ReadFile(path string) (*Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	a, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("npy: read %s: %w", path, err)
	}
	return a, nil
}

// Read decodes a .npy stream.
func Read(r io.Reader) (*Array, error) {
	pre := make([]byte, 8)
	if _, err := io.ReadFull(r, pre); err != nil {
		return nil, fmt.Errorf("read preamble: %w", err)
	}
	if string(pre[:6]) != string(magic) {
		return nil, fmt.Errorf("bad magic bytes")
	}
	major := pre[6]

	var headerLen int
	switch major {
	case 1:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, fmt.Errorf("read header length: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint16(b[:]))
	case 2:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, fmt.Errorf("read header length: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint32(b[:]))
	default:
		return nil, fmt.Errorf("unsupported npy version %d.%d", major, pre[7])
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	descr, fortran, shape, err := parseHeader(string(header))
	if err != nil {
		return nil, err
	}
	if fortran {
		return nil, fmt.Errorf("fortran-order arrays are not supported")
	}

	dtype, err := normalizeDescr(descr)
	if err != nil {
		return nil, err
	}
	width := elementSize[dtype]

	// The shape is untrusted header input; guard the element count before
	// it sizes any buffer. The product check also catches int overflow
	// from absurd dimensions.
	count := 1
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("negative dimension in shape %v", shape)
		}
		if d > 0 && count > maxElements/d {
			return nil, fmt.Errorf("shape %v exceeds %d element limit", shape, maxElements)
		}
		count *= d
	}

	raw := make([]byte, count*width)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("read %d elements of %s: %w", count, dtype, err)
	}

	le := binary.LittleEndian
	data := make([]float64, count)
	for i := 0; i < count; i++ {
		off := i * width
		switch dtype {
		case "f8":
			data[i] = math.Float64frombits(le.Uint64(raw[off:]))
		case "f4":
			data[i] = float64(math.Float32frombits(le.Uint32(raw[off:])))
		case "i8":
			data[i] = float64(int64(le.Uint64(raw[off:])))
		case "i4":
			data[i] = float64(int32(le.Uint32(raw[off:])))
		case "u1":
			data[i] = float64(raw[off])
		}
	}

	return &Array{Shape: shape, DType: dtype, Data: data}, nil
}

// parseHeader pulls descr, fortran_order and shape out of the Python dict
// literal that numpy writes, e.g.
//
//	{'descr': '<f8', 'fortran_order': False, 'shape': (3, 2), }
func parseHeader(s string) (descr string, fortran bool, shape []int, err error) {
	descr, err = dictString(s, "descr")
	if err != nil {
		return "", false, nil, err
	}

	switch {
	case strings.Contains(s, "'fortran_order': False"):
		fortran = false
	case strings.Contains(s, "'fortran_order': True"):
		fortran = true
	default:
		return "", false, nil, fmt.Errorf("missing fortran_order in header %q", s)
	}

	open := strings.Index(s, "'shape':")
	if open < 0 {
		return "", false, nil, fmt.Errorf("missing shape in header %q", s)
	}
	lp := strings.Index(s[open:], "(")
	rp := strings.Index(s[open:], ")")
	if lp < 0 || rp < 0 || rp < lp {
		return "", false, nil, fmt.Errorf("malformed shape in header %q", s)
	}
	inner := s[open+lp+1 : open+rp]
	for _, part := range strings.Split(inner, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			return "", false, nil, fmt.Errorf("bad shape dimension %q", part)
		}
		shape = append(shape, d)
	}
	// A () shape is a 0-d scalar; treat it as a single element vector.
	if len(shape) == 0 {
		shape = []int{1}
	}
	return descr, fortran, shape, nil
}

// dictString extracts a single-quoted string value for key from the dict
// literal.
func dictString(s, key string) (string, error) {
	marker := "'" + key + "':"
	idx := strings.Index(s, marker)
	if idx < 0 {
		return "", fmt.Errorf("missing %s in header %q", key, s)
	}
	rest := s[idx+len(marker):]
	start := strings.Index(rest, "'")
	if start < 0 {
		return "", fmt.Errorf("malformed %s in header %q", key, s)
	}
	end := strings.Index(rest[start+1:], "'")
	if end < 0 {
		return "", fmt.Errorf("malformed %s in header %q", key, s)
	}
	return rest[start+1 : start+1+end], nil
}

// normalizeDescr validates byte order and maps a descr like "<f8" to its
// dtype code.
func normalizeDescr(descr string) (string, error) {
	if descr == "" {
		return "", fmt.Errorf("empty dtype descr")
	}
	code := descr
	switch descr[0] {
	case '<', '|', '=':
		code = descr[1:]
	case '>':
		return "", fmt.Errorf("big-endian arrays are not supported (descr %q)", descr)
	}
	if _, ok := elementSize[code]; !ok {
		return "", fmt.Errorf("unsupported dtype %q", descr)
	}
	return code, nil
}
