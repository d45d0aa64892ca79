package npy

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildNpy assembles a version 1.0 .npy byte stream from a header dict and
// raw payload, padding the header to a 64-byte boundary the way numpy does.
func buildNpy(t *testing.T, header string, payload []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.Write([]byte{0x93, 'N', 'U', 'M', 'P', 'Y', 1, 0})

	pad := 64 - (10+len(header)+1)%64
	padded := header + string(bytes.Repeat([]byte{' '}, pad)) + "\n"
	var lenBytes [2]byte
	binary.LittleEndian.PutUint16(lenBytes[:], uint16(len(padded)))
	buf.Write(lenBytes[:])
	buf.WriteString(padded)
	buf.Write(payload)
	return buf.Bytes()
}

func float64Payload(vals ...float64) []byte {
	out := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}

func TestReadFloat64Matrix(t *testing.T) {
	t.Parallel()

	data := buildNpy(t,
		"{'descr': '<f8', 'fortran_order': False, 'shape': (2, 3), }",
		float64Payload(1, 2, 3, 4, 5, 6))

	a, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, a.Shape)
	assert.Equal(t, "f8", a.DType)
	assert.Equal(t, 6, a.Len())
	assert.Equal(t, 6.0, a.At(1, 2))
}

func TestReadVectorShapes(t *testing.T) {
	t.Parallel()

	t.Run("trailing comma 1-d shape", func(t *testing.T) {
		t.Parallel()
		data := buildNpy(t,
			"{'descr': '<f8', 'fortran_order': False, 'shape': (3,), }",
			float64Payload(7, 8, 9))
		a, err := Read(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, []int{3}, a.Shape)
		assert.Equal(t, []float64{7, 8, 9}, a.Data)
	})

	t.Run("uint8 payload widens to float64", func(t *testing.T) {
		t.Parallel()
		data := buildNpy(t,
			"{'descr': '|u1', 'fortran_order': False, 'shape': (4,), }",
			[]byte{0, 1, 2, 255})
		a, err := Read(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 1, 2, 255}, a.Data)
	})

	t.Run("int32 payload", func(t *testing.T) {
		t.Parallel()
		payload := make([]byte, 8)
		binary.LittleEndian.PutUint32(payload[0:], uint32(0xFFFFFFFF)) // -1
		binary.LittleEndian.PutUint32(payload[4:], 42)
		data := buildNpy(t,
			"{'descr': '<i4', 'fortran_order': False, 'shape': (2,), }",
			payload)
		a, err := Read(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, []float64{-1, 42}, a.Data)
	})
}

func TestReadRejectsUnsupported(t *testing.T) {
	t.Parallel()

	t.Run("bad magic", func(t *testing.T) {
		t.Parallel()
		_, err := Read(bytes.NewReader([]byte("NOTNUMPYDATA")))
		assert.ErrorContains(t, err, "bad magic")
	})

	t.Run("fortran order", func(t *testing.T) {
		t.Parallel()
		data := buildNpy(t,
			"{'descr': '<f8', 'fortran_order': True, 'shape': (2, 2), }",
			float64Payload(1, 2, 3, 4))
		_, err := Read(bytes.NewReader(data))
		assert.ErrorContains(t, err, "fortran-order")
	})

	t.Run("big endian", func(t *testing.T) {
		t.Parallel()
		data := buildNpy(t,
			"{'descr': '>f8', 'fortran_order': False, 'shape': (1,), }",
			float64Payload(1))
		_, err := Read(bytes.NewReader(data))
		assert.ErrorContains(t, err, "big-endian")
	})

	t.Run("truncated payload", func(t *testing.T) {
		t.Parallel()
		data := buildNpy(t,
			"{'descr': '<f8', 'fortran_order': False, 'shape': (4,), }",
			float64Payload(1, 2))
		_, err := Read(bytes.NewReader(data))
		assert.ErrorContains(t, err, "read 4 elements")
	})

	t.Run("oversized shape", func(t *testing.T) {
		t.Parallel()
		data := buildNpy(t,
			"{'descr': '<f8', 'fortran_order': False, 'shape': (400000000,), }",
			nil)
		_, err := Read(bytes.NewReader(data))
		assert.ErrorContains(t, err, "element limit")
	})

	t.Run("overflowing shape product", func(t *testing.T) {
		t.Parallel()
		// 3e9 * 3e9 overflows int64; the per-dimension guard rejects it
		// before any buffer is sized.
		data := buildNpy(t,
			"{'descr': '<f8', 'fortran_order': False, 'shape': (3000000000, 3000000000), }",
			nil)
		_, err := Read(bytes.NewReader(data))
		assert.ErrorContains(t, err, "element limit")
	})

	t.Run("object dtype", func(t *testing.T) {
		t.Parallel()
		data := buildNpy(t,
			"{'descr': '|O', 'fortran_order': False, 'shape': (1,), }",
			nil)
		_, err := Read(bytes.NewReader(data))
		assert.ErrorContains(t, err, "unsupported dtype")
	})
}
