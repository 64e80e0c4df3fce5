package store

import (
	"encoding/binary"
	"fmt"
	"math"
)

// encodeVector packs v as little-endian float32 values, the layout
// sqlite-vec uses for float[N] columns.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks a blob written by encodeVector into dest, reusing
// its capacity.
func decodeVector(blob []byte, dest []float32) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(blob))
	}
	n := len(blob) / 4
	if cap(dest) < n {
		dest = make([]float32, n)
	}
	dest = dest[:n]
	for i := range dest {
		dest[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return dest, nil
}
