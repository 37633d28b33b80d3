package oto

import (
	"encoding/binary"
	"math"
)

// AppendFloat32LE appends the samples to dst as 32-bit little-endian floats,
// the sample format the oto context is opened with.
func AppendFloat32LE(dst []byte, samples []float32) []byte {
	for _, v := range samples {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}
