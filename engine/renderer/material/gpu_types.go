package material

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUTintParams is the GPU-aligned uniform for the flat and textured fragment
// shaders. For textured materials the sampled color is multiplied by the tint;
// for flat materials the tint is the output color.
// Size: 16 bytes (one vec4<f32>, std430 aligned).
type GPUTintParams struct {
	Tint [4]float32 // offset 0: RGBA tint color (16 bytes)
}

// Size returns the size of the GPUTintParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUTintParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUTintParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUTintParams) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Tint[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Tint[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Tint[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Tint[3]))
	return buf
}
