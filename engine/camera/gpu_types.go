package camera

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Matches the WGSL CameraUniform struct layout exactly.
// Size: 80 bytes (std430 / WGSL aligned).
type GPUCameraUniform struct {
	ViewProj [16]float32 // offset  0: combined view-projection matrix (mat4x4<f32>)
	Position [2]float32  // offset 64: world-space camera center (vec2<f32>)
	Zoom     float32     // offset 72: current zoom factor (f32)
	_pad     float32     // offset 76: padding to 80 bytes
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
	}
	binary.LittleEndian.PutUint32(buf[64:], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[68:], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[72:], math.Float32bits(g.Zoom))
	binary.LittleEndian.PutUint32(buf[76:], 0) // _pad
	return buf
}
