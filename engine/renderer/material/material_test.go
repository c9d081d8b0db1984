package material

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill2d/quill/common"
)

// encodePNG builds an in-memory PNG of the given size filled with one color.
func encodePNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// waitReady polls until the async decode finishes or the deadline passes.
func waitReady(t *testing.T, m Material) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !m.Ready() && m.LoadError() == nil {
		if time.Now().After(deadline) {
			t.Fatal("material never became ready")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestUntexturedMaterialIsReady(t *testing.T) {
	m := NewMaterial("flat", WithTint([4]float32{1, 0, 0, 1}))

	assert.True(t, m.Ready())
	assert.False(t, m.Textured())
	assert.Equal(t, [4]float32{1, 0, 0, 1}, m.Tint())
	assert.Nil(t, m.TakeStagingData())

	// Load on an untextured material is a no-op.
	m.Load()
	assert.True(t, m.Ready())
}

func TestTexturedMaterialLoadsAsync(t *testing.T) {
	data := encodePNG(t, 8, 4, color.RGBA{R: 255, A: 255})
	m := NewMaterial("sprite",
		WithTexture(&common.ImageSource{Name: "sprite", Data: data}),
	)

	assert.False(t, m.Ready(), "textured material is unready before Load completes")
	assert.True(t, m.Textured())

	m.Load()
	waitReady(t, m)

	require.NoError(t, m.LoadError())
	staging := m.TakeStagingData()
	require.Len(t, staging, 1)
	assert.Equal(t, uint32(8), staging[0].Width)
	assert.Equal(t, uint32(4), staging[0].Height)
	assert.Len(t, staging[0].Pixels, 8*4*4)

	// Red pixel survives the decode.
	assert.Equal(t, byte(255), staging[0].Pixels[0])
	assert.Equal(t, byte(0), staging[0].Pixels[1])

	t.Run("staging data is handed over once", func(t *testing.T) {
		assert.Nil(t, m.TakeStagingData())
	})
}

func TestMipmappedMaterialBuildsChain(t *testing.T) {
	data := encodePNG(t, 16, 8, color.RGBA{G: 128, A: 255})
	m := NewMaterial("mips",
		WithTexture(&common.ImageSource{Name: "mips", Data: data}),
		WithMipmaps(),
	)
	require.True(t, m.Mipmapped())

	m.Load()
	waitReady(t, m)

	staging := m.TakeStagingData()
	// 16x8 -> 8x4 -> 4x2 -> 2x1 -> 1x1
	require.Len(t, staging, 5)
	assert.Equal(t, uint32(16), staging[0].Width)
	assert.Equal(t, uint32(8), staging[1].Width)
	assert.Equal(t, uint32(4), staging[1].Height)
	assert.Equal(t, uint32(1), staging[4].Width)
	assert.Equal(t, uint32(1), staging[4].Height)
}

func TestFailedLoadStaysUnready(t *testing.T) {
	m := NewMaterial("broken", WithTexturePath("does/not/exist.png"))

	m.Load()

	deadline := time.Now().Add(5 * time.Second)
	for m.LoadError() == nil {
		if time.Now().After(deadline) {
			t.Fatal("load never failed")
		}
		time.Sleep(time.Millisecond)
	}

	assert.False(t, m.Ready())
	assert.ErrorContains(t, m.LoadError(), "broken")
	assert.Nil(t, m.TakeStagingData())
}

func TestLoadFromDisk(t *testing.T) {
	path := t.TempDir() + "/tex.png"
	require.NoError(t, os.WriteFile(path, encodePNG(t, 2, 2, color.RGBA{B: 255, A: 255}), 0o644))

	m := NewMaterial("disk", WithTexturePath(path))
	m.Load()
	waitReady(t, m)

	require.NoError(t, m.LoadError())
	staging := m.TakeStagingData()
	require.Len(t, staging, 1)
	assert.Equal(t, uint32(2), staging[0].Width)
}

func TestMaterialDefaults(t *testing.T) {
	m := NewMaterial("defaults")

	assert.Equal(t, "defaults", m.Name())
	assert.Equal(t, [4]float32{1, 1, 1, 1}, m.Tint())
	assert.Equal(t, "defaults", m.BindGroupProvider().Label())

	m.SetPipelineKey("flat")
	assert.Equal(t, "flat", m.PipelineKey())

	m.SetTint([4]float32{0, 1, 0, 1})
	assert.Equal(t, [4]float32{0, 1, 0, 1}, m.Tint())
}

func TestGPUTintParamsMarshal(t *testing.T) {
	p := GPUTintParams{Tint: [4]float32{1, 0.5, 0.25, 1}}
	assert.Equal(t, 16, p.Size())
	assert.Len(t, p.Marshal(), 16)
}

func TestBindGroupLayoutDescriptors(t *testing.T) {
	flat := TintBindGroupLayoutDescriptor()
	require.Len(t, flat.Entries, 1)
	assert.Equal(t, uint32(0), flat.Entries[0].Binding)

	textured := TexturedBindGroupLayoutDescriptor()
	require.Len(t, textured.Entries, 3)
	assert.Equal(t, uint32(1), textured.Entries[1].Binding)
	assert.Equal(t, uint32(2), textured.Entries[2].Binding)
}
