package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	m := make([]float32, 16)
	for i := range m {
		m[i] = 42
	}
	Identity(m)

	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			want := float32(0)
			if col == row {
				want = 1
			}
			assert.Equal(t, want, m[col*4+row], "element (%d,%d)", row, col)
		}
	}
}

func TestMul4(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want []float32
	}{
		{
			name: "identity times identity",
			a:    identityMat(),
			b:    identityMat(),
			want: identityMat(),
		},
		{
			name: "identity is left neutral",
			a:    identityMat(),
			b:    translationMat(3, -2, 1),
			want: translationMat(3, -2, 1),
		},
		{
			name: "translations compose additively",
			a:    translationMat(1, 2, 3),
			b:    translationMat(10, 20, 30),
			want: translationMat(11, 22, 33),
		},
		{
			name: "scale then translate keeps translation",
			a:    translationMat(5, 0, 0),
			b:    scaleMat(2, 2, 2),
			want: []float32{
				2, 0, 0, 0,
				0, 2, 0, 0,
				0, 0, 2, 0,
				5, 0, 0, 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := make([]float32, 16)
			Mul4(out, tt.a, tt.b)
			assertMatEqual(t, tt.want, out)
		})
	}
}

func TestMul4AliasedOutput(t *testing.T) {
	a := translationMat(1, 1, 1)
	b := translationMat(2, 2, 2)
	Mul4(a, a, b)
	assertMatEqual(t, translationMat(3, 3, 3), a)
}

func TestOrtho(t *testing.T) {
	t.Run("symmetric rectangle is pure scale", func(t *testing.T) {
		out := make([]float32, 16)
		Ortho(out, -8, 8, -4.5, 4.5, -1, 1)

		assert.InDelta(t, 2.0/16.0, out[0], 1e-6)
		assert.InDelta(t, 2.0/9.0, out[5], 1e-6)
		// No translation for a rectangle centered on the origin.
		assert.Zero(t, out[12])
		assert.Zero(t, out[13])
	})

	t.Run("maps corners to clip space edges", func(t *testing.T) {
		out := make([]float32, 16)
		Ortho(out, 2, 10, 1, 5, -1, 1)

		x, y := transformXY(out, 2, 1)
		assert.InDelta(t, -1.0, x, 1e-6)
		assert.InDelta(t, -1.0, y, 1e-6)

		x, y = transformXY(out, 10, 5)
		assert.InDelta(t, 1.0, x, 1e-6)
		assert.InDelta(t, 1.0, y, 1e-6)

		x, y = transformXY(out, 6, 3)
		assert.InDelta(t, 0.0, x, 1e-6)
		assert.InDelta(t, 0.0, y, 1e-6)
	})

	t.Run("depth maps to zero one range", func(t *testing.T) {
		out := make([]float32, 16)
		Ortho(out, -1, 1, -1, 1, -10, 10)

		// The camera looks down -z: z = -near lands at depth 0, z = -far at depth 1.
		assert.InDelta(t, 0.0, transformZ(out, 10), 1e-6)
		assert.InDelta(t, 1.0, transformZ(out, -10), 1e-6)
	})
}

func TestBuildModelMatrix(t *testing.T) {
	tests := []struct {
		name                 string
		posX, posY           float32
		rot                  float32
		scaleX, scaleY       float32
		pointX, pointY       float32
		wantX, wantY         float32
	}{
		{
			name: "identity transform", scaleX: 1, scaleY: 1,
			pointX: 3, pointY: 4, wantX: 3, wantY: 4,
		},
		{
			name: "translation only", posX: 10, posY: -5, scaleX: 1, scaleY: 1,
			pointX: 1, pointY: 1, wantX: 11, wantY: -4,
		},
		{
			name: "non-uniform scale", scaleX: 2, scaleY: 3,
			pointX: 1, pointY: 1, wantX: 2, wantY: 3,
		},
		{
			name: "quarter turn", rot: float32(math.Pi / 2), scaleX: 1, scaleY: 1,
			pointX: 1, pointY: 0, wantX: 0, wantY: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := make([]float32, 16)
			BuildModelMatrix(out, tt.posX, tt.posY, tt.rot, tt.scaleX, tt.scaleY)

			x, y := transformXY(out, tt.pointX, tt.pointY)
			assert.InDelta(t, tt.wantX, x, 1e-5)
			assert.InDelta(t, tt.wantY, y, 1e-5)
		})
	}
}

func TestSliceToBytes(t *testing.T) {
	t.Run("empty slice returns nil", func(t *testing.T) {
		assert.Nil(t, SliceToBytes([]float32(nil)))
	})

	t.Run("float32 slice length", func(t *testing.T) {
		data := []float32{1, 2, 3}
		b := SliceToBytes(data)
		require.Len(t, b, 12)
		// 1.0 in IEEE 754 little-endian.
		assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, b[:4])
	})

	t.Run("uint32 slice length", func(t *testing.T) {
		assert.Len(t, SliceToBytes([]uint32{0, 1, 2, 3, 4}), 20)
	})
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(5, 0, 10))
	assert.Equal(t, 0, Clamp(-3, 0, 10))
	assert.Equal(t, 10, Clamp(99, 0, 10))
	assert.InDelta(t, 0.25, Clamp(0.1, 0.25, 8.0), 1e-9)
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "fallback", Coalesce("", "fallback", "other"))
	assert.Equal(t, 7, Coalesce(0, 0, 7))
	assert.Equal(t, 0, Coalesce[int]())
}

func identityMat() []float32 {
	m := make([]float32, 16)
	Identity(m)
	return m
}

func translationMat(x, y, z float32) []float32 {
	m := identityMat()
	m[12], m[13], m[14] = x, y, z
	return m
}

func scaleMat(x, y, z float32) []float32 {
	m := identityMat()
	m[0], m[5], m[10] = x, y, z
	return m
}

// transformXY applies a column-major matrix to the point (x, y, 0, 1).
func transformXY(m []float32, x, y float32) (float32, float32) {
	outX := m[0]*x + m[4]*y + m[12]
	outY := m[1]*x + m[5]*y + m[13]
	return outX, outY
}

func transformZ(m []float32, z float32) float32 {
	return m[10]*z + m[14]
}

func assertMatEqual(t *testing.T, want, got []float32) {
	t.Helper()
	require.Len(t, got, 16)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-6, "element %d", i)
	}
}
