package shader

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flatVertSource = `
struct CameraUniform {
    view_proj: mat4x4<f32>,
};

@group(0) @binding(0) var<uniform> camera: CameraUniform;

@vertex
fn vs_main(@location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return camera.view_proj * vec4<f32>(position, 1.0);
}
`

const flatFragSource = `
@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.5, 0.2, 1.0);
}
`

func TestParseEntryPoint(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		shaderType ShaderType
		want       string
	}{
		{
			name:       "vertex entry point",
			source:     flatVertSource,
			shaderType: ShaderTypeVertex,
			want:       "vs_main",
		},
		{
			name:       "fragment entry point",
			source:     flatFragSource,
			shaderType: ShaderTypeFragment,
			want:       "fs_main",
		},
		{
			name:       "wrong stage finds nothing",
			source:     flatFragSource,
			shaderType: ShaderTypeVertex,
			want:       "",
		},
		{
			name:       "commented-out entry point is ignored",
			source:     "// @vertex\n// fn dead_main() {}\n@vertex\nfn live_main() {}\n",
			shaderType: ShaderTypeVertex,
			want:       "live_main",
		},
		{
			name:       "block-commented entry point is ignored",
			source:     "/* @vertex fn dead_main() {} */\n@vertex fn live_main() {}",
			shaderType: ShaderTypeVertex,
			want:       "live_main",
		},
		{
			name:       "attribute and fn on one line",
			source:     "@fragment fn frag() -> @location(0) vec4<f32> { return vec4<f32>(0.0); }",
			shaderType: ShaderTypeFragment,
			want:       "frag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseEntryPoint(tt.source, tt.shaderType))
		})
	}
}

func TestStripComments(t *testing.T) {
	t.Run("nested block comments", func(t *testing.T) {
		src := "keep /* outer /* inner */ still outer */ this"
		assert.Equal(t, "keep  this", stripComments(src)[:10])
	})

	t.Run("line comment to end of line", func(t *testing.T) {
		src := "a // gone\nb"
		cleaned := stripComments(src)
		assert.Contains(t, cleaned, "a")
		assert.Contains(t, cleaned, "b")
		assert.NotContains(t, cleaned, "gone")
	})
}

func TestNewShaderFromSource(t *testing.T) {
	s := NewShaderFromSource("flat-vert", ShaderTypeVertex, flatVertSource)

	assert.Equal(t, "flat-vert", s.Key())
	assert.Equal(t, ShaderTypeVertex, s.ShaderType())
	assert.Equal(t, "vs_main", s.EntryPoint())
	assert.Equal(t, flatVertSource, s.Source())

	require.NotNil(t, s.Module())
	assert.Equal(t, "flat-vert", s.Module().Label)
	require.NotNil(t, s.Module().WGSLDescriptor)
	assert.Equal(t, flatVertSource, s.Module().WGSLDescriptor.Code)
}

func TestNewShaderFromSourcePanicsWithoutEntryPoint(t *testing.T) {
	assert.PanicsWithValue(t,
		"shader broken: no @vertex entry point found in source",
		func() { NewShaderFromSource("broken", ShaderTypeVertex, flatFragSource) },
	)
}

func TestNewShaderPanicsOnMissingFile(t *testing.T) {
	assert.Panics(t, func() { NewShader("missing", ShaderTypeVertex, "does/not/exist.wgsl") })
	assert.Panics(t, func() { NewShader("empty-path", ShaderTypeVertex, "") })
}

func TestNewShaderReadsFromDisk(t *testing.T) {
	path := t.TempDir() + "/frag.wgsl"
	require.NoError(t, os.WriteFile(path, []byte(flatFragSource), 0o644))

	s := NewShader("disk-frag", ShaderTypeFragment, path)
	assert.Equal(t, "fs_main", s.EntryPoint())
	assert.Equal(t, flatFragSource, s.Source())
}
