package shader

import (
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies which pipeline stage a shader targets.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// String returns the human-readable stage name for diagnostics.
func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// shader is the implementation of the Shader interface.
// It holds the persistent shader data required for pipeline creation.
type shader struct {
	key        string
	source     string
	shaderType ShaderType
	entryPoint string
	module     *wgpu.ShaderModuleDescriptor
}

// Shader defines the interface for a loaded WGSL shader stage. It exposes the
// shader's unique key, source code, stage type, and the entry point function
// name extracted from the source, all of which are needed for pipeline creation.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType retrieves the pipeline stage this shader targets.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// EntryPoint retrieves the name of the stage entry function parsed from the
	// shader source (the function annotated with @vertex or @fragment).
	//
	// Returns:
	//   - string: the entry point function name
	EntryPoint() string

	// Module retrieves the CPU-side shader module descriptor used to create the
	// GPU shader module during pipeline registration.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the module descriptor for this shader
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader loads a WGSL shader stage from a file on disk. The source must
// contain a function annotated with the matching stage attribute (@vertex or
// @fragment); its name becomes the entry point. Panics with a diagnostic if
// the file cannot be read or no matching entry function exists, since a
// missing shader is unrecoverable at setup time.
//
// Parameters:
//   - key: unique identifier for caching and pipeline lookups
//   - shaderType: the pipeline stage this source targets
//   - sourcePath: path to the WGSL source file
//
// Returns:
//   - Shader: the loaded shader stage
func NewShader(key string, shaderType ShaderType, sourcePath string) Shader {
	if sourcePath == "" {
		panic(fmt.Sprintf("shader %s: no source path provided", key))
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		panic(fmt.Sprintf("shader %s: failed to read source %s: %v", key, sourcePath, err))
	}
	return NewShaderFromSource(key, shaderType, string(data))
}

// NewShaderFromSource builds a WGSL shader stage from an in-memory source
// string. Panics with a diagnostic when the source has no entry function for
// the requested stage.
//
// Parameters:
//   - key: unique identifier for caching and pipeline lookups
//   - shaderType: the pipeline stage this source targets
//   - source: the WGSL source code
//
// Returns:
//   - Shader: the loaded shader stage
func NewShaderFromSource(key string, shaderType ShaderType, source string) Shader {
	entry := parseEntryPoint(source, shaderType)
	if entry == "" {
		panic(fmt.Sprintf("shader %s: no @%s entry point found in source", key, shaderType))
	}
	return &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
		entryPoint: entry,
		module: &wgpu.ShaderModuleDescriptor{
			Label:          key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
		},
	}
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}
