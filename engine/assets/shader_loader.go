package assets

import (
	"embed"
	"fmt"
	"path"
)

//go:embed shaders
var shaderFS embed.FS

// Names of the built-in mesh shader pair.
const (
	MeshVertexShader   = "mesh.vert"
	MeshFragmentShader = "mesh.frag"
)

// LoadShader returns an embedded GLSL source as a null-terminated string for OpenGL.
func LoadShader(name string) (string, error) {
	b, err := shaderFS.ReadFile(path.Join("shaders", name))
	if err != nil {
		return "", fmt.Errorf("load shader %q: %w", name, err)
	}
	// Ensure null termination for gl.Strs
	if len(b) == 0 || b[len(b)-1] != 0 {
		b = append(b, 0)
	}
	return string(b), nil
}

// MeshShaders returns the vertex and fragment sources used to draw a frame.
func MeshShaders() (vertex, fragment string, err error) {
	if vertex, err = LoadShader(MeshVertexShader); err != nil {
		return "", "", err
	}
	if fragment, err = LoadShader(MeshFragmentShader); err != nil {
		return "", "", err
	}
	return vertex, fragment, nil
}
