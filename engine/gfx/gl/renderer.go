package glbackend

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hubastard/meshview/engine/colors"
	"github.com/hubastard/meshview/engine/core"
)

// vertexSize is the byte size of one position (three float32).
const vertexSize = int32(unsafe.Sizeof(mgl32.Vec3{}))

// RendererGL draws through an OpenGL 3.3 core context that must already be
// current on the calling thread.
type RendererGL struct {
	meshes   []core.Mesh
	programs []core.Program
}

func NewRendererGL(_ core.Window, _ core.Config) (*RendererGL, error) {
	r := &RendererGL{}
	if err := r.Init(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RendererGL) Init() error {
	log.Printf("GPU: %s / %s", gl.GoStr(gl.GetString(gl.VENDOR)), gl.GoStr(gl.GetString(gl.RENDERER)))

	// Meshes are drawn double-sided in submission order.
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.DEPTH_TEST)
	return r.Err()
}

// Shutdown releases every GPU object this renderer handed out.
func (r *RendererGL) Shutdown() {
	for _, m := range r.meshes {
		vbo, vao := m.VBO, m.VAO
		gl.DeleteBuffers(1, &vbo)
		gl.DeleteVertexArrays(1, &vao)
	}
	for _, p := range r.programs {
		gl.DeleteProgram(p.ID)
	}
	r.meshes, r.programs = nil, nil
}

func (r *RendererGL) Resize(w, h int) {
	gl.Viewport(0, 0, int32(w), int32(h))
}

func (r *RendererGL) Clear(c colors.Color) {
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// UploadMesh stores vertices in a new buffer and describes them to
// attribute 0 as tightly packed vec3 positions.
func (r *RendererGL) UploadMesh(vertices []mgl32.Vec3) (core.Mesh, error) {
	if len(vertices) == 0 {
		return core.Mesh{}, errors.New("upload mesh: no vertices")
	}

	var m core.Mesh
	gl.GenVertexArrays(1, &m.VAO)
	gl.BindVertexArray(m.VAO)

	gl.GenBuffers(1, &m.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*int(vertexSize), gl.Ptr(&vertices[0]), gl.STREAM_DRAW)

	// layout(location = 0) in vec3 pos;
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, vertexSize, gl.PtrOffset(0))

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	m.Count = int32(len(vertices))
	r.meshes = append(r.meshes, m)
	if err := r.Err(); err != nil {
		return m, fmt.Errorf("upload mesh: %w", err)
	}
	return m, nil
}

func (r *RendererGL) CreateProgram(vertexSrc, fragmentSrc string) (core.Program, error) {
	id, err := makeProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return core.Program{}, err
	}
	p := core.Program{ID: id}
	r.programs = append(r.programs, p)
	return p, nil
}

// SetUniformMat4 makes p current and uploads m to the named uniform.
func (r *RendererGL) SetUniformMat4(p core.Program, name string, m mgl32.Mat4) error {
	gl.UseProgram(p.ID)
	loc := gl.GetUniformLocation(p.ID, gl.Str(name+"\x00"))
	if loc < 0 {
		return fmt.Errorf("uniform %q not found in program %d", name, p.ID)
	}
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
	return nil
}

// Draw issues one non-indexed triangle draw over every vertex in m.
func (r *RendererGL) Draw(p core.Program, m core.Mesh) {
	gl.UseProgram(p.ID)
	gl.BindVertexArray(m.VAO)
	gl.DrawArrays(gl.TRIANGLES, 0, m.Count)
	gl.BindVertexArray(0)
}

// Err returns the oldest pending OpenGL error, if any.
func (r *RendererGL) Err() error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return &Error{Code: code}
	}
	return nil
}

// --- Errors ---

// Error is a non-zero glGetError code.
type Error struct {
	Code uint32
}

func (e *Error) Error() string {
	return fmt.Sprintf("opengl error %d (%s)", e.Code, errorName(e.Code))
}

func errorName(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	default:
		return fmt.Sprintf("0x%04x", code)
	}
}

// ShaderError reports a failed compile (Stage "vertex" or "fragment") or
// link (Stage "link") together with the driver's info log.
type ShaderError struct {
	Stage string
	Log   string
}

func (e *ShaderError) Error() string {
	if e.Stage == "link" {
		return fmt.Sprintf("program link error: %s", e.Log)
	}
	return fmt.Sprintf("%s shader compile error: %s", e.Stage, e.Log)
}

// --- Shader utilities ---

func stageName(shaderType uint32) string {
	switch shaderType {
	case gl.VERTEX_SHADER:
		return "vertex"
	case gl.FRAGMENT_SHADER:
		return "fragment"
	default:
		return fmt.Sprintf("shader(0x%x)", shaderType)
	}
}

func makeShader(src string, shaderType uint32) (uint32, error) {
	if !strings.HasSuffix(src, "\x00") {
		src += "\x00"
	}
	sh := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	defer free()
	gl.ShaderSource(sh, 1, csrc, nil)
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
		infoLog := strings.Repeat("\x00", int(logLen)+1)
		gl.GetShaderInfoLog(sh, logLen, nil, gl.Str(infoLog))
		gl.DeleteShader(sh)
		return 0, &ShaderError{Stage: stageName(shaderType), Log: trimLog(infoLog)}
	}
	return sh, nil
}

func makeProgram(vsSrc, fsSrc string) (uint32, error) {
	vs, err := makeShader(vsSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := makeShader(fsSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}
	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		infoLog := strings.Repeat("\x00", int(logLen)+1)
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(infoLog))
		gl.DeleteProgram(prog)
		return 0, &ShaderError{Stage: "link", Log: trimLog(infoLog)}
	}
	return prog, nil
}

func trimLog(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}
