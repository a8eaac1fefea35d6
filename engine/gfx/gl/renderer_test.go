package glbackend

import (
	"errors"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hubastard/meshview/engine/assets"
	"github.com/hubastard/meshview/engine/colors"
	"github.com/hubastard/meshview/engine/core"
)

var glfwReady bool

func TestMain(m *testing.M) {
	runtime.LockOSThread()
	glfwReady = hasDisplay() && glfw.Init() == nil
	code := m.Run()
	if glfwReady {
		glfw.Terminate()
	}
	os.Exit(code)
}

func hasDisplay() bool {
	if runtime.GOOS != "linux" {
		return true
	}
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// withContext runs fn with a hidden 3.3 core context current on this
// goroutine's thread. Skips when no display is available. Test functions
// run on their own goroutines, so on macOS, where GLFW windows must be
// created on the main thread, these tests are skipped.
func withContext(t *testing.T, fn func(r *RendererGL)) {
	t.Helper()
	if runtime.GOOS == "darwin" {
		t.Skip("glfw windows must be created on the main thread on macOS; test goroutines cannot")
	}
	if !glfwReady {
		t.Skip("glfw unavailable (no display)")
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	win, err := glfw.CreateWindow(64, 64, "test", nil, nil)
	if err != nil || win == nil {
		t.Skipf("no GL 3.3 context: %v", err)
	}
	defer win.Destroy()
	win.MakeContextCurrent()
	defer glfw.DetachCurrentContext()
	if err := gl.Init(); err != nil {
		t.Skipf("gl.Init: %v", err)
	}

	r, err := NewRendererGL(nil, core.Config{})
	if err != nil {
		t.Fatalf("NewRendererGL: %v", err)
	}
	defer r.Shutdown()
	fn(r)
}

func TestCreateProgramBuiltins(t *testing.T) {
	withContext(t, func(r *RendererGL) {
		vs, fs, err := assets.MeshShaders()
		if err != nil {
			t.Fatal(err)
		}
		p, err := r.CreateProgram(vs, fs)
		if err != nil {
			t.Fatalf("CreateProgram: %v", err)
		}
		if p.ID == 0 {
			t.Fatal("program handle is zero")
		}
		if err := r.SetUniformMat4(p, "VP", mgl32.Ident4()); err != nil {
			t.Fatalf("SetUniformMat4: %v", err)
		}
		if err := r.SetUniformMat4(p, "MVP", mgl32.Ident4()); err == nil {
			t.Fatal("expected error for unknown uniform")
		}
	})
}

func TestCompileErrorNamesStage(t *testing.T) {
	const broken = "#version 330 core\nvoid main() { gl_Position = vec4(1.0) \n}\n"
	_, fs, err := assets.MeshShaders()
	if err != nil {
		t.Fatal(err)
	}
	withContext(t, func(r *RendererGL) {
		_, err := r.CreateProgram(broken, fs)
		var se *ShaderError
		if !errors.As(err, &se) {
			t.Fatalf("error = %v, want *ShaderError", err)
		}
		if se.Stage != "vertex" {
			t.Errorf("stage = %q, want vertex", se.Stage)
		}
		if !strings.Contains(err.Error(), "vertex shader compile error") {
			t.Errorf("message %q does not name the stage", err.Error())
		}
		if len(r.programs) != 0 {
			t.Error("failed program was tracked")
		}
	})
}

func TestFragmentCompileError(t *testing.T) {
	vs, _, err := assets.MeshShaders()
	if err != nil {
		t.Fatal(err)
	}
	withContext(t, func(r *RendererGL) {
		_, err := r.CreateProgram(vs, "#version 330 core\nout vec4 c;\nvoid main() { c = nope; }\n")
		var se *ShaderError
		if !errors.As(err, &se) || se.Stage != "fragment" {
			t.Fatalf("error = %v, want fragment *ShaderError", err)
		}
	})
}

func TestLinkErrorNamesStage(t *testing.T) {
	// Both stages compile, but the fragment input has no matching vertex output.
	const vs = "#version 330 core\nlayout (location = 0) in vec3 pos;\nvoid main() { gl_Position = vec4(pos, 1.0); }\n"
	const fs = "#version 330 core\nin vec3 v_colour;\nout vec4 colour;\nvoid main() { colour = vec4(v_colour, 1.0); }\n"
	withContext(t, func(r *RendererGL) {
		_, err := r.CreateProgram(vs, fs)
		var se *ShaderError
		if !errors.As(err, &se) {
			t.Fatalf("error = %v, want *ShaderError", err)
		}
		if se.Stage != "link" {
			t.Errorf("stage = %q, want link", se.Stage)
		}
		if !strings.Contains(err.Error(), "program link error") {
			t.Errorf("message %q does not name the link stage", err.Error())
		}
		if len(r.programs) != 0 {
			t.Error("failed program was tracked")
		}
	})
}

func TestShadersReleasedAfterLink(t *testing.T) {
	withContext(t, func(r *RendererGL) {
		vs, fs, err := assets.MeshShaders()
		if err != nil {
			t.Fatal(err)
		}
		p, err := r.CreateProgram(vs, fs)
		if err != nil {
			t.Fatal(err)
		}

		var count int32
		shaders := make([]uint32, 4)
		gl.GetAttachedShaders(p.ID, int32(len(shaders)), &count, &shaders[0])
		for _, sh := range shaders[:count] {
			var status int32
			gl.GetShaderiv(sh, gl.DELETE_STATUS, &status)
			if status != gl.TRUE {
				t.Errorf("shader %d still alive after link", sh)
			}
		}
	})
}

func TestUploadAndDraw(t *testing.T) {
	withContext(t, func(r *RendererGL) {
		vs, fs, err := assets.MeshShaders()
		if err != nil {
			t.Fatal(err)
		}
		p, err := r.CreateProgram(vs, fs)
		if err != nil {
			t.Fatal(err)
		}
		verts := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0, 1, 0}, {1, 0, 0}}
		m, err := r.UploadMesh(verts)
		if err != nil {
			t.Fatalf("UploadMesh: %v", err)
		}
		if m.Count != int32(len(verts)) {
			t.Fatalf("Count = %d, want %d", m.Count, len(verts))
		}

		var size int32
		gl.BindBuffer(gl.ARRAY_BUFFER, m.VBO)
		gl.GetBufferParameteriv(gl.ARRAY_BUFFER, gl.BUFFER_SIZE, &size)
		gl.BindBuffer(gl.ARRAY_BUFFER, 0)
		if size != m.Count*vertexSize {
			t.Fatalf("buffer holds %d bytes, want %d", size, m.Count*vertexSize)
		}

		r.Resize(64, 64)
		r.Clear(colors.Paper)
		r.Draw(p, m)
		if err := r.Err(); err != nil {
			t.Fatalf("draw: %v", err)
		}
	})
}

func TestUploadEmpty(t *testing.T) {
	withContext(t, func(r *RendererGL) {
		if _, err := r.UploadMesh(nil); err == nil {
			t.Fatal("expected error for empty mesh")
		}
	})
}

func TestErrorMessageCarriesCode(t *testing.T) {
	err := &Error{Code: gl.INVALID_OPERATION}
	if !strings.Contains(err.Error(), "1282") || !strings.Contains(err.Error(), "GL_INVALID_OPERATION") {
		t.Fatalf("message = %q", err.Error())
	}
	if got := (&Error{Code: 0x9999}).Error(); !strings.Contains(got, "0x9999") {
		t.Fatalf("unknown code message = %q", got)
	}
}

func TestVertexSize(t *testing.T) {
	if vertexSize != 12 {
		t.Fatalf("vertexSize = %d, want 12", vertexSize)
	}
}
