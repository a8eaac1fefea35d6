package core

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hubastard/meshview/engine/colors"
)

// App defines the viewer hooks.
type App interface {
	OnStart(e *Engine) error // called once after window/renderer init
	OnRender(e *Engine)      // issue this frame's draw calls
	OnEvent(e *Engine, ev Event)
	OnShutdown(e *Engine) // before exit
}

// Engine exposes core services to the App.
type Engine struct {
	Window   Window
	Renderer Renderer
	state    LoopState
	start    time.Time
}

func (e *Engine) Uptime() time.Duration { return time.Since(e.start) }

// State reports whether the loop is still running.
func (e *Engine) State() LoopState { return e.state }

// Window abstraction.
type Window interface {
	PollEvents()
	SwapBuffers()
	ShouldClose() bool
	RequestClose()
	FramebufferSize() (int, int)
	SetEventCallback(cb func(Event))
	Close()
}

// Mesh is a GPU vertex array plus its backing buffer. Count is the number of
// vertices stored in VBO and is what Draw submits.
type Mesh struct {
	VAO, VBO uint32
	Count    int32
}

// Program is a linked shader program.
type Program struct {
	ID uint32
}

// Renderer abstraction. Every GPU object is a handle returned by a Create or
// Upload call and passed back explicitly.
type Renderer interface {
	Resize(w, h int)
	Clear(c colors.Color)
	UploadMesh(vertices []mgl32.Vec3) (Mesh, error)
	CreateProgram(vertexSrc, fragmentSrc string) (Program, error)
	SetUniformMat4(p Program, name string, m mgl32.Mat4) error
	Draw(p Program, m Mesh)
	Err() error // first pending graphics API error, if any
	Shutdown()
}

// Event model.
type Event interface{ isEvent() }

type EventCloseRequested struct{}

func (EventCloseRequested) isEvent() {}

type EventResize struct{ W, H int }

func (EventResize) isEvent() {}

type EventKey struct {
	Key    Key
	Down   bool
	Repeat bool
	Mods   Mod
}

func (EventKey) isEvent() {}

// Key/mod enums (subset).
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeySpace
	KeyEnter
)

type Mod int

const (
	ModNone  Mod = 0
	ModShift Mod = 1 << 0
	ModCtrl  Mod = 1 << 1
	ModAlt   Mod = 1 << 2
	ModSuper Mod = 1 << 3
)

// Config for the engine run.
type Config struct {
	Title      string
	Width      int
	Height     int
	VSync      bool
	ClearColor colors.Color
}
