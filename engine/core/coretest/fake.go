// Package coretest provides in-memory core.Window and core.Renderer
// implementations for exercising the render loop without a display.
package coretest

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hubastard/meshview/engine/colors"
	"github.com/hubastard/meshview/engine/core"
)

// Window replays scripted events. Frames[i] is delivered on the i-th call to
// PollEvents; polls past the end deliver nothing.
type Window struct {
	Frames [][]core.Event
	W, H   int

	Polls, Swaps int
	CloseFlag    bool
	Closed       bool

	// MaxPolls stops a runaway loop in tests by raising the close flag.
	MaxPolls int

	cb func(core.Event)
}

func NewWindow(frames ...[]core.Event) *Window {
	return &Window{Frames: frames, W: 960, H: 540, MaxPolls: 100}
}

func (w *Window) PollEvents() {
	if w.Polls < len(w.Frames) && w.cb != nil {
		for _, ev := range w.Frames[w.Polls] {
			w.cb(ev)
		}
	}
	w.Polls++
	if w.MaxPolls > 0 && w.Polls >= w.MaxPolls {
		w.CloseFlag = true
	}
}

func (w *Window) SwapBuffers()                         { w.Swaps++ }
func (w *Window) ShouldClose() bool                    { return w.CloseFlag }
func (w *Window) RequestClose()                        { w.CloseFlag = true }
func (w *Window) FramebufferSize() (int, int)          { return w.W, w.H }
func (w *Window) SetEventCallback(cb func(core.Event)) { w.cb = cb }
func (w *Window) Close()                               { w.Closed = true }

// DrawCall records one Renderer.Draw.
type DrawCall struct {
	Program core.Program
	Mesh    core.Mesh
}

// Renderer records every call and hands out sequential handles.
type Renderer struct {
	Viewport   [2]int
	Clears     []colors.Color
	Uploads    [][]mgl32.Vec3
	Programs   [][2]string
	Uniforms   map[string]mgl32.Mat4
	Draws      []DrawCall
	IsShutdown bool

	// ErrAfter makes Err fail once this many draws have been recorded (0 = never).
	ErrAfter int
	// FailProgram makes CreateProgram fail.
	FailProgram error

	next uint32
}

// ErrInjected is returned by Err when ErrAfter triggers.
var ErrInjected = errors.New("coretest: injected graphics error")

func NewRenderer() *Renderer {
	return &Renderer{Uniforms: map[string]mgl32.Mat4{}}
}

func (r *Renderer) handle() uint32 { r.next++; return r.next }

func (r *Renderer) Resize(w, h int)      { r.Viewport = [2]int{w, h} }
func (r *Renderer) Clear(c colors.Color) { r.Clears = append(r.Clears, c) }

func (r *Renderer) UploadMesh(vertices []mgl32.Vec3) (core.Mesh, error) {
	cp := append([]mgl32.Vec3(nil), vertices...)
	r.Uploads = append(r.Uploads, cp)
	return core.Mesh{VAO: r.handle(), VBO: r.handle(), Count: int32(len(vertices))}, nil
}

func (r *Renderer) CreateProgram(vs, fs string) (core.Program, error) {
	if r.FailProgram != nil {
		return core.Program{}, r.FailProgram
	}
	r.Programs = append(r.Programs, [2]string{vs, fs})
	return core.Program{ID: r.handle()}, nil
}

func (r *Renderer) SetUniformMat4(_ core.Program, name string, m mgl32.Mat4) error {
	r.Uniforms[name] = m
	return nil
}

func (r *Renderer) Draw(p core.Program, m core.Mesh) {
	r.Draws = append(r.Draws, DrawCall{Program: p, Mesh: m})
}

func (r *Renderer) Err() error {
	if r.ErrAfter > 0 && len(r.Draws) >= r.ErrAfter {
		return ErrInjected
	}
	return nil
}

func (r *Renderer) Shutdown() { r.IsShutdown = true }
