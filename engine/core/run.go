package core

import (
	"fmt"
	"log"
	"runtime"
	"time"
)

// LoopState is the render loop's state. It only ever moves forward.
type LoopState int

const (
	LoopRunning LoopState = iota
	LoopClosing
)

func (s LoopState) String() string {
	switch s {
	case LoopRunning:
		return "running"
	case LoopClosing:
		return "closing"
	default:
		return fmt.Sprintf("LoopState(%d)", int(s))
	}
}

// Run wires the platform window + renderer and executes the main loop until
// Escape is pressed or the window is closed. A graphics API error reported
// after a frame's draw calls ends the loop and is returned.
func Run(app App, cfg Config, newWindow func(Config) (Window, error), newRenderer func(Window, Config) (Renderer, error)) error {
	// Graphics contexts require the main OS thread.
	runtime.LockOSThread()

	win, err := newWindow(cfg)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	// window owns the context, so it goes last
	defer win.Close()

	rend, err := newRenderer(win, cfg)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer rend.Shutdown()

	w, h := win.FramebufferSize()
	rend.Resize(w, h)

	eng := &Engine{Window: win, Renderer: rend, state: LoopRunning, start: time.Now()}
	win.SetEventCallback(func(ev Event) { eng.dispatch(app, ev) })

	if err := app.OnStart(eng); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer app.OnShutdown(eng)

	frames := 0
	for eng.state == LoopRunning {
		// Present the previous frame, then drain queued input.
		win.SwapBuffers()
		win.PollEvents()
		if win.ShouldClose() {
			eng.state = LoopClosing
		}

		rend.Clear(cfg.ClearColor)
		app.OnRender(eng)
		if err := rend.Err(); err != nil {
			return fmt.Errorf("frame %d: %w", frames, err)
		}
		frames++
	}

	log.Printf("Engine exit after %d frames (%s)", frames, eng.Uptime().Round(time.Millisecond))
	return nil
}

// dispatch applies loop-level handling to ev before forwarding it to the app.
func (e *Engine) dispatch(app App, ev Event) {
	switch v := ev.(type) {
	case EventKey:
		if v.Key == KeyEscape && v.Down && !v.Repeat {
			e.close()
		}
	case EventCloseRequested:
		e.close()
	case EventResize:
		fw, fh := e.Window.FramebufferSize()
		if fw >= 1 && fh >= 1 {
			e.Renderer.Resize(fw, fh)
		}
	}
	app.OnEvent(e, ev)
}

func (e *Engine) close() {
	e.state = LoopClosing
	e.Window.RequestClose()
}
