package main

import (
	"fmt"
	"log"

	"github.com/hubastard/meshview/engine/assets"
	"github.com/hubastard/meshview/engine/core"
	"github.com/hubastard/meshview/engine/mesh"
	"github.com/hubastard/meshview/engine/profiler"
	"github.com/hubastard/meshview/engine/scene"
)

// Viewer draws one static frame from a fixed camera.
type Viewer struct {
	frame   *mesh.Frame
	camera  *scene.PerspectiveCamera
	verbose bool

	prog core.Program
	mesh core.Mesh
}

func NewViewer(frame *mesh.Frame, cam *scene.PerspectiveCamera, verbose bool) *Viewer {
	return &Viewer{frame: frame, camera: cam, verbose: verbose}
}

// OnStart uploads the frame, builds the shader program and sets VP once.
func (v *Viewer) OnStart(e *core.Engine) error {
	defer profiler.Start("viewer.start")()

	var err error
	endUpload := profiler.Start("viewer.upload")
	v.mesh, err = e.Renderer.UploadMesh(v.frame.Vertices)
	endUpload()
	if err != nil {
		return err
	}

	vs, fs, err := assets.MeshShaders()
	if err != nil {
		return err
	}
	endCompile := profiler.Start("viewer.compile")
	v.prog, err = e.Renderer.CreateProgram(vs, fs)
	endCompile()
	if err != nil {
		return err
	}

	defer profiler.Start("viewer.vp")()
	vp := v.camera.VP()
	if v.verbose {
		log.Printf("projection:\n%v", v.camera.Projection())
		log.Printf("view:\n%v", v.camera.View())
		log.Printf("vp:\n%v", vp)
	}
	if err := e.Renderer.SetUniformMat4(v.prog, "VP", vp); err != nil {
		return fmt.Errorf("set VP: %w", err)
	}
	return nil
}

func (v *Viewer) OnRender(e *core.Engine) {
	defer profiler.Start("viewer.render")()
	e.Renderer.Draw(v.prog, v.mesh)
}

func (v *Viewer) OnEvent(e *core.Engine, ev core.Event) {}

func (v *Viewer) OnShutdown(e *core.Engine) {}
