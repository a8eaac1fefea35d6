package main

import (
	"flag"
	"log"

	"github.com/hubastard/meshview/engine/config"
	"github.com/hubastard/meshview/engine/core"
	glbackend "github.com/hubastard/meshview/engine/gfx/gl"
	"github.com/hubastard/meshview/engine/platform"
	"github.com/hubastard/meshview/engine/profiler"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML settings file (optional)")
		model      = flag.String("model", "", "OBJ file to display (overrides config)")
		verbose    = flag.Bool("verbose", false, "log the camera matrices")
		progress   = flag.Bool("progress", true, "show a progress bar while loading")
		profile    = flag.Bool("profile", false, "record timing scopes and open them in speedscope on exit (needs -tags profile)")
	)
	flag.Parse()

	if *profile {
		if !profiler.Enabled {
			log.Printf("-profile ignored: %v", profiler.ErrDisabled)
		}
		profiler.Init(1 << 16)
	}

	cfg, err := loadConfig(*configPath, *model)
	if err != nil {
		log.Fatal(err)
	}

	frame, err := loadFrame(cfg.Model, *progress)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Loaded %s: %d vertices (%d triangles)", cfg.Model, len(frame.Vertices), frame.Triangles())

	app := NewViewer(frame, cfg.NewCamera(), *verbose)

	newWindow := func(cfg core.Config) (core.Window, error) {
		return platform.NewGLFWWindow(cfg, nil)
	}
	newRenderer := func(win core.Window, cfg core.Config) (core.Renderer, error) {
		return glbackend.NewRendererGL(win, cfg)
	}

	runErr := core.Run(app, cfg.Core(), newWindow, newRenderer)
	if *profile && profiler.Enabled {
		if path, err := profiler.OpenProfilerGraph(); err != nil {
			log.Printf("profile: %v", err)
		} else {
			log.Printf("profile written to %s", path)
		}
	}
	if runErr != nil {
		log.Fatal(runErr)
	}
}

func loadConfig(path, model string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if model != "" {
		cfg.Model = model
	}
	return cfg, nil
}
