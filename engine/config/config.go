// Package config holds the viewer's settings and reads them from YAML.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hubastard/meshview/engine/colors"
	"github.com/hubastard/meshview/engine/core"
	"github.com/hubastard/meshview/engine/scene"
	"gopkg.in/yaml.v3"
)

// DefaultModel is the frame loaded when neither a flag nor the config names one.
const DefaultModel = "1a/1a_000001.obj"

// maxConfigSize bounds how much of a config file is read.
const maxConfigSize = 1 << 20

type Window struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	VSync  bool   `yaml:"vsync"`
}

type Camera struct {
	Eye    [3]float32 `yaml:"eye"`
	Target [3]float32 `yaml:"target"`
	Up     [3]float32 `yaml:"up"`
	FovY   float32    `yaml:"fov_y"` // radians
	Near   float32    `yaml:"near"`
	Far    float32    `yaml:"far"`
}

type Config struct {
	Model      string       `yaml:"model"`
	Window     Window       `yaml:"window"`
	Camera     Camera       `yaml:"camera"`
	Background colors.Color `yaml:"background"`
}

// Default returns the built-in settings: a 960x540 vsynced window and the
// fixed camera used to frame the default model.
func Default() Config {
	return Config{
		Model: DefaultModel,
		Window: Window{
			Title:  "Window",
			Width:  960,
			Height: 540,
			VSync:  true,
		},
		Camera: Camera{
			Eye:    [3]float32{9.02922, -8.50027, 7.65063},
			Target: [3]float32{3.27, -2.79, 3.62},
			Up:     [3]float32{0, 0, 1},
			FovY:   0.6911,
			Near:   0.1,
			Far:    100.0,
		},
		Background: colors.Paper,
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()

	info, err := os.Stat(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if info.Size() > maxConfigSize {
		return cfg, fmt.Errorf("load config %q: file too large (%d bytes)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings that cannot produce a window or a usable camera.
func (c Config) Validate() error {
	var errs []error
	if c.Model == "" {
		errs = append(errs, errors.New("model path is empty"))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	cam := c.Camera
	if cam.FovY <= 0 || cam.FovY >= math.Pi {
		errs = append(errs, fmt.Errorf("fov_y %v must be in (0, pi)", cam.FovY))
	}
	if cam.Near <= 0 || cam.Far <= cam.Near {
		errs = append(errs, fmt.Errorf("clip range near=%v far=%v must satisfy 0 < near < far", cam.Near, cam.Far))
	}
	if cam.Eye == cam.Target {
		errs = append(errs, errors.New("camera eye and target coincide"))
	}
	if cam.Up == ([3]float32{}) {
		errs = append(errs, errors.New("camera up vector is zero"))
	} else if cam.Eye != cam.Target {
		dir := mgl32.Vec3(cam.Target).Sub(mgl32.Vec3(cam.Eye)).Normalize()
		if dir.Cross(mgl32.Vec3(cam.Up).Normalize()).Len() < 1e-5 {
			errs = append(errs, errors.New("camera up vector is parallel to the view direction"))
		}
	}
	if !c.Background.Valid() {
		errs = append(errs, fmt.Errorf("background %v has a channel outside [0, 1]", c.Background))
	}
	return errors.Join(errs...)
}

// Aspect is the window's width over height.
func (c Config) Aspect() float32 {
	return float32(c.Window.Width) / float32(c.Window.Height)
}

// Core converts the window settings for core.Run.
func (c Config) Core() core.Config {
	return core.Config{
		Title:      c.Window.Title,
		Width:      c.Window.Width,
		Height:     c.Window.Height,
		VSync:      c.Window.VSync,
		ClearColor: c.Background,
	}
}

// NewCamera builds the perspective camera described by c, with the aspect
// ratio taken from the window size.
func (c Config) NewCamera() *scene.PerspectiveCamera {
	return &scene.PerspectiveCamera{
		Eye:    mgl32.Vec3(c.Camera.Eye),
		Target: mgl32.Vec3(c.Camera.Target),
		Up:     mgl32.Vec3(c.Camera.Up),
		FovY:   c.Camera.FovY,
		Aspect: c.Aspect(),
		Near:   c.Camera.Near,
		Far:    c.Camera.Far,
	}
}
