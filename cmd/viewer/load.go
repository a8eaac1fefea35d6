package main

import (
	"fmt"
	"io"
	"os"

	"github.com/hubastard/meshview/engine/mesh"
	"github.com/hubastard/meshview/engine/profiler"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// loadFrame reads the OBJ at path. When progress is set and stderr is a
// terminal, a byte progress bar is drawn while parsing.
func loadFrame(path string, progress bool) (*mesh.Frame, error) {
	defer profiler.Start("mesh.load")()
	if !progress || !term.IsTerminal(int(os.Stderr.Fd())) {
		return mesh.Load(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load mesh %q: %w", path, err)
	}
	defer f.Close()

	size := int64(-1)
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	bar := progressbar.DefaultBytes(size, fmt.Sprintf("load %s", path))
	defer bar.Close()

	return parseWithProgress(f, path, bar)
}

func parseWithProgress(r io.Reader, path string, w io.Writer) (*mesh.Frame, error) {
	frame, err := mesh.Parse(io.TeeReader(r, w))
	if err != nil {
		return nil, fmt.Errorf("load mesh %q: %w", path, err)
	}
	return frame, nil
}
