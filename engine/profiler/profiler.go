//go:build profile

package profiler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// Enabled reports whether scopes are recorded in this build.
const Enabled = true

// Init arms the profiler with room for capacity scope events; older events
// are overwritten once it fills up. Scopes started before Init are dropped.
func Init(capacity int) {
	if capacity <= 0 {
		capacity = 1 << 16
	}
	events.init(capacity)
}

// Start opens a named scope and returns the function that closes it.
//
//	defer profiler.Start("mesh.load")()
func Start(name string) func() {
	if !events.ready.Load() {
		return func() {}
	}
	id := intern(name)
	opened := time.Now().UnixNano()
	events.push(event{at: opened, scope: id, open: true})
	return func() {
		closed := time.Now().UnixNano()
		if closed < opened {
			closed = opened
		}
		events.push(event{at: closed, scope: id})
	}
}

// OpenProfilerGraph writes the capture to the temp dir and, when the
// speedscope CLI is on PATH, opens it there.
func OpenProfilerGraph() (string, error) {
	path := filepath.Join(os.TempDir(), GraphFile)
	if err := Dump(path); err != nil {
		return "", err
	}
	viewer, err := exec.LookPath("speedscope")
	if err != nil {
		return path, nil
	}
	if err := exec.Command(viewer, path).Start(); err != nil {
		log.Printf("profiler: launch speedscope: %v", err)
	}
	return path, nil
}

// Dump writes every recorded event to path in speedscope's evented format.
func Dump(path string) error {
	evs := events.snapshot()
	if len(evs) == 0 {
		return errors.New("profiler: no events to dump")
	}
	return writeSpeedscope(evs, path)
}

// ---------- event ring ----------

type event struct {
	at    int64 // unix ns
	scope int
	open  bool
}

type ring struct {
	ready atomic.Bool
	size  uint64
	next  atomic.Uint64
	buf   []event
}

func (r *ring) init(capacity int) {
	r.size = uint64(capacity)
	r.buf = make([]event, capacity)
	r.next.Store(0)
	r.ready.Store(true)
}

func (r *ring) push(e event) {
	i := r.next.Add(1) - 1
	r.buf[i%r.size] = e
}

// snapshot returns the surviving events in the order they were pushed.
func (r *ring) snapshot() []event {
	n := r.next.Load()
	if n == 0 {
		return nil
	}
	first := uint64(0)
	if n > r.size {
		first = n - r.size
	}
	out := make([]event, 0, n-first)
	for i := first; i < n; i++ {
		out = append(out, r.buf[i%r.size])
	}
	return out
}

var events ring

// ---------- scope names ----------

var (
	namesMu sync.Mutex
	names   []string
	nameIDs = map[string]int{}
)

func intern(name string) int {
	namesMu.Lock()
	defer namesMu.Unlock()
	if id, ok := nameIDs[name]; ok {
		return id
	}
	id := len(names)
	nameIDs[name] = id
	names = append(names, name)
	return id
}

// ---------- speedscope file ----------

type ssFile struct {
	Schema   string      `json:"$schema"`
	Shared   ssShared    `json:"shared"`
	Profiles []ssProfile `json:"profiles"`
	Exporter string      `json:"exporter,omitempty"`
	Name     string      `json:"name,omitempty"`
}

type ssShared struct {
	Frames []ssFrame `json:"frames"`
}

type ssFrame struct {
	Name string `json:"name"`
}

type ssProfile struct {
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	Unit       string    `json:"unit"`
	StartValue int64     `json:"startValue"`
	EndValue   int64     `json:"endValue"`
	Events     []ssEvent `json:"events"`
}

type ssEvent struct {
	Type  string `json:"type"` // "O" or "C"
	At    int64  `json:"at"`   // µs since the first event
	Frame int    `json:"frame"`
}

// balance converts raw events to speedscope events. A close that does not
// match the innermost open scope is dropped; scopes still open at the end are
// closed at the last timestamp.
func balance(evs []event) []ssEvent {
	base := evs[0].at
	out := make([]ssEvent, 0, len(evs))
	var stack []int
	last := int64(0)
	for _, e := range evs {
		at := (e.at - base) / 1000
		if at < last {
			at = last
		}
		if e.open {
			stack = append(stack, e.scope)
		} else {
			if len(stack) == 0 || stack[len(stack)-1] != e.scope {
				continue
			}
			stack = stack[:len(stack)-1]
		}
		typ := "C"
		if e.open {
			typ = "O"
		}
		out = append(out, ssEvent{Type: typ, At: at, Frame: e.scope})
		last = at
	}
	for i := len(stack) - 1; i >= 0; i-- {
		out = append(out, ssEvent{Type: "C", At: last, Frame: stack[i]})
	}
	return out
}

func writeSpeedscope(evs []event, path string) error {
	namesMu.Lock()
	frames := make([]ssFrame, len(names))
	for i, n := range names {
		frames[i] = ssFrame{Name: n}
	}
	namesMu.Unlock()

	out := balance(evs)
	if len(out) == 0 {
		return errors.New("profiler: no complete scopes to dump")
	}

	doc := ssFile{
		Schema: "https://www.speedscope.app/file-format-schema.json",
		Shared: ssShared{Frames: frames},
		Profiles: []ssProfile{{
			Type:     "evented",
			Name:     "meshview",
			Unit:     "microseconds",
			EndValue: out[len(out)-1].At,
			Events:   out,
		}},
		Exporter: "meshview-profiler",
		Name:     "meshview capture",
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("profiler: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&doc); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("profiler: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("profiler: %w", err)
	}
	return os.Rename(tmp, path)
}
