//go:build profile

package profiler

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDumpWritesNestedScopes(t *testing.T) {
	Init(64)
	endStart := Start("viewer.start")
	Start("viewer.upload")()
	endStart()

	path := filepath.Join(t.TempDir(), GraphFile)
	if err := Dump(path); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc ssFile
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("capture is not JSON: %v", err)
	}
	if len(doc.Profiles) != 1 {
		t.Fatalf("profiles = %d, want 1", len(doc.Profiles))
	}
	evs := doc.Profiles[0].Events
	want := []string{"O", "O", "C", "C"}
	if len(evs) != len(want) {
		t.Fatalf("events = %+v", evs)
	}
	for i, e := range evs {
		if e.Type != want[i] {
			t.Errorf("event %d type = %s, want %s", i, e.Type, want[i])
		}
	}
	if doc.Shared.Frames[evs[1].Frame].Name != "viewer.upload" {
		t.Errorf("inner scope = %q", doc.Shared.Frames[evs[1].Frame].Name)
	}
}

func TestBalanceClosesOpenScopes(t *testing.T) {
	evs := []event{
		{at: 0, scope: 0, open: true},
		{at: 2000, scope: 1, open: true},
		{at: 1000, scope: 0}, // mismatched close
	}
	out := balance(evs)
	want := []ssEvent{
		{Type: "O", At: 0, Frame: 0},
		{Type: "O", At: 2, Frame: 1},
		{Type: "C", At: 2, Frame: 1},
		{Type: "C", At: 2, Frame: 0},
	}
	if len(out) != len(want) {
		t.Fatalf("balance = %+v", out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, out[i], want[i])
		}
	}
}

func TestRingKeepsNewest(t *testing.T) {
	var r ring
	r.init(2)
	for i := 0; i < 3; i++ {
		r.push(event{at: int64(i)})
	}
	got := r.snapshot()
	if len(got) != 2 || got[0].at != 1 || got[1].at != 2 {
		t.Fatalf("snapshot = %+v", got)
	}
}

func TestDumpWithoutEvents(t *testing.T) {
	Init(4)
	if err := Dump(filepath.Join(t.TempDir(), GraphFile)); err == nil {
		t.Fatal("expected error with no events")
	}
}
