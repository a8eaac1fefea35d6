// Package profiler records named timing scopes and writes them as a
// speedscope capture. Recording only happens in builds tagged "profile";
// otherwise every function is a no-op.
package profiler

import "errors"

// ErrDisabled is returned by the dump functions in builds without profiling.
var ErrDisabled = errors.New("profiler: built without -tags profile")

// GraphFile is the name of the capture written by OpenProfilerGraph.
const GraphFile = "meshview.profile.speedscope.json"
