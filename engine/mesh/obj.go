// Package mesh loads static triangle meshes from Wavefront OBJ text.
package mesh

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

// Frame is one loaded mesh: triangle corner positions flattened in file
// order, three per triangle.
type Frame struct {
	Vertices []mgl32.Vec3
}

// Triangles reports how many triangles the frame holds.
func (f *Frame) Triangles() int { return len(f.Vertices) / 3 }

// ParseError reports a malformed OBJ statement. Line is 1-based, or 0 when
// the decoder did not say where it failed.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return "obj: " + e.Msg
	}
	return fmt.Sprintf("obj line %d: %s", e.Line, e.Msg)
}

// Load reads the OBJ file at path.
func Load(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load mesh %q: %w", path, err)
	}
	defer f.Close()

	frame, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("load mesh %q: %w", path, err)
	}
	return frame, nil
}

// Parse reads an OBJ document and returns its faces as a flat triangle list.
// Only positions are kept; texture coordinates, normals, groups and
// materials are skipped. Polygons are fan-triangulated around their first
// corner.
func Parse(r io.Reader) (*Frame, error) {
	src, faceLines, err := normalize(r)
	if err != nil {
		return nil, err
	}

	// Materials are never used; an empty library keeps the decoder from
	// looking for the file named by mtllib.
	dec, err := obj.DecodeReader(src, strings.NewReader(""))
	if err != nil {
		return nil, &ParseError{Line: decoderLine(err), Msg: err.Error()}
	}
	return triangulate(dec, faceLines)
}

var keep = map[string]bool{"v": true, "f": true, "o": true, "g": true}

var skip = map[string]bool{
	"vt": true, "vn": true, "vp": true, "s": true,
	"l": true, "p": true, "mtllib": true, "usemtl": true,
}

// normalize rewrites r into the subset the decoder sees: comments, a leading
// byte order mark and statements without geometry are blanked out, keeping
// line numbers intact; negative face indices are made absolute. Face indices
// are checked against the positions declared so far. It returns the line of
// every face in order.
func normalize(r io.Reader) (io.Reader, []int, error) {
	var (
		out       bytes.Buffer
		faceLines []int
		positions int
		line      int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line++
		text := sc.Text()
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)

		switch {
		case len(fields) == 0 || skip[fields[0]]:
			out.WriteByte('\n')
			continue
		case !keep[fields[0]]:
			return nil, nil, &ParseError{line, fmt.Sprintf("unknown statement %q", fields[0])}
		case fields[0] == "v":
			positions++
		case fields[0] == "f":
			for i, c := range fields[1:] {
				abs, err := absoluteCorner(c, positions)
				if err != nil {
					return nil, nil, &ParseError{line, err.Error()}
				}
				fields[1+i] = abs
			}
			faceLines = append(faceLines, line)
		}
		out.WriteString(strings.Join(fields, " "))
		out.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read obj: %w", err)
	}
	return &out, faceLines, nil
}

// absoluteCorner rewrites the position reference of a face corner ("7",
// "-1/2", "7//3") as a positive 1-based index. References that are not
// integers are left for the decoder to reject.
func absoluteCorner(corner string, count int) (string, error) {
	ref, rest, hasRest := strings.Cut(corner, "/")
	n, err := strconv.Atoi(ref)
	if err != nil {
		return corner, nil
	}
	switch {
	case n > 0 && n <= count:
	case n < 0 && -n <= count:
		n = count + n + 1
	default:
		return "", fmt.Errorf("face index %d out of range (have %d vertices)", n, count)
	}
	if hasRest {
		return strconv.Itoa(n) + "/" + rest, nil
	}
	return strconv.Itoa(n), nil
}

func triangulate(dec *obj.Decoder, faceLines []int) (*Frame, error) {
	count := len(dec.Vertices) / 3
	position := func(i int) mgl32.Vec3 {
		return mgl32.Vec3{dec.Vertices[i*3], dec.Vertices[i*3+1], dec.Vertices[i*3+2]}
	}

	out := []mgl32.Vec3{}
	face := 0
	for _, o := range dec.Objects {
		for _, f := range o.Faces {
			line := 0
			if face < len(faceLines) {
				line = faceLines[face]
			}
			face++
			if len(f.Vertices) < 3 {
				return nil, &ParseError{line, "face needs at least 3 corners"}
			}
			for _, idx := range f.Vertices {
				if idx < 0 || idx >= count {
					return nil, &ParseError{line, fmt.Sprintf("face index %d out of range (have %d vertices)", idx+1, count)}
				}
			}
			for i := 1; i+1 < len(f.Vertices); i++ {
				out = append(out, position(f.Vertices[0]), position(f.Vertices[i]), position(f.Vertices[i+1]))
			}
		}
	}
	return &Frame{Vertices: out}, nil
}

var lineRef = regexp.MustCompile(`line:?\s*(\d+)`)

// decoderLine extracts the line number the decoder put in its message.
func decoderLine(err error) int {
	m := lineRef.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
