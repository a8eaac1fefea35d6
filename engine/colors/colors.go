package colors

// Color is RGBA with every channel in [0, 1].
type Color [4]float32

var (
	White = Color{1, 1, 1, 1}
	Black = Color{0, 0, 0, 1}
	// Off-white background behind the mesh.
	Paper = Color{1.0, 0.99, 0.99, 1}
)

func (c Color) WithAlpha(a float32) Color {
	c[3] = a
	return c
}

// Valid reports whether every channel lies in [0, 1].
func (c Color) Valid() bool {
	for _, v := range c {
		if v < 0 || v > 1 {
			return false
		}
	}
	return true
}
