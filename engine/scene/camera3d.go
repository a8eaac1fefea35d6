package scene

import "github.com/go-gl/mathgl/mgl32"

// PerspectiveCamera is a fixed right-handed look-at camera with a
// perspective projection.
type PerspectiveCamera struct {
	Eye, Target, Up mgl32.Vec3
	FovY            float32 // radians
	Aspect          float32
	Near, Far       float32
}

func (c *PerspectiveCamera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Target, c.Up)
}

func (c *PerspectiveCamera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(c.FovY, c.Aspect, c.Near, c.Far)
}

// VP returns Projection * View, mapping world space to clip space.
func (c *PerspectiveCamera) VP() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}
