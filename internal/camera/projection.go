package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// minW guards the perspective divide.
const minW = 1e-6

// Projection maps camera-space points to screen pixels.
type Projection struct {
	matrix mgl32.Mat4
	width  float32
	height float32
}

// NewProjection builds a perspective projection for a +Z forward camera.
// mgl32.Perspective assumes -Z forward, so the view is mirrored in Z first;
// the resulting clip w equals the camera-space z.
func NewProjection(fovY float32, width, height int, near, far float32) Projection {
	w, h := float32(width), float32(height)
	aspect := float32(1)
	if h > 0 {
		aspect = w / h
	}
	return Projection{
		matrix: mgl32.Perspective(fovY, aspect, near, far).Mul4(mgl32.Scale3D(1, 1, -1)),
		width:  w,
		height: h,
	}
}

// Matrix exposes the clip matrix.
func (p Projection) Matrix() mgl32.Mat4 {
	return p.matrix
}

// ToScreen projects a camera-space point. The result holds pixel x and y
// (y grows downward), the camera-space z for depth testing and 1/w. A point
// with a near-zero w resolves to the zero vector.
func (p Projection) ToScreen(view mgl32.Vec3) mgl32.Vec4 {
	clip := p.matrix.Mul4x1(view.Vec4(1))
	w := clip.W()
	if math32.Abs(w) < minW {
		return mgl32.Vec4{}
	}
	invW := 1 / w
	ndcX := clip.X() * invW
	ndcY := clip.Y() * invW
	return mgl32.Vec4{
		(ndcX*0.5 + 0.5) * p.width,
		(1 - (ndcY*0.5 + 0.5)) * p.height,
		view.Z(),
		invW,
	}
}

// Unproject inverts ToScreen using the stored camera-space z.
func (p Projection) Unproject(screen mgl32.Vec4) mgl32.Vec3 {
	if p.width == 0 || p.height == 0 {
		return mgl32.Vec3{}
	}
	ndcX := screen.X()/p.width*2 - 1
	ndcY := 1 - screen.Y()/p.height*2
	z := screen.Z()
	return mgl32.Vec3{
		ndcX * z / p.matrix[0],
		ndcY * z / p.matrix[5],
		z,
	}
}
