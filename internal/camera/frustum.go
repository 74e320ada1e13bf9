package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Frustum is the symmetric view pyramid used for sphere rejection. It only
// tests the four side planes; near and far are handled elsewhere.
type Frustum struct {
	TanHalfX float32
	TanHalfY float32
}

// NewFrustum builds a frustum from a vertical field of view (radians) and an
// aspect ratio (width / height).
func NewFrustum(fovY, aspect float32) Frustum {
	ty := math32.Tan(fovY * 0.5)
	return Frustum{TanHalfX: ty * aspect, TanHalfY: ty}
}

// SphereOutside reports whether a camera-space sphere lies entirely outside
// one of the side planes. Corners of the frustum produce false negatives.
func (f Frustum) SphereOutside(center mgl32.Vec3, radius float32) bool {
	x, y, z := center.X(), center.Y(), center.Z()

	zx := z * f.TanHalfX
	if x < -zx-radius || x > zx+radius {
		return true
	}
	zy := z * f.TanHalfY
	if y < -zy-radius || y > zy+radius {
		return true
	}
	return false
}
