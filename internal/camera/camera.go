package camera

import (
	"voxel-pipeline/internal/geometry"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a position plus Euler rotation (radians, applied as Rx*Ry*Rz).
// Camera space looks down +Z with +Y up.
type Camera struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
}

// New returns a camera at pos with rotation rot.
func New(pos, rot mgl32.Vec3) Camera {
	return Camera{Position: pos, Rotation: rot}
}

// RotationMatrix builds Rx(r.x) * Ry(r.y) * Rz(r.z).
func RotationMatrix(r mgl32.Vec3) mgl32.Mat3 {
	return mgl32.Rotate3DX(r.X()).Mul3(mgl32.Rotate3DY(r.Y())).Mul3(mgl32.Rotate3DZ(r.Z()))
}

// Rotate applies the Euler rotation r to v.
func Rotate(v, r mgl32.Vec3) mgl32.Vec3 {
	return RotationMatrix(r).Mul3x1(v)
}

// Matrix returns the camera's rotation matrix.
func (c Camera) Matrix() mgl32.Mat3 {
	return RotationMatrix(c.Rotation)
}

// ToView moves a world-space point into camera space.
func (c Camera) ToView(p mgl32.Vec3) mgl32.Vec3 {
	return c.Matrix().Mul3x1(p.Sub(c.Position))
}

// Forward is the uniform handed to the rasterizer: +Z rotated by the negated
// camera rotation, normalized.
func (c Camera) Forward() mgl32.Vec3 {
	return geometry.SafeNormalize(Rotate(mgl32.Vec3{0, 0, 1}, c.Rotation.Mul(-1)))
}

// ViewDir returns the world-space direction of the view axis, the exact
// inverse rotation of +Z. Forward only matches it for single-axis rotations.
func (c Camera) ViewDir() mgl32.Vec3 {
	return c.Matrix().Transpose().Mul3x1(mgl32.Vec3{0, 0, 1})
}

// Translate moves the camera by d expressed in world space.
func (c *Camera) Translate(d mgl32.Vec3) {
	c.Position = c.Position.Add(d)
}

// Turn adds d to the Euler rotation.
func (c *Camera) Turn(d mgl32.Vec3) {
	c.Rotation = c.Rotation.Add(d)
}
