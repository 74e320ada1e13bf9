package geometry

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultLight is written into every vertex until lighting exists.
var DefaultLight = mgl32.Vec4{1, 1, 1, 0}

// Vertex mirrors the GPU float4 layout: position, uv (xy used) and light.
type Vertex struct {
	Position mgl32.Vec4
	UV       mgl32.Vec4
	Light    mgl32.Vec4
}

// NewVertex builds a vertex with the placeholder light.
func NewVertex(pos mgl32.Vec3, u, v float32) Vertex {
	return Vertex{
		Position: pos.Vec4(0),
		UV:       mgl32.Vec4{u, v, 0, 0},
		Light:    DefaultLight,
	}
}

// Mesh is a chunk-local vertex/triangle list. Triangle indices start at 0.
type Mesh struct {
	Vertices  []Vertex
	Triangles []Triangle
}

// Empty reports whether the mesh carries no triangles.
func (m *Mesh) Empty() bool {
	return m == nil || len(m.Triangles) == 0
}

// Bounds is an axis-aligned box stored as origin (min corner) plus extent.
type Bounds struct {
	Origin mgl32.Vec3
	Extent mgl32.Vec3
}

// Center returns origin + extent/2.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Origin.Add(b.Extent.Mul(0.5))
}

// Radius returns half the box diagonal, the radius of the enclosing sphere.
func (b Bounds) Radius() float32 {
	return 0.5 * b.Extent.Len()
}

// SafeNormalize returns v/|v|, or the zero vector when |v| is zero or not finite.
func SafeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 || math32.IsNaN(l) || math32.IsInf(l, 0) {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}
