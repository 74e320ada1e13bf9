package geometry

import "github.com/go-gl/mathgl/mgl32"

// AppendQuad appends the axis-aligned face of the box [min,max] that points
// along dir as four vertices and two triangles wound counter-clockwise when
// seen from outside. Triangle indices are relative to len(m.Vertices).
func (m *Mesh) AppendQuad(min, max mgl32.Vec3, dir Direction) {
	var c [4]mgl32.Vec3
	switch dir {
	case DirUp:
		y := max.Y()
		c = [4]mgl32.Vec3{{min.X(), y, min.Z()}, {min.X(), y, max.Z()}, {max.X(), y, max.Z()}, {max.X(), y, min.Z()}}
	case DirDown:
		y := min.Y()
		c = [4]mgl32.Vec3{{min.X(), y, min.Z()}, {max.X(), y, min.Z()}, {max.X(), y, max.Z()}, {min.X(), y, max.Z()}}
	case DirEast:
		x := max.X()
		c = [4]mgl32.Vec3{{x, min.Y(), min.Z()}, {x, max.Y(), min.Z()}, {x, max.Y(), max.Z()}, {x, min.Y(), max.Z()}}
	case DirWest:
		x := min.X()
		c = [4]mgl32.Vec3{{x, min.Y(), min.Z()}, {x, min.Y(), max.Z()}, {x, max.Y(), max.Z()}, {x, max.Y(), min.Z()}}
	case DirNorth:
		z := max.Z()
		c = [4]mgl32.Vec3{{min.X(), min.Y(), z}, {max.X(), min.Y(), z}, {max.X(), max.Y(), z}, {min.X(), max.Y(), z}}
	default: // DirSouth
		z := min.Z()
		c = [4]mgl32.Vec3{{min.X(), min.Y(), z}, {min.X(), max.Y(), z}, {max.X(), max.Y(), z}, {max.X(), min.Y(), z}}
	}

	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices,
		NewVertex(c[0], 0, 1),
		NewVertex(c[1], 0, 0),
		NewVertex(c[2], 1, 0),
		NewVertex(c[3], 1, 1),
	)
	m.Triangles = append(m.Triangles,
		NewTriangle(base, base+1, base+2, dir),
		NewTriangle(base, base+2, base+3, dir),
	)
}

// Cube returns a closed axis-aligned cube of the given edge length centred
// on center: 24 vertices, 12 triangles.
func Cube(center mgl32.Vec3, size float32) Mesh {
	h := size / 2
	min := center.Sub(mgl32.Vec3{h, h, h})
	max := center.Add(mgl32.Vec3{h, h, h})
	m := Mesh{
		Vertices:  make([]Vertex, 0, 24),
		Triangles: make([]Triangle, 0, 12),
	}
	for d := range DirectionCount {
		m.AppendQuad(min, max, d)
	}
	return m
}
