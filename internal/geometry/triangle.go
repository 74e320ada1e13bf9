package geometry

import "github.com/go-gl/mathgl/mgl32"

// Direction names one of the six axis-aligned face directions. The order
// matches FaceNormals, so a Direction doubles as a normal index.
type Direction uint16

const (
	DirUp    Direction = iota // +Y
	DirDown                   // -Y
	DirEast                   // +X
	DirWest                   // -X
	DirNorth                  // +Z
	DirSouth                  // -Z
	DirectionCount
)

// FaceNormals is the fixed normal table uploaded to the rasterizer.
var FaceNormals = [DirectionCount]mgl32.Vec4{
	{0, 1, 0, 0},
	{0, -1, 0, 0},
	{1, 0, 0, 0},
	{-1, 0, 0, 0},
	{0, 0, 1, 0},
	{0, 0, -1, 0},
}

// Atlas rows: sides share row 0, tops use row 1, bottoms row 2.
const (
	AtlasRowSide   uint16 = 0
	AtlasRowTop    uint16 = 1
	AtlasRowBottom uint16 = 2
)

var faceAtlasRows = [DirectionCount]uint16{
	DirUp:    AtlasRowTop,
	DirDown:  AtlasRowBottom,
	DirEast:  AtlasRowSide,
	DirWest:  AtlasRowSide,
	DirNorth: AtlasRowSide,
	DirSouth: AtlasRowSide,
}

// Offset returns the unit grid step for d.
func (d Direction) Offset() (dx, dy, dz int) {
	n := FaceNormals[d]
	return int(n[0]), int(n[1]), int(n[2])
}

// Normal returns the 3-component face normal.
func (d Direction) Normal() mgl32.Vec3 {
	return FaceNormals[d].Vec3()
}

// AtlasRow returns the texture atlas row used for faces pointing along d.
func (d Direction) AtlasRow() uint16 {
	return faceAtlasRows[d]
}

// Triangle mirrors the GPU uint4 layout: three vertex indices and a packed
// word holding the face id in the low 16 bits and the normal index in the
// high 16 bits.
type Triangle struct {
	I0, I1, I2 uint32
	Packed     uint32
}

// PackFace combines a face (atlas) id and a normal index.
func PackFace(faceID uint16, normal Direction) uint32 {
	return uint32(faceID) | uint32(normal)<<16
}

// NewTriangle builds a triangle for a face pointing along dir.
func NewTriangle(i0, i1, i2 uint32, dir Direction) Triangle {
	return Triangle{I0: i0, I1: i1, I2: i2, Packed: PackFace(dir.AtlasRow(), dir)}
}

// FaceID returns the low 16 bits of the packed word.
func (t Triangle) FaceID() uint16 {
	return uint16(t.Packed & 0xFFFF)
}

// NormalIndex returns the high 16 bits of the packed word, clamped into the
// normal table so a corrupt word cannot index past it.
func (t Triangle) NormalIndex() Direction {
	n := Direction(t.Packed >> 16)
	if n >= DirectionCount {
		return DirUp
	}
	return n
}

// Index returns the i-th corner index (0..2).
func (t Triangle) Index(i int) uint32 {
	switch i {
	case 0:
		return t.I0
	case 1:
		return t.I1
	default:
		return t.I2
	}
}

// Rebase returns t with every index shifted by base.
func (t Triangle) Rebase(base uint32) Triangle {
	t.I0 += base
	t.I1 += base
	t.I2 += base
	return t
}
