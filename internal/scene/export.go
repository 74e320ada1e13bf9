package scene

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"voxel-pipeline/internal/camera"
	"voxel-pipeline/internal/geometry"
)

// Buffer slots shared with the rasterization kernel.
const (
	SlotPitch          = 0
	SlotWidth          = 1
	SlotHeight         = 2
	SlotCameraPosition = 3 // reserved, never written
	SlotCameraForward  = 4
	SlotVertices       = 5
	SlotNormals        = 6
	SlotTriangles      = 7
	SlotBins           = 8
)

// BytesPerPixel is the RGB24 output format's pixel size.
const BytesPerPixel = 3

// FrameBuffers is everything the rasterizer reads for one frame. Slices alias
// the Mesh and stay valid until it is next modified.
type FrameBuffers struct {
	Pitch, Width, Height uint32

	CameraPosition mgl32.Vec4
	CameraForward  mgl32.Vec4

	Vertices  []geometry.Vertex
	Normals   []mgl32.Vec4
	Triangles []geometry.Triangle
	Bins      []uint32

	Cols, Rows, CellSize int
}

// Export collects the buffers produced by the last frame. The window must be
// the one that frame was binned for.
func (m *Mesh) Export(width, height int, cam camera.Camera) FrameBuffers {
	return FrameBuffers{
		Pitch:          uint32(width * BytesPerPixel),
		Width:          uint32(width),
		Height:         uint32(height),
		CameraPosition: cam.Position.Vec4(0),
		CameraForward:  cam.Forward().Vec4(0),
		Vertices:       m.vertices,
		Normals:        geometry.FaceNormals[:],
		Triangles:      m.triangles,
		Bins:           m.Bins(),
		Cols:           m.cols,
		Rows:           m.rows,
		CellSize:       m.opts.CellSize,
	}
}

// Frame exports the buffers with the window and camera of the last frame.
func (m *Mesh) Frame() FrameBuffers {
	p := m.lastParams
	return m.Export(p.Width, p.Height, p.Camera)
}

// BufferSink receives buffer uploads by slot. A GPU binding implements it
// over its device buffers.
type BufferSink interface {
	WriteUint32(slot int, v uint32) error
	WriteVec4(slot int, v mgl32.Vec4) error
	WriteVertices(slot int, vs []geometry.Vertex) error
	WriteVec4s(slot int, vs []mgl32.Vec4) error
	WriteTriangles(slot int, ts []geometry.Triangle) error
	WriteUint32s(slot int, ws []uint32) error
}

// UpdateShaderBuffers uploads the last frame's buffers to sink.
func (m *Mesh) UpdateShaderBuffers(sink BufferSink, width, height int, cam camera.Camera) error {
	fb := m.Export(width, height, cam)
	steps := []struct {
		slot  int
		write func() error
	}{
		{SlotPitch, func() error { return sink.WriteUint32(SlotPitch, fb.Pitch) }},
		{SlotWidth, func() error { return sink.WriteUint32(SlotWidth, fb.Width) }},
		{SlotHeight, func() error { return sink.WriteUint32(SlotHeight, fb.Height) }},
		{SlotCameraForward, func() error { return sink.WriteVec4(SlotCameraForward, fb.CameraForward) }},
		{SlotVertices, func() error { return sink.WriteVertices(SlotVertices, fb.Vertices) }},
		{SlotNormals, func() error { return sink.WriteVec4s(SlotNormals, fb.Normals) }},
		{SlotTriangles, func() error { return sink.WriteTriangles(SlotTriangles, fb.Triangles) }},
		{SlotBins, func() error { return sink.WriteUint32s(SlotBins, fb.Bins) }},
	}
	for _, s := range steps {
		if err := s.write(); err != nil {
			return fmt.Errorf("scene: upload slot %d: %w", s.slot, err)
		}
	}
	return nil
}

// MemorySink keeps copies of every upload, keyed by slot.
type MemorySink struct {
	Uint32s   map[int]uint32
	Vec4s     map[int]mgl32.Vec4
	Vertices  map[int][]geometry.Vertex
	Normals   map[int][]mgl32.Vec4
	Triangles map[int][]geometry.Triangle
	Words     map[int][]uint32
}

// NewMemorySink returns an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		Uint32s:   make(map[int]uint32),
		Vec4s:     make(map[int]mgl32.Vec4),
		Vertices:  make(map[int][]geometry.Vertex),
		Normals:   make(map[int][]mgl32.Vec4),
		Triangles: make(map[int][]geometry.Triangle),
		Words:     make(map[int][]uint32),
	}
}

func (s *MemorySink) WriteUint32(slot int, v uint32) error {
	s.Uint32s[slot] = v
	return nil
}

func (s *MemorySink) WriteVec4(slot int, v mgl32.Vec4) error {
	s.Vec4s[slot] = v
	return nil
}

func (s *MemorySink) WriteVertices(slot int, vs []geometry.Vertex) error {
	s.Vertices[slot] = slices.Clone(vs)
	return nil
}

func (s *MemorySink) WriteVec4s(slot int, vs []mgl32.Vec4) error {
	s.Normals[slot] = slices.Clone(vs)
	return nil
}

func (s *MemorySink) WriteTriangles(slot int, ts []geometry.Triangle) error {
	s.Triangles[slot] = slices.Clone(ts)
	return nil
}

func (s *MemorySink) WriteUint32s(slot int, ws []uint32) error {
	s.Words[slot] = slices.Clone(ws)
	return nil
}
