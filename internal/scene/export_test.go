package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxel-pipeline/internal/geometry"
)

func TestUpdateShaderBuffers(t *testing.T) {
	m := newTestMesh(t, testOptions())
	addCube(t, m, mgl32.Vec3{0, 0, 10}, 2, 0)
	_, err := m.CheckRemesh(NewFrameParams(40, 20, origin()))
	require.NoError(t, err)

	sink := NewMemorySink()
	require.NoError(t, m.UpdateShaderBuffers(sink, 40, 20, origin()))

	assert.Equal(t, uint32(120), sink.Uint32s[SlotPitch])
	assert.Equal(t, uint32(40), sink.Uint32s[SlotWidth])
	assert.Equal(t, uint32(20), sink.Uint32s[SlotHeight])
	_, wrote := sink.Vec4s[SlotCameraPosition]
	assert.False(t, wrote, "camera position slot is reserved")
	assert.Equal(t, mgl32.Vec4{0, 0, 1, 0}, sink.Vec4s[SlotCameraForward])

	assert.Len(t, sink.Vertices[SlotVertices], 24)
	assert.Equal(t, geometry.FaceNormals[:], sink.Normals[SlotNormals])
	assert.Len(t, sink.Triangles[SlotTriangles], 12, "dead triangles are uploaded too")
	assert.Len(t, sink.Words[SlotBins], 10*5*BinStride)

	// the sink holds copies
	m.Mutated(true)
	_, err = m.CheckRemesh(NewFrameParams(40, 20, origin()))
	require.NoError(t, err)
	sink.Vertices[SlotVertices][0].Position = mgl32.Vec4{-1, -1, -1, -1}
	assert.NotEqual(t, sink.Vertices[SlotVertices][0], m.Vertices()[0])
}

type failingSink struct {
	*MemorySink
}

var errUpload = errors.New("device lost")

func (failingSink) WriteTriangles(int, []geometry.Triangle) error {
	return errUpload
}

func TestUpdateShaderBuffersPropagatesErrors(t *testing.T) {
	m := newTestMesh(t, testOptions())
	err := m.UpdateShaderBuffers(failingSink{NewMemorySink()}, 8, 8, origin())
	require.ErrorIs(t, err, errUpload)
	assert.Contains(t, err.Error(), "slot 7")
}

func TestExport(t *testing.T) {
	m := newTestMesh(t, testOptions())
	addCube(t, m, mgl32.Vec3{0, 0, 10}, 2, 0)
	_, err := m.CheckRemesh(NewFrameParams(64, 32, origin()))
	require.NoError(t, err)

	fb := m.Export(64, 32, origin())
	assert.Equal(t, uint32(192), fb.Pitch)
	assert.Equal(t, 16, fb.Cols)
	assert.Equal(t, 8, fb.Rows)
	assert.Equal(t, 4, fb.CellSize)
	assert.Len(t, fb.Normals, 6)
	assert.Len(t, fb.Bins, 16*8*BinStride)
}

func TestFrameUsesLastParams(t *testing.T) {
	m := newTestMesh(t, testOptions())
	addCube(t, m, mgl32.Vec3{0, 0, 10}, 2, 0)
	params := NewFrameParams(48, 24, origin())
	_, err := m.CheckRemesh(params)
	require.NoError(t, err)
	assert.Equal(t, params, m.LastParams())

	fb := m.Frame()
	assert.Equal(t, uint32(48), fb.Width)
	assert.Equal(t, uint32(24), fb.Height)
	assert.Equal(t, 12, fb.Cols)

	// copies carry the frame they were built for
	c := m.Clone()
	t.Cleanup(c.Close)
	assert.Equal(t, params, c.LastParams())
	assert.Equal(t, fb.Bins, c.Frame().Bins)
}
