package scene

import (
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxel-pipeline/internal/camera"
	"voxel-pipeline/internal/geometry"
)

func origin() camera.Camera {
	return camera.New(mgl32.Vec3{}, mgl32.Vec3{})
}

func liveTriangles(m *Mesh) []int {
	var out []int
	for i := range m.TriangleCount() {
		if !m.Dead(i) {
			out = append(out, i)
		}
	}
	return out
}

func TestCheckRemeshNoopWhenClean(t *testing.T) {
	m := newTestMesh(t, testOptions())
	st, err := m.CheckRemesh(NewFrameParams(64, 64, origin()))
	require.NoError(t, err)
	assert.False(t, st.Ran)
}

func TestCubeInFrontOfCamera(t *testing.T) {
	m := newTestMesh(t, testOptions())
	addCube(t, m, mgl32.Vec3{0, 0, 10}, 2, 0)

	st, err := m.CheckRemesh(NewFrameParams(64, 64, origin()))
	require.NoError(t, err)
	require.True(t, st.Ran)
	assert.False(t, m.WasMutated())

	// only the two triangles of the face looking back at the camera survive
	assert.Equal(t, 2, st.Live)
	assert.Equal(t, 10, st.Backface)
	assert.Zero(t, st.Frustum)
	assert.Zero(t, st.Near)
	assert.Zero(t, st.ChunksCulled)
	for _, i := range liveTriangles(m) {
		assert.Equal(t, geometry.DirSouth, m.Triangles()[i].NormalIndex())
	}

	// the face spans x,y in [-1,1] at z=9: symmetric about the centre pixel
	for _, v := range m.Vertices() {
		p := v.Position
		assert.InDelta(t, 32, p.X(), 7)
		assert.InDelta(t, 32, p.Y(), 7)
		assert.Greater(t, p.W(), float32(0))
	}
	assert.Positive(t, st.BinEntries)
	assert.Zero(t, st.BinDropped)
}

func TestCheckRemeshIdempotent(t *testing.T) {
	m := newTestMesh(t, testOptions())
	addCube(t, m, mgl32.Vec3{0, 0, 10}, 2, 0)
	addCube(t, m, mgl32.Vec3{3, 1, 12}, 2, 0)
	params := NewFrameParams(64, 48, camera.New(mgl32.Vec3{0.5, 0.25, 0}, mgl32.Vec3{0.05, -0.1, 0}))

	first, err := m.CheckRemesh(params)
	require.NoError(t, err)
	verts := slices.Clone(m.Vertices())
	dead := slices.Clone(m.dead)
	bins := slices.Clone(m.Bins())

	// not mutated: nothing happens
	again, err := m.CheckRemesh(params)
	require.NoError(t, err)
	assert.False(t, again.Ran)
	assert.Equal(t, verts, m.Vertices())

	// same input twice gives the same output
	m.Mutated(true)
	second, err := m.CheckRemesh(params)
	require.NoError(t, err)
	assert.Equal(t, verts, m.Vertices())
	assert.Equal(t, dead, m.dead)
	assert.Equal(t, bins, m.Bins())
	assert.Equal(t, first.Live, second.Live)
}

func TestChunkBehindCameraIsCulled(t *testing.T) {
	m := newTestMesh(t, testOptions())
	front := addCube(t, m, mgl32.Vec3{0, 0, 10}, 2, 0)
	back := addCube(t, m, mgl32.Vec3{0, 0, -100}, 2, 0)

	st, err := m.CheckRemesh(NewFrameParams(64, 64, origin()))
	require.NoError(t, err)
	assert.Equal(t, 1, st.ChunksCulled)
	assert.False(t, m.ChunkCulled(front))
	assert.True(t, m.ChunkCulled(back))

	for i := 12; i < 24; i++ {
		assert.True(t, m.Dead(i))
	}
	// culled vertices were never transformed
	assert.Equal(t, m.OriginalVertices()[24:], m.Vertices()[24:])
}

func TestNearRejection(t *testing.T) {
	m := newTestMesh(t, testOptions())
	idx := m.AddChunk(geometry.Bounds{Origin: mgl32.Vec3{-1, -1, -1}, Extent: mgl32.Vec3{2, 2, 2}})
	g := &geometry.Mesh{
		Vertices: []geometry.Vertex{
			geometry.NewVertex(mgl32.Vec3{-0.2, -0.2, 1}, 0, 0),
			geometry.NewVertex(mgl32.Vec3{0.2, -0.2, 1}, 0, 0),
			geometry.NewVertex(mgl32.Vec3{0, 0.2, -0.5}, 0, 0),
		},
		Triangles: []geometry.Triangle{geometry.NewTriangle(0, 1, 2, geometry.DirSouth)},
	}
	require.NoError(t, m.AppendMesh(g, 0, idx))

	st, err := m.CheckRemesh(NewFrameParams(64, 64, origin()))
	require.NoError(t, err)
	assert.Equal(t, 1, st.Near)
	assert.True(t, m.Dead(0))
}

func TestBackfaceFollowsCameraRotation(t *testing.T) {
	m := newTestMesh(t, testOptions())
	// a single +X facing quad to the right of the camera
	idx := m.AddChunk(geometry.Bounds{Origin: mgl32.Vec3{-6, -1, -1}, Extent: mgl32.Vec3{2, 2, 2}})
	g := &geometry.Mesh{}
	g.AppendQuad(mgl32.Vec3{-6, -1, -1}, mgl32.Vec3{-4, 1, 1}, geometry.DirEast)
	require.NoError(t, m.AppendMesh(g, 0, idx))

	// turned to look down -X: the quad faces the camera
	cam := camera.New(mgl32.Vec3{}, mgl32.Vec3{0, mgl32.DegToRad(90), 0})
	st, err := m.CheckRemesh(NewFrameParams(64, 64, cam))
	require.NoError(t, err)
	assert.Zero(t, st.Backface)
	assert.Equal(t, 2, st.Live)

	// camera moved past the quad: now it sees the back
	m.Mutated(true)
	cam.Position = mgl32.Vec3{-10, 0, 0}
	cam.Rotation = mgl32.Vec3{0, mgl32.DegToRad(-90), 0}
	st, err = m.CheckRemesh(NewFrameParams(64, 64, cam))
	require.NoError(t, err)
	assert.Equal(t, 2, st.Backface)
	assert.Zero(t, st.Live)
}

func TestPriorityBandingRetainsStaleValues(t *testing.T) {
	m := newTestMesh(t, testOptions())
	addCube(t, m, mgl32.Vec3{0, 0, 10}, 2, 0)
	addCube(t, m, mgl32.Vec3{3, 0, 10}, 2, 1)

	_, err := m.CheckRemesh(NewFrameParams(64, 64, origin()))
	require.NoError(t, err)
	before := slices.Clone(m.Vertices())
	deadBefore := slices.Clone(m.dead)

	m.Mutated(true)
	p := NewFrameParams(64, 64, camera.New(mgl32.Vec3{0.5, 0.5, 0}, mgl32.Vec3{}))
	p.PriorityMin, p.PriorityMax = 0, 0
	_, err = m.CheckRemesh(p)
	require.NoError(t, err)

	assert.Equal(t, before[24:], m.Vertices()[24:], "out-of-band vertices keep last frame's values")
	assert.Equal(t, deadBefore[12:], m.dead[12:], "out-of-band triangles keep last frame's liveness")
	assert.NotEqual(t, before[:24], m.Vertices()[:24], "in-band vertices are recomputed")
}

func TestWindowLimits(t *testing.T) {
	m := newTestMesh(t, testOptions())
	addCube(t, m, mgl32.Vec3{0, 0, 10}, 2, 0)

	for _, size := range [][2]int{{0, 10}, {10, 0}, {257, 10}, {10, 300}} {
		_, err := m.CheckRemesh(NewFrameParams(size[0], size[1], origin()))
		require.ErrorIs(t, err, ErrWindowTooLarge)
		var we *WindowError
		require.ErrorAs(t, err, &we)
		assert.Equal(t, 256, we.MaxW)
		assert.True(t, m.WasMutated(), "a rejected frame leaves the buffer mutated")
	}

	_, err := m.CheckRemesh(NewFrameParams(256, 256, origin()))
	assert.NoError(t, err)
}

func screenTri(verts *[]geometry.Vertex, tris *[]geometry.Triangle, dead *[]bool, a, b, c mgl32.Vec2) {
	base := uint32(len(*verts))
	for _, p := range []mgl32.Vec2{a, b, c} {
		*verts = append(*verts, geometry.Vertex{Position: mgl32.Vec4{p.X(), p.Y(), 1, 1}})
	}
	*tris = append(*tris, geometry.Triangle{I0: base, I1: base + 1, I2: base + 2})
	*dead = append(*dead, false)
}

func cellsContaining(grid []uint32, cols, rows int, tri uint32) [][2]int {
	var out [][2]int
	for cy := range rows {
		for cx := range cols {
			slot := grid[(cy*cols+cx)*BinStride:]
			if slices.Contains(slot[1:1+slot[0]], tri) {
				out = append(out, [2]int{cx, cy})
			}
		}
	}
	return out
}

func TestBinningInclusiveCellRange(t *testing.T) {
	var verts []geometry.Vertex
	var tris []geometry.Triangle
	var dead []bool
	// box (1,1)-(10,6) with 4px cells covers cells (0,0)-(2,1)
	screenTri(&verts, &tris, &dead, mgl32.Vec2{1, 1}, mgl32.Vec2{10, 1}, mgl32.Vec2{1, 6})

	cols, rows := gridSize(64, 64, 4)
	grid := make([]uint32, cols*rows*BinStride)
	st := binTriangles(grid, cols, rows, 4, 64, 64, tris, dead, verts)

	assert.Equal(t, 6, st.entries)
	assert.ElementsMatch(t, [][2]int{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1}}, cellsContaining(grid, cols, rows, 0))
}

func TestBinningSkipsOffscreenAndDead(t *testing.T) {
	var verts []geometry.Vertex
	var tris []geometry.Triangle
	var dead []bool
	screenTri(&verts, &tris, &dead, mgl32.Vec2{-10, -10}, mgl32.Vec2{-5, -10}, mgl32.Vec2{-5, -2})
	screenTri(&verts, &tris, &dead, mgl32.Vec2{70, 5}, mgl32.Vec2{80, 5}, mgl32.Vec2{75, 9})
	screenTri(&verts, &tris, &dead, mgl32.Vec2{1, 1}, mgl32.Vec2{2, 1}, mgl32.Vec2{1, 2})
	dead[2] = true
	// straddles the right edge: clamped to the last column
	screenTri(&verts, &tris, &dead, mgl32.Vec2{60, 1}, mgl32.Vec2{90, 1}, mgl32.Vec2{60, 2})

	cols, rows := gridSize(64, 64, 4)
	grid := make([]uint32, cols*rows*BinStride)
	st := binTriangles(grid, cols, rows, 4, 64, 64, tris, dead, verts)

	assert.Equal(t, 3, st.live)
	assert.Equal(t, 1, st.entries)
	assert.Equal(t, [][2]int{{15, 0}}, cellsContaining(grid, cols, rows, 3))
}

func TestBinCapacity(t *testing.T) {
	var verts []geometry.Vertex
	var tris []geometry.Triangle
	var dead []bool
	for range BinCapacity + 7 {
		screenTri(&verts, &tris, &dead, mgl32.Vec2{1, 1}, mgl32.Vec2{2, 1}, mgl32.Vec2{1, 2})
	}

	cols, rows := gridSize(16, 16, 4)
	grid := make([]uint32, cols*rows*BinStride)
	st := binTriangles(grid, cols, rows, 4, 16, 16, tris, dead, verts)

	assert.Equal(t, uint32(BinCapacity), grid[0])
	assert.Equal(t, BinCapacity, st.entries)
	assert.Equal(t, 7, st.dropped)
	for k := 1; k <= BinCapacity; k++ {
		assert.Equal(t, uint32(k-1), grid[k], "entries keep submission order")
	}
}

func TestBinGridFollowsWindow(t *testing.T) {
	m := newTestMesh(t, testOptions())
	addCube(t, m, mgl32.Vec3{0, 0, 10}, 2, 0)
	_, err := m.CheckRemesh(NewFrameParams(30, 17, origin()))
	require.NoError(t, err)

	cols, rows, cell := m.Grid()
	assert.Equal(t, 8, cols)
	assert.Equal(t, 5, rows)
	assert.Equal(t, 4, cell)
	assert.Len(t, m.Bins(), 8*5*BinStride)

	total := 0
	for cy := range rows {
		for cx := range cols {
			total += len(m.Cell(cx, cy))
		}
	}
	assert.Equal(t, m.LastStats().BinEntries, total)
	assert.Nil(t, m.Cell(cols, 0))
}

func BenchmarkCheckRemesh(b *testing.B) {
	m := newTestMesh(b, testOptions())
	for x := range 10 {
		for z := range 10 {
			addCube(b, m, mgl32.Vec3{float32(x*3 - 15), 0, float32(z*3 + 5)}, 2, 0)
		}
	}
	params := NewFrameParams(256, 256, origin())
	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		m.Mutated(true)
		if _, err := m.CheckRemesh(params); err != nil {
			b.Fatal(err)
		}
	}
}
