package scene

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"github.com/go-gl/mathgl/mgl32"

	"voxel-pipeline/internal/config"
	"voxel-pipeline/internal/geometry"
)

// Options sizes a Mesh and parameterises its frame pass.
type Options struct {
	MaxVertices  int // <= 0 means unbounded
	MaxTriangles int // <= 0 means unbounded
	MaxWidth     int
	MaxHeight    int
	CellSize     int
	Workers      int

	FovY       float32 // radians
	Near, Far  float32
	NearReject float32
}

// DefaultOptions reads the current render configuration.
func DefaultOptions() Options {
	r := config.GetRender()
	return Options{
		MaxVertices:  r.MaxVertices,
		MaxTriangles: r.MaxTriangles,
		MaxWidth:     r.MaxWidth,
		MaxHeight:    r.MaxHeight,
		CellSize:     r.CellSize,
		Workers:      r.Workers,
		FovY:         mgl32.DegToRad(r.FovY),
		Near:         r.Near,
		Far:          r.Far,
		NearReject:   r.NearReject,
	}
}

// Mesh is the scene geometry buffer: every visible chunk's vertices and
// triangles concatenated, with per-element metadata kept index aligned, the
// chunk bounds list and the screen-space bin table.
//
// A Mesh is not safe for concurrent use; share it between goroutines through
// a DoubleBuffer.
type Mesh struct {
	opts Options

	verticesOriginal []geometry.Vertex // world space, source of every frame
	vertices         []geometry.Vertex // scratch: camera then screen space
	vertexPriority   []int
	vertexChunk      []int

	triangles     []geometry.Triangle
	triangleChunk []int
	dead          []bool

	chunkBounds []geometry.Bounds
	chunkCulled []bool
	chunkLive   []bool

	bins       []uint32
	cols, rows int // grid of the last binned frame

	frustumCulled atomic.Int64
	mutated       bool
	last          FrameStats
	lastParams    FrameParams

	pool pond.Pool
}

// NewMesh allocates an empty buffer with a bin table sized for the maximum
// window.
func NewMesh(opts Options) *Mesh {
	opts.Workers = max(opts.Workers, 1)
	opts.CellSize = max(opts.CellSize, 1)
	opts.MaxWidth = max(opts.MaxWidth, 1)
	opts.MaxHeight = max(opts.MaxHeight, 1)

	m := &Mesh{
		opts: opts,
		bins: make([]uint32, gridCells(opts.MaxWidth, opts.MaxHeight, opts.CellSize)*BinStride),
		pool: pond.NewPool(opts.Workers),
	}
	if opts.MaxVertices > 0 {
		m.verticesOriginal = make([]geometry.Vertex, 0, opts.MaxVertices)
		m.vertices = make([]geometry.Vertex, 0, opts.MaxVertices)
		m.vertexPriority = make([]int, 0, opts.MaxVertices)
		m.vertexChunk = make([]int, 0, opts.MaxVertices)
	}
	if opts.MaxTriangles > 0 {
		m.triangles = make([]geometry.Triangle, 0, opts.MaxTriangles)
		m.triangleChunk = make([]int, 0, opts.MaxTriangles)
		m.dead = make([]bool, 0, opts.MaxTriangles)
	}
	return m
}

// Close releases the worker pool.
func (m *Mesh) Close() {
	m.pool.StopAndWait()
}

// Options returns the options the buffer was created with.
func (m *Mesh) Options() Options {
	return m.opts
}

// Mutated sets the flag that makes the next CheckRemesh run.
func (m *Mesh) Mutated(v bool) {
	m.mutated = v
}

// WasMutated reports whether the next CheckRemesh will run.
func (m *Mesh) WasMutated() bool {
	return m.mutated
}

func (m *Mesh) checkChunk(index int) error {
	if index < 0 || index >= len(m.chunkLive) || !m.chunkLive[index] {
		return fmt.Errorf("%w: %d", ErrUnknownChunk, index)
	}
	return nil
}

func (m *Mesh) reserve(verts, tris int) error {
	if max := m.opts.MaxVertices; max > 0 && len(m.verticesOriginal)+verts > max {
		return &CapacityError{Kind: "vertex", Have: len(m.verticesOriginal), Want: verts, Max: max}
	}
	if max := m.opts.MaxTriangles; max > 0 && len(m.triangles)+tris > max {
		return &CapacityError{Kind: "triangle", Have: len(m.triangles), Want: tris, Max: max}
	}
	return nil
}

// AppendVertices appends world-space vertices tagged with a priority band and
// owning chunk. It returns the index of the first appended vertex.
func (m *Mesh) AppendVertices(vs []geometry.Vertex, priority, chunk int) (uint32, error) {
	if err := m.checkChunk(chunk); err != nil {
		return 0, err
	}
	if err := m.reserve(len(vs), 0); err != nil {
		return 0, err
	}
	return m.appendVertices(vs, priority, chunk), nil
}

func (m *Mesh) appendVertices(vs []geometry.Vertex, priority, chunk int) uint32 {
	base := uint32(len(m.verticesOriginal))
	m.verticesOriginal = append(m.verticesOriginal, vs...)
	m.vertices = append(m.vertices, vs...)
	for range vs {
		m.vertexPriority = append(m.vertexPriority, priority)
		m.vertexChunk = append(m.vertexChunk, chunk)
	}
	m.mutated = true
	return base
}

// AppendTriangles appends triangles whose indices already address this
// buffer. Every corner must be a vertex owned by chunk, and all three must
// share one priority band. New triangles start dead until a frame evaluates
// them. Nothing is written if any triangle is rejected.
func (m *Mesh) AppendTriangles(ts []geometry.Triangle, chunk int) error {
	if err := m.checkChunk(chunk); err != nil {
		return err
	}
	if err := m.reserve(0, len(ts)); err != nil {
		return err
	}
	n := uint32(len(m.verticesOriginal))
	for i, t := range ts {
		if t.I0 >= n || t.I1 >= n || t.I2 >= n {
			return fmt.Errorf("%w: triangle %d indexes past %d vertices", ErrIndexRange, i, n)
		}
		if err := m.checkOwnership(t, chunk); err != nil {
			return fmt.Errorf("triangle %d: %w", i, err)
		}
	}
	m.appendTriangles(ts, 0, chunk)
	return nil
}

// checkOwnership rejects a triangle whose corners belong to another chunk or
// sit in different priority bands. compact relies on this to rebase indices.
func (m *Mesh) checkOwnership(t geometry.Triangle, chunk int) error {
	band := m.vertexPriority[t.I0]
	for _, i := range [3]uint32{t.I0, t.I1, t.I2} {
		if owner := m.vertexChunk[i]; owner != chunk {
			return fmt.Errorf("%w: vertex %d owned by chunk %d, not %d", ErrSplitTriangle, i, owner, chunk)
		}
		if p := m.vertexPriority[i]; p != band {
			return fmt.Errorf("%w: vertex %d in band %d, not %d", ErrSplitTriangle, i, p, band)
		}
	}
	return nil
}

func (m *Mesh) appendTriangles(ts []geometry.Triangle, base uint32, chunk int) {
	for _, t := range ts {
		m.triangles = append(m.triangles, t.Rebase(base))
		m.triangleChunk = append(m.triangleChunk, chunk)
		m.dead = append(m.dead, true)
	}
	m.mutated = true
}

// AppendMesh appends a chunk-local mesh, rebasing its triangle indices onto
// the buffer's vertex count. Capacity is checked for both arrays before
// anything is written.
func (m *Mesh) AppendMesh(g *geometry.Mesh, priority, chunk int) error {
	if err := m.checkChunk(chunk); err != nil {
		return err
	}
	if g.Empty() {
		return nil
	}
	if err := m.reserve(len(g.Vertices), len(g.Triangles)); err != nil {
		return err
	}
	base := m.appendVertices(g.Vertices, priority, chunk)
	m.appendTriangles(g.Triangles, base, chunk)
	return nil
}

// AddChunk registers a chunk's world-space bounds and returns its index. The
// lowest freed slot is reused before the list grows.
func (m *Mesh) AddChunk(b geometry.Bounds) int {
	m.mutated = true
	if i := slices.Index(m.chunkLive, false); i >= 0 {
		m.chunkBounds[i] = b
		m.chunkLive[i] = true
		m.chunkCulled[i] = false
		return i
	}
	m.chunkBounds = append(m.chunkBounds, b)
	m.chunkCulled = append(m.chunkCulled, false)
	m.chunkLive = append(m.chunkLive, true)
	return len(m.chunkBounds) - 1
}

// ClearChunk drops the chunk's geometry but keeps its slot.
func (m *Mesh) ClearChunk(index int) error {
	if err := m.checkChunk(index); err != nil {
		return err
	}
	m.compact(index)
	return nil
}

// RemoveChunk drops the chunk's geometry and frees its slot for reuse.
func (m *Mesh) RemoveChunk(index int) error {
	if err := m.checkChunk(index); err != nil {
		return err
	}
	m.compact(index)
	m.chunkLive[index] = false
	m.chunkCulled[index] = true
	m.chunkBounds[index] = geometry.Bounds{}
	m.mutated = true
	return nil
}

// compact removes every vertex and triangle owned by chunk, keeping all
// parallel arrays aligned and rebasing the surviving triangle indices.
func (m *Mesh) compact(chunk int) {
	if !slices.Contains(m.vertexChunk, chunk) && !slices.Contains(m.triangleChunk, chunk) {
		return
	}

	remap := make([]uint32, len(m.verticesOriginal))
	w := 0
	for i, owner := range m.vertexChunk {
		if owner == chunk {
			continue
		}
		remap[i] = uint32(w)
		m.verticesOriginal[w] = m.verticesOriginal[i]
		m.vertices[w] = m.vertices[i]
		m.vertexPriority[w] = m.vertexPriority[i]
		m.vertexChunk[w] = owner
		w++
	}
	m.verticesOriginal = m.verticesOriginal[:w]
	m.vertices = m.vertices[:w]
	m.vertexPriority = m.vertexPriority[:w]
	m.vertexChunk = m.vertexChunk[:w]

	w = 0
	for i, owner := range m.triangleChunk {
		if owner == chunk {
			continue
		}
		t := m.triangles[i]
		t.I0, t.I1, t.I2 = remap[t.I0], remap[t.I1], remap[t.I2]
		m.triangles[w] = t
		m.triangleChunk[w] = owner
		m.dead[w] = m.dead[i]
		w++
	}
	m.triangles = m.triangles[:w]
	m.triangleChunk = m.triangleChunk[:w]
	m.dead = m.dead[:w]
	m.mutated = true
}

// VertexCount returns the number of vertices in the buffer.
func (m *Mesh) VertexCount() int { return len(m.verticesOriginal) }

// TriangleCount returns the number of triangles, dead ones included.
func (m *Mesh) TriangleCount() int { return len(m.triangles) }

// ChunkSlots returns the length of the chunk list, freed slots included.
func (m *Mesh) ChunkSlots() int { return len(m.chunkBounds) }

// ChunkLive reports whether index is a registered chunk.
func (m *Mesh) ChunkLive(index int) bool {
	return index >= 0 && index < len(m.chunkLive) && m.chunkLive[index]
}

// ChunkCulled reports the culling decision of the last frame for index.
func (m *Mesh) ChunkCulled(index int) bool {
	return index < 0 || index >= len(m.chunkCulled) || m.chunkCulled[index]
}

// ChunkBounds returns the registered bounds of index.
func (m *Mesh) ChunkBounds(index int) (geometry.Bounds, error) {
	if err := m.checkChunk(index); err != nil {
		return geometry.Bounds{}, err
	}
	return m.chunkBounds[index], nil
}

// Vertices returns the transformed vertex array. Callers must not modify it.
func (m *Mesh) Vertices() []geometry.Vertex { return m.vertices }

// OriginalVertices returns the world-space vertex array. Callers must not
// modify it.
func (m *Mesh) OriginalVertices() []geometry.Vertex { return m.verticesOriginal }

// Triangles returns the triangle array. Callers must not modify it.
func (m *Mesh) Triangles() []geometry.Triangle { return m.triangles }

// Dead reports whether triangle i was rejected by the last evaluating frame.
func (m *Mesh) Dead(i int) bool { return m.dead[i] }

// TriangleChunk returns the chunk index owning triangle i.
func (m *Mesh) TriangleChunk(i int) int { return m.triangleChunk[i] }

// VertexPriority returns the priority band of vertex i.
func (m *Mesh) VertexPriority(i int) int { return m.vertexPriority[i] }

// LastStats returns the statistics of the last frame that ran.
func (m *Mesh) LastStats() FrameStats { return m.last }

// LastParams returns the params of the last frame that ran.
func (m *Mesh) LastParams() FrameParams { return m.lastParams }

// CopyFrom makes m an exact copy of src, reusing m's allocations where they
// are large enough. Options other than the worker count are taken from src.
func (m *Mesh) CopyFrom(src *Mesh) {
	workers := m.opts.Workers
	m.opts = src.opts
	m.opts.Workers = workers

	m.verticesOriginal = append(m.verticesOriginal[:0], src.verticesOriginal...)
	m.vertices = append(m.vertices[:0], src.vertices...)
	m.vertexPriority = append(m.vertexPriority[:0], src.vertexPriority...)
	m.vertexChunk = append(m.vertexChunk[:0], src.vertexChunk...)
	m.triangles = append(m.triangles[:0], src.triangles...)
	m.triangleChunk = append(m.triangleChunk[:0], src.triangleChunk...)
	m.dead = append(m.dead[:0], src.dead...)
	m.chunkBounds = append(m.chunkBounds[:0], src.chunkBounds...)
	m.chunkCulled = append(m.chunkCulled[:0], src.chunkCulled...)
	m.chunkLive = append(m.chunkLive[:0], src.chunkLive...)
	m.bins = append(m.bins[:0], src.bins...)
	m.cols, m.rows = src.cols, src.rows
	m.frustumCulled.Store(src.frustumCulled.Load())
	m.mutated = src.mutated
	m.last = src.last
	m.lastParams = src.lastParams
}

// Clone returns an independent deep copy with its own worker pool.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		opts: m.opts,
		pool: pond.NewPool(m.opts.Workers),
	}
	c.CopyFrom(m)
	return c
}
