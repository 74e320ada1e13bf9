package scene

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxel-pipeline/internal/camera"
	"voxel-pipeline/internal/geometry"
	"voxel-pipeline/internal/logging"
	"voxel-pipeline/internal/profiling"
)

// Phase names one step of the frame pass.
type Phase int

const (
	PhaseChunkCull Phase = iota
	PhaseTransform
	PhaseTriangleCull
	PhaseProject
	PhaseBin
	PhaseCount
)

var phaseNames = [PhaseCount]string{
	"scene.ChunkCull",
	"scene.Transform",
	"scene.TriangleCull",
	"scene.Project",
	"scene.Bin",
}

func (p Phase) String() string {
	if p < 0 || p >= PhaseCount {
		return "scene.?"
	}
	return phaseNames[p]
}

// FrameParams describes one frame: the window, the camera and the priority
// band whose geometry is recomputed. Geometry outside the band keeps the
// values of the last frame that included it.
type FrameParams struct {
	Width, Height int
	Camera        camera.Camera
	PriorityMin   int
	PriorityMax   int
}

// NewFrameParams returns params whose band covers every priority.
func NewFrameParams(width, height int, cam camera.Camera) FrameParams {
	return FrameParams{
		Width:       width,
		Height:      height,
		Camera:      cam,
		PriorityMin: math.MinInt,
		PriorityMax: math.MaxInt,
	}
}

func (p FrameParams) inBand(priority int) bool {
	return priority >= p.PriorityMin && priority <= p.PriorityMax
}

// FrameStats summarises one CheckRemesh run.
type FrameStats struct {
	Ran bool

	Vertices  int
	Triangles int

	ChunksCulled int
	Backface     int
	Frustum      int
	Near         int
	Live         int

	BinEntries int
	BinDropped int

	Phases [PhaseCount]time.Duration
}

// frame carries the per-frame constants shared read-only by the workers.
type frame struct {
	params  FrameParams
	rot     mgl32.Mat3
	frustum camera.Frustum
	proj    camera.Projection
	near    float32
}

// triCounts is one worker's tally from triangle culling.
type triCounts struct {
	backface, near int
}

func (m *Mesh) checkWindow(width, height int) error {
	if width <= 0 || height <= 0 || width > m.opts.MaxWidth || height > m.opts.MaxHeight {
		return &WindowError{Width: width, Height: height, MaxW: m.opts.MaxWidth, MaxH: m.opts.MaxHeight}
	}
	return nil
}

// CheckRemesh runs the frame pass if the buffer was mutated since the last
// run: chunk culling, vertex transform, triangle culling, projection and
// binning, each finishing before the next starts. Without the mutated flag it
// returns zero stats and does nothing.
func (m *Mesh) CheckRemesh(p FrameParams) (FrameStats, error) {
	if !m.mutated {
		return FrameStats{}, nil
	}
	if err := m.checkWindow(p.Width, p.Height); err != nil {
		return FrameStats{}, err
	}

	aspect := float32(p.Width) / float32(p.Height)
	f := frame{
		params:  p,
		rot:     p.Camera.Matrix(),
		frustum: camera.NewFrustum(m.opts.FovY, aspect),
		proj:    camera.NewProjection(m.opts.FovY, p.Width, p.Height, m.opts.Near, m.opts.Far),
		near:    m.opts.NearReject,
	}
	st := FrameStats{
		Ran:       true,
		Vertices:  len(m.verticesOriginal),
		Triangles: len(m.triangles),
	}

	timed := func(ph Phase, fn func() error) error {
		start := time.Now()
		err := fn()
		st.Phases[ph] = time.Since(start)
		profiling.Add(ph.String(), st.Phases[ph])
		return err
	}

	_ = timed(PhaseChunkCull, func() error {
		st.ChunksCulled = m.cullChunks(&f)
		return nil
	})

	vspans := splitRanges(len(m.verticesOriginal), m.opts.Workers)
	tspans := splitRanges(len(m.triangles), m.opts.Workers)

	if err := timed(PhaseTransform, func() error {
		return m.runPhase("transform", vspans, func(_ int, r span) {
			m.transformRange(&f, r, sub(m.vertices, r))
		})
	}); err != nil {
		return FrameStats{}, err
	}

	counts := make([]triCounts, len(tspans))
	m.frustumCulled.Store(0)
	if err := timed(PhaseTriangleCull, func() error {
		return m.runPhase("triangle cull", tspans, func(w int, r span) {
			counts[w] = m.cullTriangleRange(&f, r, sub(m.dead, r))
		})
	}); err != nil {
		return FrameStats{}, err
	}
	for _, c := range counts {
		st.Backface += c.backface
		st.Near += c.near
	}
	st.Frustum = int(m.frustumCulled.Load())

	if err := timed(PhaseProject, func() error {
		return m.runPhase("project", vspans, func(_ int, r span) {
			m.projectRange(&f, r, sub(m.vertices, r))
		})
	}); err != nil {
		return FrameStats{}, err
	}

	_ = timed(PhaseBin, func() error {
		m.cols, m.rows = gridSize(p.Width, p.Height, m.opts.CellSize)
		bs := binTriangles(m.bins, m.cols, m.rows, m.opts.CellSize,
			float32(p.Width), float32(p.Height), m.triangles, m.dead, m.vertices)
		st.Live = bs.live
		st.BinEntries = bs.entries
		st.BinDropped = bs.dropped
		return nil
	})

	m.mutated = false
	m.last = st
	m.lastParams = p
	logging.Logger().Debug("frame",
		"vertices", st.Vertices,
		"triangles", st.Triangles,
		"chunks_culled", st.ChunksCulled,
		"backface", st.Backface,
		"frustum", st.Frustum,
		"near", st.Near,
		"live", st.Live,
		"bin_dropped", st.BinDropped,
	)
	return st, nil
}

// cullChunks marks every chunk whose bounding sphere lies outside the view.
// Freed slots are always culled.
func (m *Mesh) cullChunks(f *frame) int {
	culled := 0
	pos := f.params.Camera.Position
	for i, b := range m.chunkBounds {
		if !m.chunkLive[i] {
			m.chunkCulled[i] = true
			continue
		}
		center := f.rot.Mul3x1(b.Center().Sub(pos))
		m.chunkCulled[i] = f.frustum.SphereOutside(center, b.Radius())
		if m.chunkCulled[i] {
			culled++
		}
	}
	return culled
}

// transformRange writes camera-space copies of the in-band vertices of
// visible chunks into dst, which covers r.
func (m *Mesh) transformRange(f *frame, r span, dst []geometry.Vertex) {
	pos := f.params.Camera.Position
	for i := r.lo; i < r.hi; i++ {
		if m.chunkCulled[m.vertexChunk[i]] || !f.params.inBand(m.vertexPriority[i]) {
			continue
		}
		v := m.verticesOriginal[i]
		p := f.rot.Mul3x1(v.Position.Vec3().Sub(pos))
		v.Position = p.Vec4(v.Position.W())
		dst[i-r.lo] = v
	}
}

// cullTriangleRange decides liveness for triangles in r, writing into dst.
// It only reads the shared camera-space vertex array.
func (m *Mesh) cullTriangleRange(f *frame, r span, dst []bool) triCounts {
	var c triCounts
	for i := r.lo; i < r.hi; i++ {
		if m.chunkCulled[m.triangleChunk[i]] {
			dst[i-r.lo] = true
			continue
		}
		t := m.triangles[i]
		// a triangle's vertices share one band
		if !f.params.inBand(m.vertexPriority[t.I0]) {
			continue
		}

		a := m.vertices[t.I0].Position.Vec3()
		b := m.vertices[t.I1].Position.Vec3()
		v := m.vertices[t.I2].Position.Vec3()
		centroid := a.Add(b).Add(v).Mul(1.0 / 3.0)

		normal := f.rot.Mul3x1(t.NormalIndex().Normal())
		if geometry.SafeNormalize(centroid.Mul(-1)).Dot(geometry.SafeNormalize(normal)) < 0 {
			dst[i-r.lo] = true
			c.backface++
			continue
		}

		radius := max(centroid.Sub(a).Len(), centroid.Sub(b).Len(), centroid.Sub(v).Len())
		if f.frustum.SphereOutside(centroid, radius) {
			dst[i-r.lo] = true
			m.frustumCulled.Add(1)
			continue
		}

		if a.Z() < f.near || b.Z() < f.near || v.Z() < f.near {
			dst[i-r.lo] = true
			c.near++
			continue
		}
		dst[i-r.lo] = false
	}
	return c
}

// projectRange replaces the camera-space vertices in dst with screen-space
// ones, under the same filter as transformRange.
func (m *Mesh) projectRange(f *frame, r span, dst []geometry.Vertex) {
	for i := r.lo; i < r.hi; i++ {
		if m.chunkCulled[m.vertexChunk[i]] || !f.params.inBand(m.vertexPriority[i]) {
			continue
		}
		dst[i-r.lo].Position = f.proj.ToScreen(dst[i-r.lo].Position.Vec3())
	}
}
