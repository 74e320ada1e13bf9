package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"voxel-pipeline/internal/camera"
	"voxel-pipeline/internal/config"
	"voxel-pipeline/internal/logging"
	"voxel-pipeline/internal/meshing"
	"voxel-pipeline/internal/profiling"
	"voxel-pipeline/internal/scene"
	"voxel-pipeline/internal/world"
)

// Options configures a Pipeline.
type Options struct {
	Scene        scene.Options
	ViewRadius   int // chunks, XZ
	LODDistances [world.LODCount - 1]float32
	MeshWorkers  int
	MeshQueue    int
	Ignore       []world.BlockType // tiles meshed as air
	Width        int
	Height       int
}

// DefaultOptions reads the current configuration.
func DefaultOptions() Options {
	r := config.GetRender()
	return Options{
		Scene:        scene.DefaultOptions(),
		ViewRadius:   config.GetViewRadius(),
		LODDistances: r.LODDistances,
		MeshWorkers:  r.Workers,
		MeshQueue:    256,
		Ignore:       []world.BlockType{world.BlockTypeFlower},
		Width:        800,
		Height:       600,
	}
}

// StepStats summarises one writer step.
type StepStats struct {
	Added   int
	Evicted int
	Queued  int
	Applied int
	Stale   int
	Swapped bool
	Frame   scene.FrameStats
}

type view struct {
	cam           camera.Camera
	width, height int
}

// Pipeline streams chunks around the camera, meshes them on a worker pool
// and writes the result into the back half of a scene double buffer. Step
// and Run belong to the writer goroutine; the reader uses Consumer. SetCamera,
// SetWindow and InvalidateAll may be called from any goroutine.
type Pipeline struct {
	opts  Options
	world *world.World
	pool  *meshing.WorkerPool

	producer *scene.Producer
	consumer *scene.Consumer
	halves   [2]*scene.Mesh

	mu      sync.Mutex
	next    view
	current view

	applied  map[*world.Chunk]world.LOD
	inflight map[*world.Chunk]world.LOD
	resync   bool // back is behind front after a swap
}

// New builds a pipeline over w. Both buffer halves start empty.
func New(w *world.World, opts Options) *Pipeline {
	front := scene.NewMesh(opts.Scene)
	back := front.Clone()
	producer, consumer := scene.NewDoubleBuffer(front, back)
	return &Pipeline{
		opts:     opts,
		world:    w,
		pool:     meshing.NewWorkerPool(opts.MeshWorkers, opts.MeshQueue, opts.Ignore...),
		producer: producer,
		consumer: consumer,
		halves:   [2]*scene.Mesh{front, back},
		next:     view{width: opts.Width, height: opts.Height},
		applied:  make(map[*world.Chunk]world.LOD),
		inflight: make(map[*world.Chunk]world.LOD),
	}
}

// Consumer returns the reading side of the scene buffer.
func (p *Pipeline) Consumer() *scene.Consumer {
	return p.consumer
}

// World returns the streamed world.
func (p *Pipeline) World() *world.World {
	return p.world
}

// SetCamera sets the camera used by the next frame.
func (p *Pipeline) SetCamera(cam camera.Camera) {
	p.mu.Lock()
	p.next.cam = cam
	p.mu.Unlock()
}

// Camera returns the camera the next frame will use.
func (p *Pipeline) Camera() camera.Camera {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next.cam
}

// SetWindow sets the output size used by the next frame.
func (p *Pipeline) SetWindow(width, height int) {
	p.mu.Lock()
	p.next.width, p.next.height = width, height
	p.mu.Unlock()
}

// InvalidateAll marks every loaded chunk dirty so it is meshed again.
func (p *Pipeline) InvalidateAll() {
	for _, c := range p.world.Store().AllChunks() {
		c.MarkDirty()
	}
}

// Step runs one writer iteration: wait for the last swap to be adopted,
// bring the back half up to date, stream and mesh chunks, then run the frame
// pass and request a swap if anything changed.
func (p *Pipeline) Step(ctx context.Context) (StepStats, error) {
	defer profiling.Track("pipeline.Step")()
	var st StepStats

	if err := p.producer.Wait(ctx); err != nil {
		return st, err
	}
	back := p.producer.Back()
	if p.resync {
		back.CopyFrom(p.producer.Front())
		p.resync = false
	}

	p.mu.Lock()
	v := p.next
	p.mu.Unlock()
	if v != p.current {
		back.Mutated(true)
		p.current = v
	}

	added, evicted := p.world.StreamAround(v.cam.Position, p.opts.ViewRadius)
	st.Added, st.Evicted = len(added), len(evicted)
	for _, c := range evicted {
		delete(p.applied, c)
		delete(p.inflight, c)
		if err := meshing.Unload(c, back); err != nil {
			return st, err
		}
	}

	st.Queued = p.schedule(v.cam)
	if err := p.drain(back, &st); err != nil {
		return st, err
	}

	if !back.WasMutated() {
		return st, nil
	}
	frame, err := back.CheckRemesh(scene.NewFrameParams(v.width, v.height, v.cam))
	if err != nil {
		return st, err
	}
	st.Frame = frame
	if err := p.producer.Swap(); err != nil {
		return st, err
	}
	st.Swapped = true
	p.resync = true
	return st, nil
}

// schedule submits a job for every chunk whose wanted level differs from what
// the buffer holds, or whose tiles changed. It stops when the queue is full.
func (p *Pipeline) schedule(cam camera.Camera) int {
	queued := 0
	for _, c := range p.world.Store().AllChunks() {
		lod := meshing.SelectLOD(c.Bounds().Center().Sub(cam.Position).Len(), p.opts.LODDistances)
		if l, ok := p.inflight[c]; ok && l == lod {
			continue
		}
		if l, ok := p.applied[c]; ok && l == lod && !c.IsDirty() {
			continue
		}
		if !p.pool.SubmitJob(meshing.MeshJob{Chunk: c, LOD: lod, Priority: int(lod)}) {
			break
		}
		p.inflight[c] = lod
		queued++
	}
	return queued
}

// drain applies every finished mesh without blocking.
func (p *Pipeline) drain(back *scene.Mesh, st *StepStats) error {
	for {
		select {
		case res := <-p.pool.Results():
			c := res.Job.Chunk
			if p.inflight[c] == res.Job.LOD {
				delete(p.inflight, c)
			}
			if p.world.Store().GetChunk(c.X, c.Y, c.Z, false) != c {
				continue // evicted while meshing
			}
			if !res.Store() {
				st.Stale++
				continue
			}
			// recorded even on failure so a chunk that cannot fit is not retried every step
			p.applied[c] = res.Job.LOD
			if err := meshing.Apply(c, back, res.Mesh, res.Job.Priority); err != nil {
				return err
			}
			st.Applied++
		default:
			return nil
		}
	}
}

// Run calls Step until ctx is done, idling for interval when a step had
// nothing to do. Capacity errors are logged and the loop goes on with the
// chunks that fit. A window the bin table cannot hold skips frames until the
// window changes; any other error stops the loop.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var lastWin scene.WindowError
	for {
		st, err := p.Step(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		var capErr *scene.CapacityError
		var winErr *scene.WindowError
		switch {
		case errors.As(err, &capErr):
			logging.Warn("scene buffer full: %v", err)
			continue
		case errors.As(err, &winErr):
			if *winErr != lastWin {
				logging.Warn("skipping frames: %v", err)
				lastWin = *winErr
			}
		case err != nil:
			return fmt.Errorf("pipeline step: %w", err)
		case st.Swapped:
			logging.Debug("swap: +%d -%d chunks, %d applied, %d live triangles",
				st.Added, st.Evicted, st.Applied, st.Frame.Live)
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Close stops the mesh workers and releases both buffer halves. The writer
// must have stopped.
func (p *Pipeline) Close() {
	p.pool.Shutdown()
	for _, h := range p.halves {
		h.Close()
	}
}
