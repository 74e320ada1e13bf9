package meshing

import (
	"context"
	"sync"

	"voxel-pipeline/internal/geometry"
	"voxel-pipeline/internal/world"
)

// MeshJob asks for one chunk to be meshed at one level.
type MeshJob struct {
	Chunk    *world.Chunk
	LOD      world.LOD
	Priority int
}

// MeshResult carries a built mesh back to the goroutine that owns the scene
// buffer. Version is the tile version the mesh was built from.
type MeshResult struct {
	Job     MeshJob
	Mesh    *geometry.Mesh
	Version uint64
	Ignore  []world.BlockType
	Cached  bool
}

// Store caches the mesh in its chunk. It reports false when the chunk was
// edited after the snapshot; such a result is stale and should be resubmitted.
func (r MeshResult) Store() bool {
	if r.Cached {
		return true
	}
	return r.Job.Chunk.StoreMesh(r.Job.LOD, r.Mesh, r.Version, r.Ignore...)
}

// WorkerPool builds LOD meshes on background goroutines. Results are
// delivered on Results() in completion order.
type WorkerPool struct {
	jobQueue chan MeshJob
	results  chan MeshResult
	workers  int
	ignore   []world.BlockType
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewWorkerPool starts workers goroutines with room for queueSize pending
// jobs. Tiles listed in ignore are treated as air when computing modes.
func NewWorkerPool(workers, queueSize int, ignore ...world.BlockType) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	workers = max(workers, 1)
	pool := &WorkerPool{
		jobQueue: make(chan MeshJob, queueSize),
		results:  make(chan MeshResult, queueSize),
		workers:  workers,
		ignore:   ignore,
		ctx:      ctx,
		cancel:   cancel,
	}
	for range workers {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool
}

// SubmitJob queues a job. It returns false if the queue is full.
func (p *WorkerPool) SubmitJob(job MeshJob) bool {
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false
	}
}

// SubmitJobBlocking queues a job, waiting for room. It returns the context
// error if ctx or the pool is done first.
func (p *WorkerPool) SubmitJobBlocking(ctx context.Context, job MeshJob) error {
	select {
	case p.jobQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Results returns the channel finished meshes arrive on.
func (p *WorkerPool) Results() <-chan MeshResult {
	return p.results
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobQueue:
			res := p.build(job)
			select {
			case p.results <- res:
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *WorkerPool) build(job MeshJob) MeshResult {
	if m := job.Chunk.CachedMesh(job.LOD, p.ignore...); m != nil {
		return MeshResult{Job: job, Mesh: m, Ignore: p.ignore, Cached: true}
	}
	tiles, version := job.Chunk.Snapshot()
	return MeshResult{
		Job:     job,
		Mesh:    BuildLOD(&tiles, job.Chunk.Position(), job.LOD, p.ignore...),
		Version: version,
		Ignore:  p.ignore,
	}
}

// Shutdown stops the workers and waits for them. Queued jobs are dropped.
func (p *WorkerPool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

// GetQueueLength returns the number of jobs waiting for a worker.
func (p *WorkerPool) GetQueueLength() int {
	return len(p.jobQueue)
}
