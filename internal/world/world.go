package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxel-pipeline/internal/profiling"
)

// World couples a chunk store with the generator that fills it.
type World struct {
	store *ChunkStore
	gen   TerrainGenerator

	// vertical chunk range loaded for every column
	minChunkY, maxChunkY int
}

// New creates an empty world that loads chunk rows minChunkY..maxChunkY.
func New(gen TerrainGenerator, minChunkY, maxChunkY int) *World {
	return &World{
		store:     NewChunkStore(),
		gen:       gen,
		minChunkY: minChunkY,
		maxChunkY: max(minChunkY, maxChunkY),
	}
}

// HeightAt returns the generated surface height at world (x, z).
func (w *World) HeightAt(x, z int) int {
	return w.gen.HeightAt(x, z)
}

// SetBlock writes a tile at world coordinates if its chunk is loaded and
// returns the changed chunk, or nil when nothing was written.
func (w *World) SetBlock(x, y, z int, b BlockType) *Chunk {
	if w.store.GetChunkFromBlockCoords(x, y, z, false) == nil {
		return nil
	}
	return w.store.Set(x, y, z, b)
}

// Store returns the underlying chunk store.
func (w *World) Store() *ChunkStore {
	return w.store
}

// ChunkAt returns the chunk coordinate containing a world-space point.
func ChunkAt(p mgl32.Vec3) ChunkCoord {
	return ChunkCoord{
		X: floorDiv(int(floor32(p.X())), ChunkSize),
		Y: floorDiv(int(floor32(p.Y())), ChunkSize),
		Z: floorDiv(int(floor32(p.Z())), ChunkSize),
	}
}

func floor32(v float32) float32 {
	i := float32(int(v))
	if i > v {
		i--
	}
	return i
}

// LoadAround generates every missing chunk within radius (in chunks, XZ
// distance) of (cx,cz) and returns the newly loaded ones sorted by coordinate.
func (w *World) LoadAround(cx, cz, radius int) []*Chunk {
	defer profiling.Track("world.LoadAround")()
	var added []*Chunk
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			if dx*dx+dz*dz > radius*radius {
				continue
			}
			for y := w.minChunkY; y <= w.maxChunkY; y++ {
				coord := ChunkCoord{X: cx + dx, Y: y, Z: cz + dz}
				if w.store.HasChunk(coord) {
					continue
				}
				c := NewChunk(coord.X, coord.Y, coord.Z)
				w.gen.PopulateChunk(c)
				if w.store.AddChunk(c) {
					added = append(added, c)
				}
			}
		}
	}
	sortChunks(added)
	return added
}

// StreamAround loads chunks within radius of the given world position and
// evicts those beyond it. The evicted chunks still carry their scene index.
func (w *World) StreamAround(pos mgl32.Vec3, radius int) (added, evicted []*Chunk) {
	center := ChunkAt(pos)
	evicted = w.store.EvictFarChunks(center.X, center.Z, radius)
	added = w.LoadAround(center.X, center.Z, radius)
	return added, evicted
}
