package world

import (
	"cmp"
	"slices"
	"sync"

	"voxel-pipeline/internal/profiling"
)

// ChunkStore manages the storage and retrieval of chunks.
type ChunkStore struct {
	chunks   map[ChunkCoord]*Chunk
	mu       sync.RWMutex
	modCount uint64 // bumped on every add/remove
}

// NewChunkStore creates an empty chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[ChunkCoord]*Chunk),
	}
}

// GetChunk returns the chunk at the given chunk coordinates. If it does not
// exist and create is true an empty one is created (not populated).
func (cs *ChunkStore) GetChunk(chunkX, chunkY, chunkZ int, create bool) *Chunk {
	coord := ChunkCoord{X: chunkX, Y: chunkY, Z: chunkZ}
	cs.mu.RLock()
	chunk, exists := cs.chunks[coord]
	cs.mu.RUnlock()
	if exists || !create {
		return chunk
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	// another goroutine may have created it while we waited
	if existing, ok := cs.chunks[coord]; ok {
		return existing
	}
	chunk = NewChunk(chunkX, chunkY, chunkZ)
	cs.chunks[coord] = chunk
	cs.modCount++
	return chunk
}

// GetChunkFromBlockCoords returns the chunk containing the world tile (x,y,z).
func (cs *ChunkStore) GetChunkFromBlockCoords(x, y, z int, create bool) *Chunk {
	return cs.GetChunk(floorDiv(x, ChunkSize), floorDiv(y, ChunkSize), floorDiv(z, ChunkSize), create)
}

// Get returns the tile at world coordinates, air where no chunk is loaded.
func (cs *ChunkStore) Get(x, y, z int) BlockType {
	chunk := cs.GetChunkFromBlockCoords(x, y, z, false)
	if chunk == nil {
		return BlockTypeAir
	}
	return chunk.GetBlock(mod(x, ChunkSize), mod(y, ChunkSize), mod(z, ChunkSize))
}

// Set writes a tile at world coordinates, creating the chunk if needed, and
// returns the chunk that changed. Neighbouring chunks are not touched: chunk
// boundaries are always meshed as exposed.
func (cs *ChunkStore) Set(x, y, z int, val BlockType) *Chunk {
	chunk := cs.GetChunkFromBlockCoords(x, y, z, true)
	chunk.SetBlock(mod(x, ChunkSize), mod(y, ChunkSize), mod(z, ChunkSize), val)
	return chunk
}

// AddChunk inserts a pre-generated chunk. It reports false if the coordinate
// is already occupied.
func (cs *ChunkStore) AddChunk(chunk *Chunk) bool {
	coord := chunk.Coord()
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.chunks[coord]; ok {
		return false
	}
	cs.chunks[coord] = chunk
	cs.modCount++
	return true
}

// HasChunk checks if a chunk exists without creating it.
func (cs *ChunkStore) HasChunk(coord ChunkCoord) bool {
	cs.mu.RLock()
	_, exists := cs.chunks[coord]
	cs.mu.RUnlock()
	return exists
}

// RemoveChunk unloads the chunk at coord and returns it, nil if absent. The
// caller releases its scene slot.
func (cs *ChunkStore) RemoveChunk(coord ChunkCoord) *Chunk {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	chunk, ok := cs.chunks[coord]
	if !ok {
		return nil
	}
	delete(cs.chunks, coord)
	cs.modCount++
	return chunk
}

// EvictFarChunks removes chunks whose XZ distance (in chunks) from (cx,cz)
// exceeds radius and returns them sorted by coordinate.
func (cs *ChunkStore) EvictFarChunks(cx, cz, radius int) []*Chunk {
	defer profiling.Track("world.EvictFarChunks")()
	var removed []*Chunk
	cs.mu.Lock()
	for coord, chunk := range cs.chunks {
		dx := coord.X - cx
		dz := coord.Z - cz
		if dx*dx+dz*dz > radius*radius {
			delete(cs.chunks, coord)
			cs.modCount++
			removed = append(removed, chunk)
		}
	}
	cs.mu.Unlock()
	sortChunks(removed)
	return removed
}

// AllChunks returns every loaded chunk sorted by coordinate.
func (cs *ChunkStore) AllChunks() []*Chunk {
	cs.mu.RLock()
	out := make([]*Chunk, 0, len(cs.chunks))
	for _, chunk := range cs.chunks {
		out = append(out, chunk)
	}
	cs.mu.RUnlock()
	sortChunks(out)
	return out
}

// DirtyChunks returns the loaded chunks whose tiles changed since their last
// stored mesh, sorted by coordinate.
func (cs *ChunkStore) DirtyChunks() []*Chunk {
	all := cs.AllChunks()
	return slices.DeleteFunc(all, func(c *Chunk) bool { return !c.IsDirty() })
}

// Len returns the number of loaded chunks.
func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// GetModCount returns the current modification count of the chunk map.
func (cs *ChunkStore) GetModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}

func sortChunks(list []*Chunk) {
	slices.SortFunc(list, func(a, b *Chunk) int {
		return cmp.Or(cmp.Compare(a.Y, b.Y), cmp.Compare(a.Z, b.Z), cmp.Compare(a.X, b.X))
	})
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
