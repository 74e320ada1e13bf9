package world

import (
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"voxel-pipeline/internal/geometry"
)

// ChunkSize is the edge length of a chunk in tiles.
const ChunkSize = 16

// Tiles is a chunk's block grid indexed [x][y][z].
type Tiles [ChunkSize][ChunkSize][ChunkSize]BlockType

// LOD selects one of the five mesh resolutions. The zero value is the finest.
type LOD uint8

const (
	LOD16 LOD = iota // 16 regions per axis, one tile each
	LOD8
	LOD4
	LOD2
	LOD1 // the whole chunk as one region
	LODCount
)

// Scale returns the number of regions per axis at l.
func (l LOD) Scale() int {
	return ChunkSize >> l
}

// RegionSize returns the edge length of one region in tiles.
func (l LOD) RegionSize() int {
	return ChunkSize / l.Scale()
}

func (l LOD) String() string {
	switch l {
	case LOD16:
		return "lod16"
	case LOD8:
		return "lod8"
	case LOD4:
		return "lod4"
	case LOD2:
		return "lod2"
	case LOD1:
		return "lod1"
	}
	return "lod?"
}

// ChunkCoord addresses a chunk in chunk units.
type ChunkCoord struct {
	X, Y, Z int
}

// Chunk is a 16x16x16 block of tiles together with its cached LOD meshes.
//
// Index is the chunk's slot in the scene buffer, -1 while unregistered. It is
// assigned by the owner of the buffer and never touched by the chunk itself.
type Chunk struct {
	X, Y, Z int
	Index   int

	mu      sync.RWMutex
	tiles   Tiles
	lods    [LODCount]cachedMesh
	version uint64
	dirty   bool
}

// cachedMesh is one LOD cache entry together with the ignore set it was
// built with.
type cachedMesh struct {
	mesh   *geometry.Mesh
	ignore []BlockType
}

// ignoreKey returns ignore sorted without duplicates so sets compare equal
// regardless of argument order.
func ignoreKey(ignore []BlockType) []BlockType {
	key := slices.Clone(ignore)
	slices.Sort(key)
	return slices.Compact(key)
}

// NewChunk creates an empty chunk at the given chunk coordinates. New chunks
// start dirty so the first remesh always builds.
func NewChunk(x, y, z int) *Chunk {
	return &Chunk{
		X:     x,
		Y:     y,
		Z:     z,
		Index: -1,
		dirty: true,
	}
}

// Coord returns the chunk's coordinates.
func (c *Chunk) Coord() ChunkCoord {
	return ChunkCoord{X: c.X, Y: c.Y, Z: c.Z}
}

// Position returns the world-space origin (min corner) of the chunk.
func (c *Chunk) Position() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(c.X * ChunkSize),
		float32(c.Y * ChunkSize),
		float32(c.Z * ChunkSize),
	}
}

// Bounds returns the chunk's world-space box.
func (c *Chunk) Bounds() geometry.Bounds {
	return geometry.Bounds{
		Origin: c.Position(),
		Extent: mgl32.Vec3{ChunkSize, ChunkSize, ChunkSize},
	}
}

func inChunk(x, y, z int) bool {
	return x >= 0 && x < ChunkSize && y >= 0 && y < ChunkSize && z >= 0 && z < ChunkSize
}

// GetBlock returns the tile at local coordinates, air outside the chunk.
func (c *Chunk) GetBlock(x, y, z int) BlockType {
	if !inChunk(x, y, z) {
		return BlockTypeAir
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tiles[x][y][z]
}

// SetBlock writes a tile at local coordinates. A change marks the chunk dirty
// and drops every cached mesh. Writes outside the chunk are ignored.
func (c *Chunk) SetBlock(x, y, z int, b BlockType) {
	if !inChunk(x, y, z) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tiles[x][y][z] == b {
		return
	}
	c.tiles[x][y][z] = b
	c.invalidateLocked()
}

// Edit runs fn against the tile grid under the write lock and treats the
// chunk as modified afterwards. Used for bulk writes such as generation.
func (c *Chunk) Edit(fn func(t *Tiles)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.tiles)
	c.invalidateLocked()
}

func (c *Chunk) invalidateLocked() {
	c.version++
	c.dirty = true
	c.lods = [LODCount]cachedMesh{}
}

// IsAir reports whether the tile at local coordinates is empty.
func (c *Chunk) IsAir(x, y, z int) bool {
	return !c.GetBlock(x, y, z).IsSolid()
}

// Snapshot copies the tile grid and returns it with the version it was taken
// at, so meshing can run without holding the chunk lock.
func (c *Chunk) Snapshot() (Tiles, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tiles, c.version
}

// IsDirty reports whether the tiles changed since the last stored mesh.
func (c *Chunk) IsDirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// MarkDirty forces the next remesh to rebuild.
func (c *Chunk) MarkDirty() {
	c.mu.Lock()
	c.invalidateLocked()
	c.mu.Unlock()
}

// SetClean clears the dirty flag.
func (c *Chunk) SetClean() {
	c.mu.Lock()
	c.dirty = false
	c.mu.Unlock()
}

// CachedMesh returns the stored mesh for l, or nil when it must be rebuilt.
// A mesh built with a different ignore set is a miss.
func (c *Chunk) CachedMesh(l LOD, ignore ...BlockType) *geometry.Mesh {
	if l >= LODCount {
		return nil
	}
	key := ignoreKey(ignore)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.dirty {
		return nil
	}
	entry := c.lods[l]
	if !slices.Equal(entry.ignore, key) {
		return nil
	}
	return entry.mesh
}

// StoreMesh caches m for l, built with the given ignore set, if the tiles are
// still at version. It reports whether the mesh was stored; a stale mesh is
// discarded and the chunk stays dirty. Storing clears the dirty flag since
// edits drop all other levels.
func (c *Chunk) StoreMesh(l LOD, m *geometry.Mesh, version uint64, ignore ...BlockType) bool {
	if l >= LODCount {
		return false
	}
	key := ignoreKey(ignore)
	c.mu.Lock()
	defer c.mu.Unlock()
	if version != c.version {
		return false
	}
	c.lods[l] = cachedMesh{mesh: m, ignore: key}
	c.dirty = false
	return true
}
