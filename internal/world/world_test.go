package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxel-pipeline/internal/geometry"
)

func TestLODScales(t *testing.T) {
	want := []int{16, 8, 4, 2, 1}
	for l := range LODCount {
		assert.Equal(t, want[l], l.Scale(), l.String())
		assert.Equal(t, ChunkSize/want[l], l.RegionSize(), l.String())
	}
}

func TestChunkSetBlockMarksDirtyAndDropsCache(t *testing.T) {
	c := NewChunk(0, 0, 0)
	assert.True(t, c.IsDirty(), "new chunks start dirty")
	assert.Equal(t, -1, c.Index)

	_, ver := c.Snapshot()
	require.True(t, c.StoreMesh(LOD16, nil, ver))
	assert.False(t, c.IsDirty())

	c.SetBlock(1, 2, 3, BlockTypeStone)
	assert.True(t, c.IsDirty())
	assert.Nil(t, c.CachedMesh(LOD16))
	assert.Equal(t, BlockTypeStone, c.GetBlock(1, 2, 3))

	// same value: no change
	_, ver = c.Snapshot()
	c.StoreMesh(LOD16, nil, ver)
	c.SetBlock(1, 2, 3, BlockTypeStone)
	assert.False(t, c.IsDirty())
}

func TestChunkOutOfBounds(t *testing.T) {
	c := NewChunk(0, 0, 0)
	c.SetBlock(-1, 0, 0, BlockTypeStone)
	c.SetBlock(0, 16, 0, BlockTypeStone)
	assert.Equal(t, BlockTypeAir, c.GetBlock(-1, 0, 0))
	assert.Equal(t, BlockTypeAir, c.GetBlock(0, 16, 0))
	assert.True(t, c.IsAir(0, 0, 0))
}

func TestStoreMeshRejectsStaleVersion(t *testing.T) {
	c := NewChunk(0, 0, 0)
	_, ver := c.Snapshot()
	c.SetBlock(0, 0, 0, BlockTypeDirt)
	assert.False(t, c.StoreMesh(LOD8, nil, ver))
	assert.True(t, c.IsDirty())
}

func TestCachedMeshMatchesIgnoreSet(t *testing.T) {
	c := NewChunk(0, 0, 0)
	m := &geometry.Mesh{}
	_, ver := c.Snapshot()
	require.True(t, c.StoreMesh(LOD4, m, ver, BlockTypeFlower, BlockTypeSand))

	assert.Same(t, m, c.CachedMesh(LOD4, BlockTypeSand, BlockTypeFlower), "order does not matter")
	assert.Nil(t, c.CachedMesh(LOD4))
	assert.Nil(t, c.CachedMesh(LOD4, BlockTypeFlower))
}

func TestChunkBounds(t *testing.T) {
	c := NewChunk(1, -1, 2)
	b := c.Bounds()
	assert.Equal(t, mgl32.Vec3{16, -16, 32}, b.Origin)
	assert.Equal(t, mgl32.Vec3{16, 16, 16}, b.Extent)
}

func TestChunkStoreWorldCoords(t *testing.T) {
	cs := NewChunkStore()
	ch := cs.Set(-1, 5, 17, BlockTypeGrass)
	require.NotNil(t, ch)
	assert.Equal(t, ChunkCoord{X: -1, Y: 0, Z: 1}, ch.Coord())
	assert.Equal(t, BlockTypeGrass, ch.GetBlock(15, 5, 1))
	assert.Equal(t, BlockTypeGrass, cs.Get(-1, 5, 17))
	assert.Equal(t, BlockTypeAir, cs.Get(100, 5, 17))
	assert.Equal(t, uint64(1), cs.GetModCount())
}

func TestChunkStoreAddRemove(t *testing.T) {
	cs := NewChunkStore()
	c := NewChunk(2, 0, 3)
	require.True(t, cs.AddChunk(c))
	assert.False(t, cs.AddChunk(NewChunk(2, 0, 3)))
	assert.True(t, cs.HasChunk(ChunkCoord{X: 2, Z: 3}))

	assert.Same(t, c, cs.RemoveChunk(ChunkCoord{X: 2, Z: 3}))
	assert.Nil(t, cs.RemoveChunk(ChunkCoord{X: 2, Z: 3}))
	assert.Equal(t, 0, cs.Len())
}

func TestEvictFarChunks(t *testing.T) {
	cs := NewChunkStore()
	for x := -3; x <= 3; x++ {
		cs.GetChunk(x, 0, 0, true)
	}
	removed := cs.EvictFarChunks(0, 0, 2)
	require.Len(t, removed, 2)
	assert.Equal(t, -3, removed[0].X)
	assert.Equal(t, 3, removed[1].X)
	assert.Equal(t, 5, cs.Len())
}

func TestDirtyChunks(t *testing.T) {
	cs := NewChunkStore()
	a := cs.GetChunk(0, 0, 0, true)
	cs.GetChunk(1, 0, 0, true)
	_, ver := a.Snapshot()
	a.StoreMesh(LOD16, nil, ver)

	dirty := cs.DirtyChunks()
	require.Len(t, dirty, 1)
	assert.Equal(t, 1, dirty[0].X)
}

func TestFlatGeneratorPopulate(t *testing.T) {
	c := NewChunk(0, 0, 0)
	NewFlatGenerator(5).PopulateChunk(c)

	assert.Equal(t, BlockTypeBedrock, c.GetBlock(0, 0, 0))
	for y := 1; y < 5; y++ {
		assert.Equal(t, BlockTypeDirt, c.GetBlock(3, y, 7), "y=%d", y)
	}
	assert.Equal(t, BlockTypeGrass, c.GetBlock(15, 5, 15))
	assert.Equal(t, BlockTypeAir, c.GetBlock(0, 6, 0))
	assert.True(t, c.IsDirty())
}

func TestGeneratorDeterministic(t *testing.T) {
	a, b := NewGenerator(42), NewGenerator(42)
	ca, cb := NewChunk(3, 0, -2), NewChunk(3, 0, -2)
	a.PopulateChunk(ca)
	b.PopulateChunk(cb)
	ta, _ := ca.Snapshot()
	tb, _ := cb.Snapshot()
	assert.Equal(t, ta, tb)

	for x := -50; x < 50; x += 7 {
		h := a.HeightAt(x, x*3)
		assert.GreaterOrEqual(t, h, 8)
		assert.LessOrEqual(t, h, 32)
	}
}

func TestGeneratorColumn(t *testing.T) {
	g := NewGenerator(7)
	c := NewChunk(0, 0, 0)
	g.PopulateChunk(c)
	h := g.HeightAt(4, 9)
	if h >= ChunkSize {
		t.Skipf("surface above first chunk row: %d", h)
	}
	assert.Equal(t, BlockTypeBedrock, c.GetBlock(4, 0, 9))
	assert.True(t, c.GetBlock(4, h, 9).IsSolid())
	if h+1 < ChunkSize {
		assert.Equal(t, BlockTypeAir, c.GetBlock(4, h+1, 9))
	}
}

func TestNoiseRange(t *testing.T) {
	for i := range 200 {
		v := octaveNoise2D(float64(i)*0.37, float64(i)*-0.11, 99, 4, 0.5, 2)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.Equal(t, hash2(1, 2, 3), hash2(1, 2, 3))
	assert.NotEqual(t, hash2(1, 2, 3), hash2(2, 1, 3))
}

func TestWorldStreamAround(t *testing.T) {
	w := New(NewFlatGenerator(4), 0, 1)
	added, evicted := w.StreamAround(mgl32.Vec3{8, 8, 8}, 1)
	assert.Empty(t, evicted)
	// radius 1 disc: 5 columns, 2 rows each
	assert.Len(t, added, 10)

	added, evicted = w.StreamAround(mgl32.Vec3{8 + 16*3, 8, 8}, 1)
	assert.Len(t, added, 10)
	assert.Len(t, evicted, 10)
	assert.Equal(t, 10, w.Store().Len())
	assert.Equal(t, 4, w.HeightAt(100, -7))
}

func TestWorldSetBlockOnlyLoaded(t *testing.T) {
	w := New(NewFlatGenerator(4), 0, 0)
	w.LoadAround(0, 0, 0)

	c := w.SetBlock(3, 4, 3, BlockTypeAir)
	require.NotNil(t, c)
	assert.True(t, c.IsDirty())
	assert.Equal(t, BlockTypeAir, w.Store().Get(3, 4, 3))

	assert.Nil(t, w.SetBlock(100, 4, 3, BlockTypeStone))
	assert.Equal(t, 1, w.Store().Len(), "no chunk is created for an unloaded tile")
}

func TestChunkAt(t *testing.T) {
	assert.Equal(t, ChunkCoord{X: -1, Y: 0, Z: 2}, ChunkAt(mgl32.Vec3{-0.5, 3, 40}))
}
