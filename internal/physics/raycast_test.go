package physics_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxel-pipeline/internal/physics"
	"voxel-pipeline/internal/world"
)

func TestRaycast(t *testing.T) {
	s := world.NewChunkStore()
	s.Set(5, 0, 0, world.BlockTypeStone)

	start := mgl32.Vec3{0.5, 0.5, 0.5}
	dir := mgl32.Vec3{1, 0, 0}

	res := physics.Raycast(start, dir, 0.1, 10, s)
	require.True(t, res.Hit)
	assert.Equal(t, [3]int{5, 0, 0}, res.HitPosition)
	assert.Equal(t, [3]int{4, 0, 0}, res.AdjacentPosition)
	// the ray enters x=5 after 4.5 units
	assert.InDelta(t, 4.5, res.Distance, 0.03)

	assert.False(t, physics.Raycast(start, dir, 0.1, 4, s).Hit, "out of reach")
	assert.False(t, physics.Raycast(start, mgl32.Vec3{0, 1, 0}, 0.1, 10, s).Hit)

	s.Set(2, 2, 2, world.BlockTypeStone)
	diag := physics.Raycast(start, mgl32.Vec3{1, 1, 1}.Normalize(), 0.1, 10, s)
	require.True(t, diag.Hit)
	assert.Equal(t, [3]int{2, 2, 2}, diag.HitPosition)
}

func TestRaycastNegativeCoords(t *testing.T) {
	s := world.NewChunkStore()
	s.Set(-3, -1, 0, world.BlockTypeDirt)

	res := physics.Raycast(mgl32.Vec3{0.5, -0.5, 0.5}, mgl32.Vec3{-1, 0, 0}, 0, 10, s)
	require.True(t, res.Hit)
	assert.Equal(t, [3]int{-3, -1, 0}, res.HitPosition)
	assert.Equal(t, [3]int{-2, -1, 0}, res.AdjacentPosition)
}

func TestTileAt(t *testing.T) {
	assert.Equal(t, [3]int{-1, 0, 15}, physics.TileAt(mgl32.Vec3{-0.01, 0.99, 15}))
}

func BenchmarkRaycast(b *testing.B) {
	s := world.NewChunkStore()
	s.Set(0, 0, 7, world.BlockTypeStone)
	start := mgl32.Vec3{0.5, 0.5, 0.5}
	dir := mgl32.Vec3{0, 0, 1}
	for range b.N {
		physics.Raycast(start, dir, physics.MinReachDistance, physics.MaxReachDistance, s)
	}
}
