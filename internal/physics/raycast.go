package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"voxel-pipeline/internal/profiling"
	"voxel-pipeline/internal/world"
)

const (
	MinReachDistance = 0.1
	MaxReachDistance = 8.0

	stepSize = float32(0.02)
)

// TileSource answers tile lookups in world coordinates.
type TileSource interface {
	Get(x, y, z int) world.BlockType
}

// RaycastResult stores the result of a raycast operation
type RaycastResult struct {
	HitPosition      [3]int
	AdjacentPosition [3]int // last empty tile before the hit
	Distance         float32
	Hit              bool
}

// TileAt returns the tile containing p. Tile (x,y,z) spans [x,x+1) on
// every axis.
func TileAt(p mgl32.Vec3) [3]int {
	return [3]int{
		int(math32.Floor(p.X())),
		int(math32.Floor(p.Y())),
		int(math32.Floor(p.Z())),
	}
}

// Raycast marches from start along direction (unit length) in fixed steps
// and reports the first solid tile between minDist and maxDist.
func Raycast(start, direction mgl32.Vec3, minDist, maxDist float32, tiles TileSource) RaycastResult {
	defer profiling.Track("physics.Raycast")()
	steps := int(maxDist / stepSize)

	lastEmpty := TileAt(start)
	for i := 0; i <= steps; i++ {
		dist := float32(i) * stepSize
		if dist < minDist {
			continue
		}

		p := TileAt(start.Add(direction.Mul(dist)))
		if tiles.Get(p[0], p[1], p[2]).IsSolid() {
			return RaycastResult{
				HitPosition:      p,
				AdjacentPosition: lastEmpty,
				Distance:         dist,
				Hit:              true,
			}
		}
		lastEmpty = p
	}
	return RaycastResult{}
}
