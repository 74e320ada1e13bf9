package meshing

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxel-pipeline/internal/geometry"
	"voxel-pipeline/internal/profiling"
	"voxel-pipeline/internal/world"
)

// BuildLOD meshes tiles at the given level. origin is the chunk's world-space
// min corner; the returned mesh is in world space with chunk-local indices.
//
// Every region whose mode is solid gets one quad per side whose neighbour
// region at the same level is empty. Sides on the chunk boundary are always
// emitted.
func BuildLOD(t *world.Tiles, origin mgl32.Vec3, lod world.LOD, ignore ...world.BlockType) *geometry.Mesh {
	defer profiling.Track("meshing.BuildLOD")()

	scale := lod.Scale()
	size := float32(lod.RegionSize())
	regions := Regions(t, lod, ignore...)
	at := func(x, y, z int) world.BlockType {
		if x < 0 || x >= scale || y < 0 || y >= scale || z < 0 || z >= scale {
			return world.BlockTypeAir
		}
		return regions[(x*scale+y)*scale+z]
	}

	m := &geometry.Mesh{}
	for x := range scale {
		for y := range scale {
			for z := range scale {
				if !at(x, y, z).IsSolid() {
					continue
				}
				min := origin.Add(mgl32.Vec3{float32(x) * size, float32(y) * size, float32(z) * size})
				max := min.Add(mgl32.Vec3{size, size, size})
				for d := range geometry.DirectionCount {
					dx, dy, dz := d.Offset()
					if at(x+dx, y+dy, z+dz).IsSolid() {
						continue
					}
					m.AppendQuad(min, max, d)
				}
			}
		}
	}
	return m
}

// BuildAllLODs builds every level from one snapshot of c and stores the
// results in its cache. A level is rebuilt only when it is not cached for
// the same ignore set.
func BuildAllLODs(c *world.Chunk, ignore ...world.BlockType) [world.LODCount]*geometry.Mesh {
	var out [world.LODCount]*geometry.Mesh
	var tiles world.Tiles
	var version uint64
	snapped := false
	for l := range world.LODCount {
		if m := c.CachedMesh(l, ignore...); m != nil {
			out[l] = m
			continue
		}
		if !snapped {
			tiles, version = c.Snapshot()
			snapped = true
		}
		out[l] = BuildLOD(&tiles, c.Position(), l, ignore...)
		c.StoreMesh(l, out[l], version, ignore...)
	}
	return out
}

// ChunkMesh returns c's mesh at lod, building and caching it if the chunk is
// dirty or the level was never built with this ignore set.
func ChunkMesh(c *world.Chunk, lod world.LOD, ignore ...world.BlockType) *geometry.Mesh {
	if m := c.CachedMesh(lod, ignore...); m != nil {
		return m
	}
	tiles, version := c.Snapshot()
	m := BuildLOD(&tiles, c.Position(), lod, ignore...)
	c.StoreMesh(lod, m, version, ignore...)
	return m
}

// SelectLOD picks a level from the camera distance. thresholds[i] is the
// distance up to which level i is used; beyond the last the coarsest level
// applies.
func SelectLOD(distance float32, thresholds [world.LODCount - 1]float32) world.LOD {
	for i, limit := range thresholds {
		if distance <= limit {
			return world.LOD(i)
		}
	}
	return world.LOD1
}
