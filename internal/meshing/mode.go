package meshing

import (
	"slices"

	"voxel-pipeline/internal/world"
)

// Mode returns the most frequent id in region, skipping ids listed in ignore.
// Ties resolve to the lowest id. An empty region, or one where every id is
// ignored, yields air. region is not modified.
func Mode(region []world.BlockType, ignore ...world.BlockType) world.BlockType {
	return modeInPlace(slices.Clone(region), ignore)
}

// modeInPlace is Mode over a scratch buffer it is free to reorder.
func modeInPlace(buf []world.BlockType, ignore []world.BlockType) world.BlockType {
	if len(ignore) > 0 {
		buf = slices.DeleteFunc(buf, func(b world.BlockType) bool {
			return slices.Contains(ignore, b)
		})
	}
	switch len(buf) {
	case 0:
		return world.BlockTypeAir
	case 1:
		return buf[0]
	}

	slices.Sort(buf)
	best, bestN := world.BlockTypeAir, 0
	for i := 0; i < len(buf); {
		j := i + 1
		for j < len(buf) && buf[j] == buf[i] {
			j++
		}
		// ascending scan: strict > keeps the lowest id on ties
		if j-i > bestN {
			best, bestN = buf[i], j-i
		}
		i = j
	}
	return best
}

// Regions downsamples tiles to the region grid of lod. The result is flat,
// scale³ long, indexed (x*scale+y)*scale+z.
func Regions(t *world.Tiles, lod world.LOD, ignore ...world.BlockType) []world.BlockType {
	scale := lod.Scale()
	size := lod.RegionSize()
	out := make([]world.BlockType, scale*scale*scale)
	scratch := make([]world.BlockType, 0, size*size*size)

	for rx := range scale {
		for ry := range scale {
			for rz := range scale {
				scratch = scratch[:0]
				for x := rx * size; x < (rx+1)*size; x++ {
					for y := ry * size; y < (ry+1)*size; y++ {
						scratch = append(scratch, t[x][y][rz*size:(rz+1)*size]...)
					}
				}
				out[(rx*scale+ry)*scale+rz] = modeInPlace(scratch, ignore)
			}
		}
	}
	return out
}
