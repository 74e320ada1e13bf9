package meshing

import (
	"fmt"

	"voxel-pipeline/internal/geometry"
	"voxel-pipeline/internal/scene"
	"voxel-pipeline/internal/world"
)

// RemeshChunk replaces c's geometry in buf with its mesh at lod, tagged with
// priority. A chunk without a slot is registered first. The mesh comes from
// the chunk cache unless the chunk is dirty.
func RemeshChunk(c *world.Chunk, buf *scene.Mesh, lod world.LOD, priority int, ignore ...world.BlockType) error {
	return Apply(c, buf, ChunkMesh(c, lod, ignore...), priority)
}

// Apply writes an already built mesh for c into buf, replacing whatever the
// chunk had there before.
func Apply(c *world.Chunk, buf *scene.Mesh, m *geometry.Mesh, priority int) error {
	if c.Index < 0 || !buf.ChunkLive(c.Index) {
		c.Index = buf.AddChunk(c.Bounds())
	}
	if err := buf.ClearChunk(c.Index); err != nil {
		return fmt.Errorf("remesh chunk %v: %w", c.Coord(), err)
	}
	if err := buf.AppendMesh(m, priority, c.Index); err != nil {
		return fmt.Errorf("remesh chunk %v: %w", c.Coord(), err)
	}
	return nil
}

// Unload releases c's slot in buf.
func Unload(c *world.Chunk, buf *scene.Mesh) error {
	if c.Index < 0 {
		return nil
	}
	err := buf.RemoveChunk(c.Index)
	c.Index = -1
	if err != nil {
		return fmt.Errorf("unload chunk %v: %w", c.Coord(), err)
	}
	return nil
}
