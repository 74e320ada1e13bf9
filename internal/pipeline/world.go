package pipeline

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxel-pipeline/internal/camera"
	"voxel-pipeline/internal/config"
	"voxel-pipeline/internal/world"
)

// NewWorld builds the world described by the generation settings.
func NewWorld(wg config.WorldGen) *world.World {
	var gen world.TerrainGenerator
	if wg.FlatHeight > 0 {
		gen = world.NewFlatGenerator(wg.FlatHeight)
	} else {
		gen = world.NewGenerator(wg.Seed)
	}
	return world.New(gen, wg.MinChunkY, wg.MaxChunkY)
}

// Spawn returns a camera hovering above the surface at world (x, z),
// pitched slightly down.
func Spawn(w *world.World, x, z float32) camera.Camera {
	h := w.HeightAt(int(x), int(z))
	return camera.New(mgl32.Vec3{x, float32(h) + 12, z}, mgl32.Vec3{-0.35, 0, 0})
}

// Move translates cam by local (right, up, forward) amounts. Horizontal
// motion follows the camera's yaw and ignores its pitch.
func Move(cam *camera.Camera, right, up, forward float32) {
	d := camera.Rotate(mgl32.Vec3{right, 0, forward}, mgl32.Vec3{0, -cam.Rotation.Y(), 0})
	cam.Translate(mgl32.Vec3{d.X(), up, d.Z()})
}
