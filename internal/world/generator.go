package world

import "math"

// TerrainGenerator fills chunks with tiles.
type TerrainGenerator interface {
	HeightAt(worldX, worldZ int) int
	PopulateChunk(c *Chunk)
}

// Generator produces a value-noise heightmap: stone below, a few layers of
// dirt, grass on top, sand near sea level and bedrock at y=0.
type Generator struct {
	seed        int64
	scale       float64
	baseHeight  int
	amp         float64
	octaves     int
	persistence float64
	lacunarity  float64
	seaLevel    int
	dirtDepth   int
}

// NewGenerator creates a generator with default settings for the given seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		seed:        seed,
		scale:       1.0 / 48.0,
		baseHeight:  8,
		amp:         24,
		octaves:     4,
		persistence: 0.5,
		lacunarity:  2.0,
		seaLevel:    12,
		dirtDepth:   3,
	}
}

// HeightAt returns the world surface height (tile Y) at world X,Z.
func (g *Generator) HeightAt(worldX, worldZ int) int {
	n := octaveNoise2D(float64(worldX)*g.scale, float64(worldZ)*g.scale, g.seed, g.octaves, g.persistence, g.lacunarity)
	height := float64(g.baseHeight) + n*g.amp
	return max(int(math.Floor(height)), 0)
}

func (g *Generator) blockAt(worldY, height int) BlockType {
	switch {
	case worldY > height:
		return BlockTypeAir
	case worldY == 0:
		return BlockTypeBedrock
	case worldY == height && height <= g.seaLevel:
		return BlockTypeSand
	case worldY == height:
		return BlockTypeGrass
	case worldY > height-g.dirtDepth:
		return BlockTypeDirt
	default:
		return BlockTypeStone
	}
}

// PopulateChunk fills c from the heightmap. Chunks below y=0 stay empty.
func (g *Generator) PopulateChunk(c *Chunk) {
	baseX, baseY, baseZ := c.X*ChunkSize, c.Y*ChunkSize, c.Z*ChunkSize
	c.Edit(func(t *Tiles) {
		for lx := range ChunkSize {
			for lz := range ChunkSize {
				height := g.HeightAt(baseX+lx, baseZ+lz)
				for ly := range ChunkSize {
					wy := baseY + ly
					if wy < 0 {
						t[lx][ly][lz] = BlockTypeAir
						continue
					}
					t[lx][ly][lz] = g.blockAt(wy, height)
				}
			}
		}
	})
}

// FlatGenerator fills every column up to a fixed height.
type FlatGenerator struct {
	height int
}

// NewFlatGenerator creates a flat generator whose surface sits at height.
func NewFlatGenerator(height int) *FlatGenerator {
	return &FlatGenerator{height: height}
}

// HeightAt returns the fixed surface height.
func (g *FlatGenerator) HeightAt(int, int) int {
	return g.height
}

// PopulateChunk fills bedrock at y=0, dirt below the surface and grass on it.
func (g *FlatGenerator) PopulateChunk(c *Chunk) {
	baseY := c.Y * ChunkSize
	c.Edit(func(t *Tiles) {
		for ly := range ChunkSize {
			wy := baseY + ly
			var b BlockType
			switch {
			case wy < 0 || wy > g.height:
				b = BlockTypeAir
			case wy == 0:
				b = BlockTypeBedrock
			case wy == g.height:
				b = BlockTypeGrass
			default:
				b = BlockTypeDirt
			}
			for lx := range ChunkSize {
				for lz := range ChunkSize {
					t[lx][ly][lz] = b
				}
			}
		}
	})
}
