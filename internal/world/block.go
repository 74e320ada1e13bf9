package world

// BlockType is a tile id. Zero is empty space; every other id is solid.
type BlockType uint32

const (
	BlockTypeAir BlockType = iota
	BlockTypeStone
	BlockTypeDirt
	BlockTypeGrass
	BlockTypeSand
	BlockTypeBedrock
	BlockTypeFlower
)

var blockNames = map[BlockType]string{
	BlockTypeAir:     "air",
	BlockTypeStone:   "stone",
	BlockTypeDirt:    "dirt",
	BlockTypeGrass:   "grass",
	BlockTypeSand:    "sand",
	BlockTypeBedrock: "bedrock",
	BlockTypeFlower:  "flower",
}

// IsSolid reports whether the tile occupies its cell.
func (b BlockType) IsSolid() bool {
	return b != BlockTypeAir
}

func (b BlockType) String() string {
	if name, ok := blockNames[b]; ok {
		return name
	}
	return "unknown"
}
