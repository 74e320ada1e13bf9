package config

// WorldGen holds world generation and streaming configuration.
type WorldGen struct {
	Seed       int64 `toml:"seed"`
	FlatHeight int   `toml:"flat_height"` // >0 selects the flat generator
	ViewRadius int   `toml:"view_radius"` // in chunks
	MinChunkY  int   `toml:"min_chunk_y"`
	MaxChunkY  int   `toml:"max_chunk_y"`
}

func defaultWorldGen() WorldGen {
	return WorldGen{
		Seed:       1,
		ViewRadius: 4,
		MinChunkY:  0,
		MaxChunkY:  2,
	}
}

func sanitizeWorldGen(w WorldGen) WorldGen {
	w.FlatHeight = max(w.FlatHeight, 0)
	w.ViewRadius = clamp(w.ViewRadius, 1, 32)
	w.MaxChunkY = max(w.MaxChunkY, w.MinChunkY)
	return w
}

// GetWorldGen returns the world generation settings.
func GetWorldGen() WorldGen {
	mu.RLock()
	defer mu.RUnlock()
	return current.World
}

// GetViewRadius returns the chunk streaming radius.
func GetViewRadius() int {
	mu.RLock()
	defer mu.RUnlock()
	return current.World.ViewRadius
}

// SetViewRadius sets the chunk streaming radius, clamped to 1..32.
func SetViewRadius(r int) {
	mu.Lock()
	defer mu.Unlock()
	current.World.ViewRadius = clamp(r, 1, 32)
}
