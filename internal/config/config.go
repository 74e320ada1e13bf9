package config

import (
	"sync"

	"golang.org/x/exp/constraints"
)

// Render holds the frame pipeline and buffer sizing settings.
type Render struct {
	FovY       float32 `toml:"fov_y"` // degrees
	Near       float32 `toml:"near"`
	Far        float32 `toml:"far"`
	NearReject float32 `toml:"near_reject"` // view-space z below which triangles are dropped

	Workers  int `toml:"workers"`
	CellSize int `toml:"cell_size"` // bin cell edge in pixels

	MaxWidth     int `toml:"max_width"`
	MaxHeight    int `toml:"max_height"`
	MaxVertices  int `toml:"max_vertices"`
	MaxTriangles int `toml:"max_triangles"`

	// LODDistances[i] is the camera distance up to which LOD i is used.
	LODDistances [4]float32 `toml:"lod_distances"`

	FPSLimit int `toml:"fps_limit"` // 0 means uncapped
}

// Settings is the full configuration as loaded from TOML.
type Settings struct {
	LogLevel string   `toml:"log_level"`
	Render   Render   `toml:"render"`
	World    WorldGen `toml:"world"`
}

// Defaults returns the built-in configuration.
func Defaults() Settings {
	return Settings{
		LogLevel: "info",
		Render: Render{
			FovY:         60,
			Near:         0.1,
			Far:          9999,
			NearReject:   0.01,
			Workers:      8,
			CellSize:     4,
			MaxWidth:     4096,
			MaxHeight:    4096,
			MaxVertices:  250000,
			MaxTriangles: 125000,
			LODDistances: [4]float32{48, 96, 192, 384},
			FPSLimit:     0,
		},
		World: defaultWorldGen(),
	}
}

var (
	mu      sync.RWMutex
	current = Defaults()
)

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sanitizeRender(r Render) Render {
	d := Defaults().Render
	r.FovY = clamp(r.FovY, 1, 179)
	if r.Near <= 0 {
		r.Near = d.Near
	}
	if r.Far <= r.Near {
		r.Far = d.Far
	}
	r.NearReject = clamp(r.NearReject, 0, r.Far)
	r.Workers = clamp(r.Workers, 1, 64)
	r.CellSize = clamp(r.CellSize, 1, 64)
	r.MaxWidth = clamp(r.MaxWidth, 1, 16384)
	r.MaxHeight = clamp(r.MaxHeight, 1, 16384)
	r.MaxVertices = max(r.MaxVertices, 0)
	r.MaxTriangles = max(r.MaxTriangles, 0)
	r.FPSLimit = clamp(r.FPSLimit, 0, 1000)
	for i := 1; i < len(r.LODDistances); i++ {
		r.LODDistances[i] = max(r.LODDistances[i], r.LODDistances[i-1])
	}
	return r
}

func sanitize(s Settings) Settings {
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	s.Render = sanitizeRender(s.Render)
	s.World = sanitizeWorldGen(s.World)
	return s
}

// Apply replaces the current settings after clamping them.
func Apply(s Settings) {
	s = sanitize(s)
	mu.Lock()
	current = s
	mu.Unlock()
}

// Reset restores the defaults.
func Reset() {
	Apply(Defaults())
}

// Snapshot returns a consistent copy of every setting.
func Snapshot() Settings {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// GetRender returns the render settings.
func GetRender() Render {
	mu.RLock()
	defer mu.RUnlock()
	return current.Render
}

// GetWorkers returns the frame pipeline worker count.
func GetWorkers() int {
	mu.RLock()
	defer mu.RUnlock()
	return current.Render.Workers
}

// SetWorkers sets the worker count, clamped to 1..64.
func SetWorkers(n int) {
	mu.Lock()
	defer mu.Unlock()
	current.Render.Workers = clamp(n, 1, 64)
}

// GetCellSize returns the bin cell edge in pixels.
func GetCellSize() int {
	mu.RLock()
	defer mu.RUnlock()
	return current.Render.CellSize
}

// SetCellSize sets the bin cell edge, clamped to 1..64.
func SetCellSize(n int) {
	mu.Lock()
	defer mu.Unlock()
	current.Render.CellSize = clamp(n, 1, 64)
}

// GetLODDistances returns the LOD selection thresholds.
func GetLODDistances() [4]float32 {
	mu.RLock()
	defer mu.RUnlock()
	return current.Render.LODDistances
}

// GetFPSLimit returns the presentation frame cap, 0 when uncapped.
func GetFPSLimit() int {
	mu.RLock()
	defer mu.RUnlock()
	return current.Render.FPSLimit
}

// SetFPSLimit sets the frame cap, clamped to 0..1000.
func SetFPSLimit(n int) {
	mu.Lock()
	defer mu.Unlock()
	current.Render.FPSLimit = clamp(n, 0, 1000)
}

// GetLogLevel returns the configured log level name.
func GetLogLevel() string {
	mu.RLock()
	defer mu.RUnlock()
	return current.LogLevel
}

// SetLogLevel sets the log level name.
func SetLogLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	current.LogLevel = level
}
