package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	assert.Equal(t, float32(60), d.Render.FovY)
	assert.Equal(t, 8, d.Render.Workers)
	assert.Equal(t, 4, d.Render.CellSize)
	assert.Equal(t, 4096, d.Render.MaxWidth)
	assert.Equal(t, 250000, d.Render.MaxVertices)
	assert.Equal(t, 125000, d.Render.MaxTriangles)
	assert.Equal(t, d, sanitize(d), "defaults must survive clamping unchanged")
}

func TestSetClamps(t *testing.T) {
	t.Cleanup(Reset)

	SetWorkers(0)
	assert.Equal(t, 1, GetWorkers())
	SetWorkers(1000)
	assert.Equal(t, 64, GetWorkers())

	SetCellSize(-3)
	assert.Equal(t, 1, GetCellSize())

	SetViewRadius(99)
	assert.Equal(t, 32, GetViewRadius())

	SetFPSLimit(-1)
	assert.Zero(t, GetFPSLimit())
	SetFPSLimit(144)
	assert.Equal(t, 144, GetFPSLimit())
}

func TestParseKeepsDefaults(t *testing.T) {
	s, err := Parse([]byte(`
log_level = "debug"

[render]
workers = 3
lod_distances = [10.0, 5.0, 30.0, 40.0]

[world]
seed = 99
`))
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 3, s.Render.Workers)
	assert.Equal(t, 4, s.Render.CellSize)
	assert.Equal(t, float32(9999), s.Render.Far)
	assert.Equal(t, int64(99), s.World.Seed)
	// thresholds are made monotonic
	assert.Equal(t, [4]float32{10, 10, 30, 40}, s.Render.LODDistances)
}

func TestParseError(t *testing.T) {
	_, err := Parse([]byte("render = ["))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config")
}

func TestEncodeRoundTrip(t *testing.T) {
	data, err := Encode(Defaults())
	require.NoError(t, err)
	s, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestLoadApplies(t *testing.T) {
	t.Cleanup(Reset)
	path := filepath.Join(t.TempDir(), "pipeline.toml")
	require.NoError(t, os.WriteFile(path, []byte("[render]\ncell_size = 8\n"), 0o644))

	_, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, GetCellSize())
	assert.Equal(t, 8, Snapshot().Render.CellSize)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestWatchReloads(t *testing.T) {
	t.Cleanup(Reset)
	path := filepath.Join(t.TempDir(), "pipeline.toml")
	require.NoError(t, os.WriteFile(path, []byte("[render]\nworkers = 2\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan Settings, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(s Settings, err error) {
			if err != nil {
				return
			}
			select {
			case changed <- s:
			default:
			}
		})
	}()

	// keep rewriting until the watcher is up and reports the new value
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case s := <-changed:
			// a reload can observe the file mid-rewrite
			if s.Render.Workers != 6 {
				continue
			}
			cancel()
			require.NoError(t, <-done)
			return
		case <-tick.C:
			require.NoError(t, os.WriteFile(path, []byte("[render]\nworkers = 6\n"), 0o644))
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}
