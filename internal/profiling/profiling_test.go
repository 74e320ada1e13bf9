package profiling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndEntries(t *testing.T) {
	ResetFrame()
	Add("scene.Bin", 2*time.Millisecond)
	Add("scene.Transform", 4*time.Millisecond)
	Add("scene.Transform", time.Millisecond)

	list := Entries()
	require.Len(t, list, 2)
	assert.Equal(t, "scene.Transform", list[0].Name)
	assert.Equal(t, 5*time.Millisecond, list[0].Total)
	assert.Equal(t, 2, list[0].Calls)
	assert.Equal(t, "scene.Bin", list[1].Name)
}

func TestTopN(t *testing.T) {
	ResetFrame()
	Add("a", 4200*time.Microsecond)
	Add("b", 2*time.Millisecond)
	Add("c", time.Microsecond)

	assert.Equal(t, "a:4.2ms, b:2ms", TopN(2))
	assert.Equal(t, "a:4.2ms, b:2ms, c:0ms", TopN(10))
}

func TestResetFrame(t *testing.T) {
	Add("x", time.Millisecond)
	ResetFrame()
	assert.Empty(t, Snapshot())
	assert.Empty(t, TopN(3))
}

func TestTrack(t *testing.T) {
	ResetFrame()
	stop := Track("t")
	stop()
	_, ok := Snapshot()["t"]
	assert.True(t, ok)
}
