package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxel-pipeline/internal/camera"
	"voxel-pipeline/internal/scene"
	"voxel-pipeline/internal/world"
)

func testOptions() Options {
	return Options{
		Scene: scene.Options{
			MaxWidth:   256,
			MaxHeight:  256,
			CellSize:   4,
			Workers:    2,
			FovY:       mgl32.DegToRad(60),
			Near:       0.1,
			Far:        1000,
			NearReject: 0.01,
		},
		ViewRadius:   1,
		LODDistances: [world.LODCount - 1]float32{48, 96, 192, 384},
		MeshWorkers:  2,
		MeshQueue:    32,
		Width:        128,
		Height:       96,
	}
}

func newTestPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	p := New(world.New(world.NewFlatGenerator(4), 0, 0), opts)
	t.Cleanup(p.Close)
	// above the flat surface, looking along +Z
	p.SetCamera(camera.New(mgl32.Vec3{8, 10, -4}, mgl32.Vec3{}))
	return p
}

// settle steps the writer and adopts swaps until every loaded chunk is in
// the front buffer.
func settle(t *testing.T, p *Pipeline) {
	t.Helper()
	ctx := context.Background()
	require.Eventually(t, func() bool {
		_, err := p.Step(ctx)
		if err != nil {
			t.Log(err)
			return false
		}
		p.Consumer().Update()
		return len(p.inflight) == 0 &&
			len(p.applied) == p.world.Store().Len() &&
			!p.producer.Back().WasMutated()
	}, 5*time.Second, time.Millisecond)

	// one more round so the front holds the last swap
	_, err := p.Step(ctx)
	require.NoError(t, err)
	p.Consumer().Update()
}

func TestStepMeshesLoadedChunks(t *testing.T) {
	p := newTestPipeline(t, testOptions())
	settle(t, p)

	// radius 1 loads the centre column and its four neighbours
	assert.Equal(t, 5, p.world.Store().Len())
	front := p.Consumer().Current()
	assert.Positive(t, front.TriangleCount())
	assert.Positive(t, front.LastStats().Live)
	assert.Equal(t, 128, front.LastParams().Width)

	for _, c := range p.world.Store().AllChunks() {
		assert.GreaterOrEqual(t, c.Index, 0)
		assert.True(t, front.ChunkLive(c.Index))
		assert.False(t, c.IsDirty())
	}
}

func TestStepWithoutChangesDoesNotSwap(t *testing.T) {
	p := newTestPipeline(t, testOptions())
	settle(t, p)

	st, err := p.Step(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Swapped)
	assert.Zero(t, st.Queued)
}

func TestCameraMoveRebuildsFrame(t *testing.T) {
	p := newTestPipeline(t, testOptions())
	settle(t, p)

	cam := p.Camera()
	cam.Turn(mgl32.Vec3{0, 0.2, 0})
	p.SetCamera(cam)

	st, err := p.Step(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Swapped)
	assert.True(t, st.Frame.Ran)
	p.Consumer().Update()
	assert.Equal(t, cam, p.Consumer().Current().LastParams().Camera)
}

func TestStreamingEvictsChunks(t *testing.T) {
	p := newTestPipeline(t, testOptions())
	settle(t, p)
	old := p.world.Store().AllChunks()

	p.SetCamera(camera.New(mgl32.Vec3{8 + 10*world.ChunkSize, 10, -4}, mgl32.Vec3{}))
	settle(t, p)

	for _, c := range old {
		assert.Equal(t, -1, c.Index)
	}
	assert.Equal(t, 5, p.world.Store().Len())
	front := p.Consumer().Current()
	live := 0
	for i := range front.ChunkSlots() {
		if front.ChunkLive(i) {
			live++
		}
	}
	assert.Equal(t, 5, live, "freed slots are reused")
}

func TestEditRemeshesChunk(t *testing.T) {
	p := newTestPipeline(t, testOptions())
	settle(t, p)
	before := p.Consumer().Current().TriangleCount()

	// dig a hole into the surface of the centre chunk
	p.world.Store().Set(8, 4, 8, world.BlockTypeAir)
	settle(t, p)
	assert.Greater(t, p.Consumer().Current().TriangleCount(), before)

	p.InvalidateAll()
	for _, c := range p.world.Store().AllChunks() {
		assert.True(t, c.IsDirty())
	}
	settle(t, p)
	assert.Positive(t, p.Consumer().Current().TriangleCount())
}

func TestWindowTooLarge(t *testing.T) {
	p := newTestPipeline(t, testOptions())
	p.SetWindow(4096, 10)
	_, err := p.Step(context.Background())
	require.ErrorIs(t, err, scene.ErrWindowTooLarge)
}

func TestRunSkipsFramesWhileWindowTooLarge(t *testing.T) {
	p := newTestPipeline(t, testOptions())
	p.SetWindow(4096, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, time.Millisecond) }()

	time.Sleep(50 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("writer stopped: %v", err)
	default:
	}

	p.SetWindow(128, 96)
	require.Eventually(t, func() bool {
		p.Consumer().Update()
		return p.Consumer().Current().LastParams().Width == 128
	}, 5*time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestCapacityErrorIsReported(t *testing.T) {
	opts := testOptions()
	opts.Scene.MaxVertices = 100
	opts.Scene.MaxTriangles = 100
	p := newTestPipeline(t, opts)

	ctx := context.Background()
	var capErr *scene.CapacityError
	require.Eventually(t, func() bool {
		_, err := p.Step(ctx)
		p.Consumer().Update()
		return errors.As(err, &capErr)
	}, 5*time.Second, time.Millisecond)
	assert.Equal(t, 100, capErr.Max)
}

func TestRunStopsOnCancel(t *testing.T) {
	p := newTestPipeline(t, testOptions())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, time.Millisecond) }()

	// play the reader for a while
	deadline := time.After(200 * time.Millisecond)
loop:
	for {
		select {
		case <-deadline:
			break loop
		default:
			p.Consumer().Update()
			time.Sleep(time.Millisecond)
		}
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
