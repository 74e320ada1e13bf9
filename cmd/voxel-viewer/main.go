package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"voxel-pipeline/internal/camera"
	"voxel-pipeline/internal/config"
	"voxel-pipeline/internal/graphics"
	"voxel-pipeline/internal/input"
	"voxel-pipeline/internal/logging"
	"voxel-pipeline/internal/physics"
	"voxel-pipeline/internal/pipeline"
	"voxel-pipeline/internal/profiling"
	"voxel-pipeline/internal/raster"
	"voxel-pipeline/internal/world"
)

const (
	windowWidth  = 900
	windowHeight = 600

	moveSpeed = 24.0 // units per second
	turnSpeed = 1.6  // radians per second
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "TOML settings file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logging.Error("%v", err)
		panic(err)
	}
}

func run(configPath string) error {
	if configPath != "" {
		if _, err := config.Load(configPath); err != nil {
			return err
		}
	}
	if err := logging.SetLevel(config.GetLogLevel()); err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	defer glfw.Terminate()

	window, err := setupWindow()
	if err != nil {
		return err
	}
	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w", err)
	}

	blitter, err := graphics.NewBlitter()
	if err != nil {
		return err
	}
	defer blitter.Delete()

	width, height := window.GetFramebufferSize()
	opts := pipeline.DefaultOptions()
	opts.Width, opts.Height = width, height

	w := pipeline.NewWorld(config.GetWorldGen())
	p := pipeline.New(w, opts)
	defer p.Close()
	p.SetCamera(pipeline.Spawn(w, 8, 8))

	im := input.NewInputManager()
	im.SetCallbacks(window)
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, fw, fh int) {
		gl.Viewport(0, 0, int32(fw), int32(fh))
		p.SetWindow(fw, fh)
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.Run(gctx, 2*time.Millisecond)
	})

	loop := &viewerLoop{
		window:   window,
		pipeline: p,
		input:    im,
		raster:   raster.New(width, height),
		blitter:  blitter,
		limiter:  pipeline.NewFPSLimiter(),
		lastTime: time.Now(),
		lastFPS:  time.Now(),
	}
	loop.raster.Workers = opts.Scene.Workers
	loop.run(gctx)

	stop()
	return g.Wait()
}

func setupWindow() (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(windowWidth, windowHeight, "voxel-pipeline", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}
	// the framebuffer must fit the bin table; limits are in screen units
	r := config.GetRender()
	sx, sy := window.GetContentScale()
	window.SetSizeLimits(1, 1, int(float32(r.MaxWidth)/max(sx, 1)), int(float32(r.MaxHeight)/max(sy, 1)))

	window.MakeContextCurrent()
	// pacing comes from the fps_limit setting
	glfw.SwapInterval(0)
	return window, nil
}

type viewerLoop struct {
	window   *glfw.Window
	pipeline *pipeline.Pipeline
	input    *input.InputManager
	raster   *raster.Rasterizer
	blitter  *graphics.Blitter
	limiter  *pipeline.FPSLimiter

	heatmap   bool
	profiling bool
	heat      *image.Gray

	frames   int
	lastTime time.Time
	lastFPS  time.Time
}

// run presents frames until the window closes or the writer stops.
func (l *viewerLoop) run(ctx context.Context) {
	gl.ClearColor(0, 0, 0, 1)
	for !l.window.ShouldClose() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		glfw.PollEvents()
		now := time.Now()
		dt := float32(now.Sub(l.lastTime).Seconds())
		l.lastTime = now

		l.handleInput(dt)
		l.present()

		l.window.SwapBuffers()
		l.input.PostUpdate()
		l.tickFPS(now)
		l.limiter.Wait()
	}
}

func (l *viewerLoop) handleInput(dt float32) {
	im := l.input
	if im.JustPressed(input.ActionQuit) {
		l.window.SetShouldClose(true)
	}
	if im.JustPressed(input.ActionToggleHeatmap) {
		l.heatmap = !l.heatmap
	}
	if im.JustPressed(input.ActionToggleProfiling) {
		l.profiling = !l.profiling
	}
	if im.JustPressed(input.ActionReloadChunks) {
		l.pipeline.InvalidateAll()
	}
	if im.JustPressed(input.ActionBreakBlock) {
		l.edit(false)
	}
	if im.JustPressed(input.ActionPlaceBlock) {
		l.edit(true)
	}

	right := im.Axis(input.ActionMoveLeft, input.ActionMoveRight)
	up := im.Axis(input.ActionMoveDown, input.ActionMoveUp)
	forward := im.Axis(input.ActionMoveBackward, input.ActionMoveForward)
	yaw := im.Axis(input.ActionTurnRight, input.ActionTurnLeft)
	pitch := im.Axis(input.ActionLookDown, input.ActionLookUp)
	if right == 0 && up == 0 && forward == 0 && yaw == 0 && pitch == 0 {
		return
	}

	cam := l.pipeline.Camera()
	pipeline.Move(&cam, right*moveSpeed*dt, up*moveSpeed*dt, forward*moveSpeed*dt)
	cam.Turn(mgl32.Vec3{pitch * turnSpeed * dt, yaw * turnSpeed * dt, 0})
	cam.Rotation[0] = mgl32.Clamp(cam.Rotation[0], -1.5, 1.5)
	l.pipeline.SetCamera(cam)
}

// edit removes the tile under the view axis, or places stone in front of it.
func (l *viewerLoop) edit(place bool) {
	cam := l.pipeline.Camera()
	w := l.pipeline.World()
	hit := physics.Raycast(cam.Position, cam.ViewDir(), physics.MinReachDistance, physics.MaxReachDistance, w.Store())
	if !hit.Hit {
		return
	}
	p, b := hit.HitPosition, world.BlockTypeAir
	if place {
		p, b = hit.AdjacentPosition, world.BlockTypeStone
	}
	if c := w.SetBlock(p[0], p[1], p[2], b); c != nil {
		logging.Debug("set %v to %v in chunk %v", p, b, c.Coord())
	}
}

// present rasterizes a newly adopted front half, then blits the last frame.
func (l *viewerLoop) present() {
	consumer := l.pipeline.Consumer()
	if consumer.Update() {
		profiling.ResetFrame()
		fb := consumer.Current().Frame()
		if _, err := l.raster.Draw(fb); err != nil {
			logging.Warn("draw frame: %v", err)
		}
		l.heat = nil
		if l.heatmap && fb.Cols > 0 {
			l.heat = raster.HeatmapImage(fb)
		}
	}

	gl.Clear(gl.COLOR_BUFFER_BIT)
	w, h := l.raster.Size()
	l.blitter.Draw(l.raster.Pixels(), w, h, l.raster.Pitch(), l.heat)
}

func (l *viewerLoop) tickFPS(now time.Time) {
	l.frames++
	elapsed := now.Sub(l.lastFPS)
	if elapsed < time.Second {
		return
	}
	fps := int(float64(l.frames)/elapsed.Seconds() + 0.5)
	cam := l.pipeline.Camera()
	st := l.pipeline.Consumer().Current().LastStats()
	l.window.SetTitle(fmt.Sprintf("voxel-pipeline | %d fps | %d live | %s", fps, st.Live, formatPos(cam)))
	if l.profiling {
		logging.Info("%d fps, %s", fps, profiling.TopN(8))
	}
	l.frames = 0
	l.lastFPS = now
}

func formatPos(cam camera.Camera) string {
	p := cam.Position
	return fmt.Sprintf("%.1f %.1f %.1f", p.X(), p.Y(), p.Z())
}
