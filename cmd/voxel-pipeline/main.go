package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/closer"
	"golang.org/x/sync/errgroup"

	"voxel-pipeline/internal/config"
	"voxel-pipeline/internal/logging"
	"voxel-pipeline/internal/pipeline"
	"voxel-pipeline/internal/profiling"
	"voxel-pipeline/internal/raster"
)

type options struct {
	configPath string
	watch      bool
	frames     int
	fps        int
	width      int
	height     int
	framePath  string
	heatPath   string
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "TOML settings file")
	flag.BoolVar(&o.watch, "watch", false, "reload the settings file when it changes")
	flag.IntVar(&o.frames, "frames", 120, "frames to render before exiting, 0 runs until interrupted")
	flag.IntVar(&o.fps, "fps", -1, "cap the reader's frame rate, overrides fps_limit when >= 0")
	flag.IntVar(&o.width, "width", 800, "output width")
	flag.IntVar(&o.height, "height", 600, "output height")
	flag.StringVar(&o.framePath, "out", "", "write the last frame as PNG")
	flag.StringVar(&o.heatPath, "heatmap", "", "write the last frame's bin occupancy as PNG")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	closer.Bind(func() {
		cancel()
		<-done
	})

	err := run(ctx, o)
	close(done)
	if err != nil {
		closer.Fatalln(err)
	}
	closer.Close()
}

func run(ctx context.Context, o options) error {
	if o.configPath != "" {
		if _, err := config.Load(o.configPath); err != nil {
			return err
		}
	}
	if err := logging.SetLevel(config.GetLogLevel()); err != nil {
		return err
	}
	if o.fps >= 0 {
		config.SetFPSLimit(o.fps)
	}

	opts := pipeline.DefaultOptions()
	opts.Width, opts.Height = o.width, o.height
	w := pipeline.NewWorld(config.GetWorldGen())
	p := pipeline.New(w, opts)
	defer p.Close()

	cam := pipeline.Spawn(w, 8, 8)
	p.SetCamera(cam)
	logging.Info("spawn at %v, view radius %d, %d workers", cam.Position, opts.ViewRadius, opts.Scene.Workers)

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return p.Run(gctx, 2*time.Millisecond)
	})

	if o.watch && o.configPath != "" {
		g.Go(func() error {
			return config.Watch(gctx, o.configPath, func(s config.Settings, err error) {
				if err != nil {
					logging.Warn("config reload: %v", err)
					return
				}
				if err := logging.SetLevel(s.LogLevel); err != nil {
					logging.Warn("%v", err)
				}
				logging.Info("config reloaded")
			})
		})
	}

	r := raster.New(o.width, o.height)
	r.Workers = opts.Scene.Workers
	g.Go(func() error {
		defer stop()
		return read(gctx, p, r, o.frames)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	// the writer has stopped, the front half is stable
	fb := p.Consumer().Current().Frame()
	if o.framePath != "" {
		if err := writePNG(o.framePath, r.Image()); err != nil {
			return err
		}
		logging.Info("wrote %s", o.framePath)
	}
	if o.heatPath != "" && fb.Cols > 0 {
		if err := writePNG(o.heatPath, raster.HeatmapImage(fb)); err != nil {
			return err
		}
		logging.Info("wrote %s", o.heatPath)
	}
	return nil
}

// read adopts swaps, rasterizes each new front and orbits the camera one
// step per frame. It returns after frames frames, or when ctx is done.
func read(ctx context.Context, p *pipeline.Pipeline, r *raster.Rasterizer, frames int) error {
	consumer := p.Consumer()
	step := float32(2 * math.Pi / 240)
	if frames > 0 {
		step = float32(2*math.Pi) / float32(frames)
	}

	limiter := pipeline.NewFPSLimiter()
	rendered := 0
	last := time.Now()
	lastCount := 0
	for frames == 0 || rendered < frames {
		if !consumer.Update() {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Millisecond):
			}
			continue
		}

		profiling.ResetFrame()
		front := consumer.Current()
		fragments, err := r.Draw(front.Frame())
		if err != nil {
			return fmt.Errorf("draw frame: %w", err)
		}
		rendered++

		cam := p.Camera()
		cam.Turn(mgl32.Vec3{0, step, 0})
		p.SetCamera(cam)

		if time.Since(last) >= time.Second {
			st := front.LastStats()
			logging.Info("%d fps, %d/%d triangles live, %d fragments, %d bin drops, %s",
				rendered-lastCount, st.Live, st.Triangles, fragments, st.BinDropped, profiling.TopN(4))
			last, lastCount = time.Now(), rendered
		}
		limiter.Wait()
	}
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
