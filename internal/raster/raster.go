package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"golang.org/x/sync/errgroup"

	"voxel-pipeline/internal/geometry"
	"voxel-pipeline/internal/profiling"
	"voxel-pipeline/internal/scene"
)

// ErrMalformedFrame reports frame buffers whose bins or triangles index past
// the arrays they refer to.
var ErrMalformedFrame = errors.New("raster: malformed frame buffers")

// Rasterizer is a CPU stand-in for the GPU kernel: it walks the bin table
// cell by cell and fills an RGB24 frame with a view-depth test.
type Rasterizer struct {
	width, height int
	pitch         int
	pixels        []byte
	depth         []float32 // 1/z of the nearest fragment, 0 when empty

	Background color.RGBA
	Workers    int
}

// New allocates a rasterizer for a width x height frame.
func New(width, height int) *Rasterizer {
	r := &Rasterizer{
		Background: color.RGBA{R: 135, G: 180, B: 235, A: 255},
		Workers:    4,
	}
	r.Resize(width, height)
	return r
}

// Resize reallocates the frame if the size changed.
func (r *Rasterizer) Resize(width, height int) {
	if width == r.width && height == r.height && r.pixels != nil {
		return
	}
	r.width, r.height = width, height
	r.pitch = width * scene.BytesPerPixel
	r.pixels = make([]byte, r.pitch*height)
	r.depth = make([]float32, width*height)
}

// Pixels returns the RGB24 frame, Pitch bytes per row.
func (r *Rasterizer) Pixels() []byte { return r.pixels }

// Pitch returns the byte length of one row.
func (r *Rasterizer) Pitch() int { return r.pitch }

// Size returns the frame size.
func (r *Rasterizer) Size() (int, int) { return r.width, r.height }

// Depth returns the stored 1/z at (x, y), 0 where nothing was drawn.
func (r *Rasterizer) Depth(x, y int) float32 {
	if x < 0 || y < 0 || x >= r.width || y >= r.height {
		return 0
	}
	return r.depth[y*r.width+x]
}

// At returns the colour at (x, y).
func (r *Rasterizer) At(x, y int) color.RGBA {
	i := y*r.pitch + x*scene.BytesPerPixel
	return color.RGBA{R: r.pixels[i], G: r.pixels[i+1], B: r.pixels[i+2], A: 255}
}

func (r *Rasterizer) clear() {
	bg := r.Background
	for i := 0; i < len(r.pixels); i += scene.BytesPerPixel {
		r.pixels[i], r.pixels[i+1], r.pixels[i+2] = bg.R, bg.G, bg.B
	}
	clear(r.depth)
}

// Draw renders one frame. Rows of cells are shaded in parallel; a cell only
// writes its own pixels. It returns the number of fragments that passed the
// depth test, or ErrMalformedFrame when the buffers do not index each other.
func (r *Rasterizer) Draw(fb scene.FrameBuffers) (int, error) {
	defer profiling.Track("raster.Draw")()
	r.Resize(int(fb.Width), int(fb.Height))
	r.clear()
	if fb.Cols == 0 || fb.Rows == 0 {
		return 0, nil
	}
	if fb.CellSize <= 0 {
		return 0, fmt.Errorf("%w: cell size %d", ErrMalformedFrame, fb.CellSize)
	}
	if need := fb.Cols * fb.Rows * scene.BinStride; len(fb.Bins) < need {
		return 0, fmt.Errorf("%w: bin table holds %d words, grid needs %d", ErrMalformedFrame, len(fb.Bins), need)
	}

	written := make([]int, fb.Rows)
	var g errgroup.Group
	g.SetLimit(max(r.Workers, 1))
	for cy := range fb.Rows {
		g.Go(func() error {
			for cx := range fb.Cols {
				n, err := r.drawCell(fb, cx, cy)
				written[cy] += n
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, n := range written {
		total += n
	}
	return total, nil
}

func (r *Rasterizer) drawCell(fb scene.FrameBuffers, cx, cy int) (int, error) {
	base := (cy*fb.Cols + cx) * scene.BinStride
	n := int(min(fb.Bins[base], scene.BinCapacity))
	x0, y0 := cx*fb.CellSize, cy*fb.CellSize
	x1, y1 := min(x0+fb.CellSize, r.width), min(y0+fb.CellSize, r.height)
	nv := uint32(len(fb.Vertices))

	written := 0
	for _, ti := range fb.Bins[base+1 : base+1+n] {
		if int(ti) >= len(fb.Triangles) {
			return written, fmt.Errorf("%w: cell (%d,%d) bins triangle %d of %d", ErrMalformedFrame, cx, cy, ti, len(fb.Triangles))
		}
		t := fb.Triangles[ti]
		if t.I0 >= nv || t.I1 >= nv || t.I2 >= nv {
			return written, fmt.Errorf("%w: triangle %d indexes past %d vertices", ErrMalformedFrame, ti, nv)
		}
		a, b, c := fb.Vertices[t.I0], fb.Vertices[t.I1], fb.Vertices[t.I2]
		col := shade(t, a.Light.X())
		written += r.fill(a.Position, b.Position, c.Position, col, x0, y0, x1, y1)
	}
	return written, nil
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// fill rasterizes a screen-space triangle into the pixel box [x0,x1)x[y0,y1)
// sampling pixel centres. Either winding is accepted.
func (r *Rasterizer) fill(a, b, c [4]float32, col color.RGBA, x0, y0, x1, y1 int) int {
	area := edge(a[0], a[1], b[0], b[1], c[0], c[1])
	if area == 0 || math32.IsNaN(area) {
		return 0
	}
	inv := 1 / area

	minX := max(x0, int(math32.Floor(min(a[0], b[0], c[0]))))
	maxX := min(x1-1, int(math32.Ceil(max(a[0], b[0], c[0]))))
	minY := max(y0, int(math32.Floor(min(a[1], b[1], c[1]))))
	maxY := min(y1-1, int(math32.Ceil(max(a[1], b[1], c[1]))))

	written := 0
	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(b[0], b[1], c[0], c[1], px, py) * inv
			w1 := edge(c[0], c[1], a[0], a[1], px, py) * inv
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			// 1/z is affine in screen space
			invZ := w0*a[3] + w1*b[3] + w2*c[3]
			di := y*r.width + x
			if invZ <= r.depth[di] {
				continue
			}
			r.depth[di] = invZ
			pi := y*r.pitch + x*scene.BytesPerPixel
			r.pixels[pi], r.pixels[pi+1], r.pixels[pi+2] = col.R, col.G, col.B
			written++
		}
	}
	return written
}

var rowColors = map[uint16]color.RGBA{
	geometry.AtlasRowSide:   {R: 134, G: 96, B: 67, A: 255},
	geometry.AtlasRowTop:    {R: 106, G: 170, B: 64, A: 255},
	geometry.AtlasRowBottom: {R: 90, G: 64, B: 45, A: 255},
}

var normalShade = [geometry.DirectionCount]float32{
	geometry.DirUp:    1.0,
	geometry.DirDown:  0.5,
	geometry.DirEast:  0.8,
	geometry.DirWest:  0.8,
	geometry.DirNorth: 0.65,
	geometry.DirSouth: 0.65,
}

// shade picks a flat colour from the atlas row, dimmed per face direction
// and by the vertex light.
func shade(t geometry.Triangle, light float32) color.RGBA {
	base, ok := rowColors[t.FaceID()]
	if !ok {
		base = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	}
	k := normalShade[t.NormalIndex()] * math32.Max(0, math32.Min(light, 1))
	return color.RGBA{
		R: uint8(float32(base.R) * k),
		G: uint8(float32(base.G) * k),
		B: uint8(float32(base.B) * k),
		A: 255,
	}
}

// Image copies the frame into an RGBA image.
func (r *Rasterizer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	for y := range r.height {
		src := r.pixels[y*r.pitch : (y+1)*r.pitch]
		dst := img.Pix[y*img.Stride:]
		for x := range r.width {
			copy(dst[x*4:x*4+3], src[x*3:x*3+3])
			dst[x*4+3] = 255
		}
	}
	return img
}
