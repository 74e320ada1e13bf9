package scene

import (
	"github.com/chewxy/math32"

	"voxel-pipeline/internal/geometry"
)

const (
	// BinStride is the number of words per cell: a count then the entries.
	BinStride = 64
	// BinCapacity is the number of triangle indices one cell can hold.
	BinCapacity = BinStride - 1
)

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// gridSize returns the cell grid for a window.
func gridSize(width, height, cell int) (cols, rows int) {
	return ceilDiv(width, cell), ceilDiv(height, cell)
}

func gridCells(width, height, cell int) int {
	cols, rows := gridSize(width, height, cell)
	return cols * rows
}

// binStats tallies one binning pass.
type binStats struct {
	live, entries, dropped int
}

// binTriangles resets the active grid and appends every live triangle to
// each cell its screen-space box overlaps. Cell ranges are inclusive; a cell
// that already holds BinCapacity entries drops further triangles.
func binTriangles(grid []uint32, cols, rows, cell int, width, height float32, tris []geometry.Triangle, dead []bool, verts []geometry.Vertex) binStats {
	for c := range cols * rows {
		grid[c*BinStride] = 0
	}

	var st binStats
	fc := float32(cell)
	for i, t := range tris {
		if dead[i] {
			continue
		}
		st.live++

		a, b, c := verts[t.I0].Position, verts[t.I1].Position, verts[t.I2].Position
		minX := math32.Min(a.X(), math32.Min(b.X(), c.X()))
		maxX := math32.Max(a.X(), math32.Max(b.X(), c.X()))
		minY := math32.Min(a.Y(), math32.Min(b.Y(), c.Y()))
		maxY := math32.Max(a.Y(), math32.Max(b.Y(), c.Y()))
		if s := minX + maxX + minY + maxY; math32.IsNaN(s) || math32.IsInf(s, 0) {
			continue
		}
		if maxX < 0 || maxY < 0 || minX >= width || minY >= height {
			continue
		}

		cx0 := int(math32.Max(minX, 0) / fc)
		cy0 := int(math32.Max(minY, 0) / fc)
		cx1 := min(int(math32.Min(maxX, width-1)/fc), cols-1)
		cy1 := min(int(math32.Min(maxY, height-1)/fc), rows-1)

		for cy := cy0; cy <= cy1; cy++ {
			for cx := cx0; cx <= cx1; cx++ {
				slot := grid[(cy*cols+cx)*BinStride : (cy*cols+cx+1)*BinStride]
				if slot[0] >= BinCapacity {
					st.dropped++
					continue
				}
				slot[0]++
				slot[slot[0]] = uint32(i)
				st.entries++
			}
		}
	}
	return st
}

// Cell returns the triangle indices binned into cell (cx, cy) by the last
// frame. The slice aliases the bin table.
func (m *Mesh) Cell(cx, cy int) []uint32 {
	if cx < 0 || cy < 0 || cx >= m.cols || cy >= m.rows {
		return nil
	}
	base := (cy*m.cols + cx) * BinStride
	n := m.bins[base]
	return m.bins[base+1 : base+1+int(n)]
}

// Grid returns the active cell grid and cell size of the last frame.
func (m *Mesh) Grid() (cols, rows, cell int) {
	return m.cols, m.rows, m.opts.CellSize
}

// Bins returns the bin table for the active grid.
func (m *Mesh) Bins() []uint32 {
	return m.bins[:m.cols*m.rows*BinStride]
}
