package raster

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"voxel-pipeline/internal/scene"
)

// Heatmap renders the per-cell bin occupancy as a grayscale image, one pixel
// per cell. A full cell (BinCapacity triangles) is white.
func Heatmap(fb scene.FrameBuffers) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, fb.Cols, fb.Rows))
	for cy := range fb.Rows {
		for cx := range fb.Cols {
			n := min(fb.Bins[(cy*fb.Cols+cx)*scene.BinStride], scene.BinCapacity)
			img.SetGray(cx, cy, color.Gray{Y: uint8(n * 255 / scene.BinCapacity)})
		}
	}
	return img
}

// HeatmapImage scales the heatmap back up to the frame size so it can be laid
// over the rendered image.
func HeatmapImage(fb scene.FrameBuffers) *image.Gray {
	cells := Heatmap(fb)
	dst := image.NewGray(image.Rect(0, 0, int(fb.Width), int(fb.Height)))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), cells, cells.Bounds(), draw.Src, nil)
	return dst
}
