package graphics

import (
	"github.com/go-gl/gl/v4.1-core/gl"
)

// Texture is a streaming 2D texture resized on demand.
type Texture struct {
	ID             uint32
	Width, Height  int
	internalFormat int32
	format         uint32
	bytesPerPixel  int
}

func newTexture(internalFormat int32, format uint32, bytesPerPixel int) *Texture {
	t := &Texture{internalFormat: internalFormat, format: format, bytesPerPixel: bytesPerPixel}
	gl.GenTextures(1, &t.ID)
	gl.BindTexture(gl.TEXTURE_2D, t.ID)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return t
}

// NewRGBTexture creates a texture fed with tightly packed RGB24 rows.
func NewRGBTexture() *Texture {
	return newTexture(gl.RGB8, gl.RGB, 3)
}

// NewGrayTexture creates a single-channel texture.
func NewGrayTexture() *Texture {
	return newTexture(gl.R8, gl.RED, 1)
}

// Upload replaces the texture contents. pitch is the byte length of one
// source row and may exceed width*bytesPerPixel.
func (t *Texture) Upload(pixels []byte, width, height, pitch int) {
	if width == 0 || height == 0 || len(pixels) < pitch*height {
		return
	}

	gl.BindTexture(gl.TEXTURE_2D, t.ID)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(pitch/t.bytesPerPixel))

	if width != t.Width || height != t.Height {
		gl.TexImage2D(gl.TEXTURE_2D, 0, t.internalFormat, int32(width), int32(height), 0, t.format, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
		t.Width, t.Height = width, height
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(width), int32(height), t.format, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	}

	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// Delete releases the texture.
func (t *Texture) Delete() {
	gl.DeleteTextures(1, &t.ID)
}
