package graphics

import (
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// fullscreen triangle generated from gl_VertexID; the frame's row 0 is the
// top of the screen
const blitVertexSrc = `#version 410 core
out vec2 uv;
void main() {
	vec2 p = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
	uv = vec2(p.x, 1.0 - p.y);
	gl_Position = vec4(p * 2.0 - 1.0, 0.0, 1.0);
}`

const blitFragmentSrc = `#version 410 core
in vec2 uv;
out vec4 fragColor;
uniform sampler2D frame;
uniform sampler2D heat;
uniform bool overlay;
void main() {
	vec3 c = texture(frame, uv).rgb;
	if (overlay) {
		c = mix(c, vec3(1.0, 0.1, 0.1), texture(heat, uv).r * 0.7);
	}
	fragColor = vec4(c, 1.0);
}`

// Blitter presents a CPU-rendered RGB24 frame, optionally tinted by a
// per-pixel heat map.
type Blitter struct {
	shader *Shader
	vao    uint32
	frame  *Texture
	heat   *Texture
}

// NewBlitter compiles the blit program. A GL context must be current.
func NewBlitter() (*Blitter, error) {
	shader, err := NewShader(blitVertexSrc, blitFragmentSrc)
	if err != nil {
		return nil, err
	}

	b := &Blitter{shader: shader, frame: NewRGBTexture(), heat: NewGrayTexture()}
	gl.GenVertexArrays(1, &b.vao)

	shader.Use()
	shader.SetInt("frame", 0)
	shader.SetInt("heat", 1)
	gl.UseProgram(0)
	return b, nil
}

// Draw uploads the frame and draws it over the whole viewport. heat may be nil.
func (b *Blitter) Draw(pixels []byte, width, height, pitch int, heat *image.Gray) {
	b.frame.Upload(pixels, width, height, pitch)
	if heat != nil {
		r := heat.Bounds()
		b.heat.Upload(heat.Pix, r.Dx(), r.Dy(), heat.Stride)
	}

	b.shader.Use()
	b.shader.SetBool("overlay", heat != nil)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, b.frame.ID)
	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, b.heat.ID)

	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
}

// Delete releases every GL object.
func (b *Blitter) Delete() {
	gl.DeleteVertexArrays(1, &b.vao)
	b.frame.Delete()
	b.heat.Delete()
	b.shader.Delete()
}
