package hw

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/veandco/go-sdl2/sdl"

	"corehost/hw/shaders"
)

type window struct {
	*sdl.Window
	prog    uint32
	vao     uint32
	context sdl.GLContext
}

// create an OpenGL window sized for a texture of (texw, texh), scaled by
// wscale, on the given monitor. Must be called on the SDL main thread.
func newWindow(title string, texw, texh, wscale int, monitor int32, shader string) (*window, error) {
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 3)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 3)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)

	winw := int32(texw * wscale)
	winh := int32(texh * wscale)
	x, y := int32(sdl.WINDOWPOS_CENTERED), int32(sdl.WINDOWPOS_CENTERED)
	if bounds, err := sdl.GetDisplayBounds(int(monitor)); err == nil {
		x = bounds.X + (bounds.W-winw)/2
		y = bounds.Y + (bounds.H-winh)/2
	}

	w, err := sdl.CreateWindow(title, x, y, winw, winh,
		sdl.WINDOW_OPENGL|sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %s", err)
	}

	context, err := w.GLCreateContext()
	if err != nil {
		w.Destroy()
		return nil, fmt.Errorf("failed to create OpenGL context: %s", err)
	}

	if err := gl.Init(); err != nil {
		sdl.GLDeleteContext(context)
		w.Destroy()
		return nil, fmt.Errorf("failed to initialize opengl: %s", err)
	}

	prog, err := shaders.Program(shader)
	if err != nil {
		sdl.GLDeleteContext(context)
		w.Destroy()
		return nil, err
	}

	var vbo, vao, ebo uint32
	gl.GenVertexArrays(1, &vao)
	gl.GenBuffers(1, &vbo)
	gl.GenBuffers(1, &ebo)

	gl.BindVertexArray(vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	// Position attributes
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 5*4, 0)
	gl.EnableVertexAttribArray(0)

	// Texture coordinate attributes.
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, 5*4, 3*4)
	gl.EnableVertexAttribArray(1)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	return &window{
		Window:  w,
		prog:    prog,
		vao:     vao,
		context: context,
	}, nil
}

// draw tex, letterboxed to keep the aspect ratio.
func (w *window) draw(tex *GLTexture, aspect float64) {
	ww, wh := w.GLGetDrawableSize()
	vx, vy, vw, vh := int32(0), int32(0), ww, wh
	if aspect > 0 && wh > 0 {
		if float64(ww)/float64(wh) > aspect {
			vw = int32(float64(wh) * aspect)
			vx = (ww - vw) / 2
		} else {
			vh = int32(float64(ww) / aspect)
			vy = (wh - vh) / 2
		}
	}

	gl.Viewport(0, 0, ww, wh)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	if tex != nil {
		gl.Viewport(vx, vy, vw, vh)
		gl.UseProgram(w.prog)
		tex.sync()
		gl.BindVertexArray(w.vao)
		gl.DrawElements(gl.TRIANGLES, 6, gl.UNSIGNED_INT, nil)
	}
	w.GLSwap()
}

func (w *window) destroy() error {
	if w.context != nil {
		sdl.GLDeleteContext(w.context)
	}
	return w.Destroy()
}

// Columns are position and texture coordinates.
// Rows are the quad vertices in clockwise order.
var vertices = []float32{
	// x, y, z, s, t
	1.0, 1.0, 0, 1, 0, // top right
	1.0, -1.0, 0, 1, 1, // bottom right
	-1.0, -1.0, 0, 0, 1, // bottom left
	-1.0, 1.0, 0, 0, 0, // top left
}

var indices = []uint32{
	0, 1, 3,
	1, 2, 3,
}
