package hw

import (
	"sync"
	"sync/atomic"

	"github.com/go-gl/gl/v3.3-core/gl"

	"corehost/hw/video"
)

// GLTexture is a video.Texture backed by an OpenGL texture. Frames are
// copied to a staging buffer by the core, then uploaded on the OpenGL thread
// when presented.
type GLTexture struct {
	w, h int
	id   uint32 // 0 until created on the OpenGL thread

	mu    sync.Mutex
	pix   []byte
	dirty bool

	// set once the sink released the texture, it's never drawn again.
	released atomic.Bool
}

func newGLTexture(w, h int) *GLTexture {
	return &GLTexture{w: w, h: h, pix: make([]byte, w*h*video.BytesPerPixel)}
}

func (t *GLTexture) Size() (int, int) { return t.w, t.h }

func (t *GLTexture) Upload(data []byte, pitch int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stride := t.w * video.BytesPerPixel
	for y := range t.h {
		copy(t.pix[y*stride:(y+1)*stride], data[y*pitch:y*pitch+stride])
	}
	t.dirty = true
}

// sync uploads the staging buffer if it changed and binds the texture. Must
// be called on the OpenGL thread.
func (t *GLTexture) sync() {
	if t.id == 0 {
		gl.GenTextures(1, &t.id)
		gl.BindTexture(gl.TEXTURE_2D, t.id)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB, int32(t.w), int32(t.h), 0, gl.RGB, gl.UNSIGNED_SHORT_5_6_5, nil)
	}
	gl.BindTexture(gl.TEXTURE_2D, t.id)

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.dirty {
		return
	}
	// Rows of RGB565 pixels are only 2-byte aligned.
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 2)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(t.w))
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(t.w), int32(t.h), gl.RGB, gl.UNSIGNED_SHORT_5_6_5, gl.Ptr(&t.pix[0]))
	t.dirty = false
}

func (t *GLTexture) delete() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}
