package video

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"
)

// Image is an in-memory texture.
type Image struct {
	mu   sync.RWMutex
	w, h int
	pix  []byte
}

func NewImage(w, h int) *Image {
	return &Image{w: w, h: h, pix: make([]byte, w*h*BytesPerPixel)}
}

func (img *Image) Size() (int, int) { return img.w, img.h }

func (img *Image) Upload(data []byte, pitch int) {
	img.mu.Lock()
	defer img.mu.Unlock()

	stride := img.w * BytesPerPixel
	for y := range img.h {
		copy(img.pix[y*stride:(y+1)*stride], data[y*pitch:y*pitch+stride])
	}
}

// Pix returns a copy of the RGB565 pixels.
func (img *Image) Pix() []byte {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return append([]byte(nil), img.pix...)
}

// RGBA converts the image.
func (img *Image) RGBA() *image.RGBA {
	img.mu.RLock()
	defer img.mu.RUnlock()

	rgba := image.NewRGBA(image.Rect(0, 0, img.w, img.h))
	for i := range img.w * img.h {
		px := uint16(img.pix[2*i]) | uint16(img.pix[2*i+1])<<8
		r, g, b := RGB565(px)
		rgba.Pix[4*i+0] = r
		rgba.Pix[4*i+1] = g
		rgba.Pix[4*i+2] = b
		rgba.Pix[4*i+3] = 0xff
	}
	return rgba
}

// RGB565 expands a little-endian RGB565 pixel to 8 bits per component.
func RGB565(px uint16) (r, g, b uint8) {
	r5 := uint8(px >> 11 & 0x1f)
	g6 := uint8(px >> 5 & 0x3f)
	b5 := uint8(px & 0x1f)
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}

// ImageAllocator allocates Image textures.
type ImageAllocator struct{}

func (ImageAllocator) NewTexture(w, h int) (Texture, error) { return NewImage(w, h), nil }
func (ImageAllocator) Release(Texture)                      {}

// SaveAsPNG writes img as a PNG file at path.
func SaveAsPNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("screenshot: %w", err)
	}
	return f.Close()
}
