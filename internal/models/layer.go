package models

import (
	"image"
)

// Layer is a full-frame, non-premultiplied RGBA buffer used while a single
// blur band is drawn, masked and blurred.
type Layer struct {
	// Image holds the pixels. Colour under zero alpha is meaningful: the
	// Gaussian pass blends it into the edge of the band.
	Image *image.NRGBA
}

// NewLayer returns a fully transparent layer covering r.
func NewLayer(r image.Rectangle) *Layer {
	return &Layer{Image: image.NewNRGBA(r)}
}

// Reset makes every pixel transparent black.
func (l *Layer) Reset() {
	clear(l.Image.Pix)
}

// AlphaAt returns the alpha of the pixel at (x, y).
func (l *Layer) AlphaAt(x, y int) uint8 {
	return l.Image.Pix[l.Image.PixOffset(x, y)+3]
}

// SetHidden stores rgb at (x, y) with zero alpha.
func (l *Layer) SetHidden(x, y int, r, g, b uint8) {
	i := l.Image.PixOffset(x, y)
	p := l.Image.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = r, g, b, 0
}

// BandState is the phase of the band accumulator.
type BandState int

const (
	// Flushed means no samples are pending.
	Flushed BandState = iota

	// Accumulating means samples of one blur value are drawn but not yet
	// composited.
	Accumulating
)

func (s BandState) String() string {
	switch s {
	case Flushed:
		return "flushed"
	case Accumulating:
		return "accumulating"
	}
	return "unknown"
}

// Band summarizes one composited blur band.
type Band struct {
	// Blur is the quantized blur value shared by every sample of the band.
	Blur float64

	// Samples is the number of samples drawn into the band.
	Samples int

	// Blurred reports whether a Gaussian pass ran for the band.
	Blurred bool
}
