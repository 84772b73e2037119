package dof

import (
	"image"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FFTBlurrer is a separable Gaussian blur computed with real FFTs. Its cost
// does not grow with sigma beyond the edge padding, which makes it the
// better choice for the very wide kernels produced by strongly defocused
// bands. Edges are clamped and the four channels are blurred independently,
// like GaussianBlurrer.
type FFTBlurrer struct{}

// Blur implements Blurrer.
func (FFTBlurrer) Blur(dst, src *image.NRGBA, sigma float32) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return
	}
	radius := int(math.Ceil(3 * float64(sigma)))

	rows := newConvolver(w, radius, float64(sigma))
	cols := newConvolver(h, radius, float64(sigma))
	tmp := make([]float64, w*h*4)
	line := make([]float64, max(w, h))

	// Step 1: horizontal pass into tmp
	for y := 0; y < h; y++ {
		for c := 0; c < 4; c++ {
			for x := 0; x < w; x++ {
				line[x] = float64(src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)+c])
			}
			rows.apply(line[:w])
			for x := 0; x < w; x++ {
				tmp[(y*w+x)*4+c] = line[x]
			}
		}
	}

	// Step 2: vertical pass into dst
	for x := 0; x < w; x++ {
		for c := 0; c < 4; c++ {
			for y := 0; y < h; y++ {
				line[y] = tmp[(y*w+x)*4+c]
			}
			cols.apply(line[:h])
			for y := 0; y < h; y++ {
				dst.Pix[dst.PixOffset(b.Min.X+x, b.Min.Y+y)+c] = toByte(line[y])
			}
		}
	}
}

// convolver applies a fixed Gaussian to lines of one length by circular
// convolution over an edge-clamped, padded copy.
type convolver struct {
	fft    *fourier.FFT
	n      int
	pad    int
	kernel []complex128
	buf    []float64
	coeff  []complex128
}

func newConvolver(length, radius int, sigma float64) *convolver {
	n := length + 2*radius
	fft := fourier.NewFFT(n)

	taps := make([]float64, n)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		taps[(i+n)%n] = v
		sum += v
	}
	for i := range taps {
		taps[i] /= sum
	}

	return &convolver{
		fft:    fft,
		n:      n,
		pad:    radius,
		kernel: fft.Coefficients(nil, taps),
		buf:    make([]float64, n),
	}
}

// apply convolves line in place.
func (c *convolver) apply(line []float64) {
	m := len(line)
	for i := 0; i < c.n; i++ {
		j := min(max(i-c.pad, 0), m-1)
		c.buf[i] = line[j]
	}
	c.coeff = c.fft.Coefficients(c.coeff, c.buf)
	for i := range c.coeff {
		c.coeff[i] *= c.kernel[i]
	}
	c.fft.Sequence(c.buf, c.coeff)

	// Sequence is unnormalized.
	scale := 1 / float64(c.n)
	for i := 0; i < m; i++ {
		line[i] = c.buf[i+c.pad] * scale
	}
}

func toByte(v float64) uint8 {
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
