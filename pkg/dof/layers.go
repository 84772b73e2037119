package dof

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/gift"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Blurrer applies a Gaussian blur of the given sigma from src into dst. Both
// images share the same bounds.
type Blurrer interface {
	Blur(dst, src *image.NRGBA, sigma float32)
}

// GaussianBlurrer blurs with gift's separable Gaussian filter. Each of the
// four channels is filtered on its own as a gray image, so colour stored
// under zero alpha spreads into the band edge like any other value.
type GaussianBlurrer struct{}

// Blur implements Blurrer.
func (GaussianBlurrer) Blur(dst, src *image.NRGBA, sigma float32) {
	b := src.Bounds()
	g := gift.New(gift.GaussianBlur(sigma))
	in := image.NewGray(b)
	out := image.NewGray(b)
	for c := 0; c < 4; c++ {
		extractChannel(in, src, c)
		g.Draw(out, in)
		insertChannel(dst, out, c)
	}
}

// extractChannel copies channel c of src into gray.
func extractChannel(gray *image.Gray, src *image.NRGBA, c int) {
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Pix[gray.PixOffset(x, y)] = src.Pix[src.PixOffset(x, y)+c]
		}
	}
}

// insertChannel copies gray into channel c of dst.
func insertChannel(dst *image.NRGBA, gray *image.Gray, c int) {
	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Pix[dst.PixOffset(x, y)+c] = gray.Pix[gray.PixOffset(x, y)]
		}
	}
}

// bezierCircle is the control-point distance for a quarter circle of unit
// radius drawn with one cubic Bézier.
const bezierCircle = 0.5522847498

// splatter draws a small anti-aliased disc of solid colour centred on a
// pixel.
type splatter struct {
	mask *image.Alpha
	half int
}

func newSplatter(radius float64) splatter {
	half := int(math.Ceil(radius))
	n := 2*half + 1
	c := float32(n) / 2
	r := float32(radius)
	k := float32(bezierCircle) * r

	z := vector.NewRasterizer(n, n)
	z.MoveTo(c+r, c)
	z.CubeTo(c+r, c+k, c+k, c+r, c, c+r)
	z.CubeTo(c-k, c+r, c-r, c+k, c-r, c)
	z.CubeTo(c-r, c-k, c-k, c-r, c, c-r)
	z.CubeTo(c+k, c-r, c+r, c-k, c+r, c)
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, n, n))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return splatter{mask: mask, half: half}
}

// splat draws the disc centred on (x, y), clipped to dst.
func (s splatter) splat(dst *image.NRGBA, x, y int, c color.NRGBA) {
	r := image.Rect(x-s.half, y-s.half, x+s.half+1, y+s.half+1)
	xdraw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, s.mask, image.Point{}, xdraw.Over)
}
