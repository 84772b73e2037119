// Package depthmap builds the depth-and-colour scene representation that
// drives the depth-of-field compositor.
//
// A Grid holds exactly one Sample per pixel. Samples are stored stably sorted
// by ascending depth so that consumers can group equal-depth runs in a single
// linear pass. A Grid is never mutated after construction and may be shared
// by any number of concurrent readers.
package depthmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"iter"
	"os"
	"slices"

	"parabolicdof/pkg/imagecodec"
)

// ErrLoad is returned when a source image cannot be turned into a Grid.
var ErrLoad = errors.New("failed to load image")

// Sample is one scene sample.
type Sample struct {
	// X and Y are the pixel coordinates of the sample.
	X, Y int

	// Depth is the 8-bit depth code taken from the source alpha channel.
	// 255 is nearest, 0 is farthest.
	Depth uint8

	// Color is the source colour with alpha forced to 255.
	Color color.NRGBA

	// Transparent records that the source pixel had zero alpha, i.e. no
	// valid depth was captured for it.
	Transparent bool
}

// Grid is an immutable, depth-sorted collection of samples.
type Grid struct {
	width   int
	height  int
	samples []Sample
}

// FromImage builds a Grid from img, reading the alpha channel as depth.
// Colour channels are taken unpremultiplied so that fully transparent pixels
// keep their recorded colour.
func FromImage(img image.Image) *Grid {
	b := img.Bounds()
	g := &Grid{
		width:   b.Dx(),
		height:  b.Dy(),
		samples: make([]Sample, 0, b.Dx()*b.Dy()),
	}

	nrgba, fast := img.(*image.NRGBA)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var c color.NRGBA
			if fast {
				c = nrgba.NRGBAAt(x, y)
			} else {
				c = color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			}
			g.samples = append(g.samples, Sample{
				X:           x - b.Min.X,
				Y:           y - b.Min.Y,
				Depth:       c.A,
				Color:       color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255},
				Transparent: c.A == 0,
			})
		}
	}

	slices.SortStableFunc(g.samples, func(a, b Sample) int {
		return int(a.Depth) - int(b.Depth)
	})
	return g
}

// Decode reads an encoded image from r and builds a Grid from it.
func Decode(r io.Reader) (*Grid, error) {
	img, _, err := imagecodec.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return FromImage(img), nil
}

// Load reads the image file at path and builds a Grid from it.
func Load(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()
	return Decode(f)
}

// LoadEXR reads an OpenEXR file carrying R, G, B and a linear depth channel
// and builds a Grid from it.
func LoadEXR(path, depthChannel string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	img, err := imagecodec.DecodeEXR(f, info.Size(), depthChannel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return FromImage(img), nil
}

// Width returns the grid width in pixels.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height in pixels.
func (g *Grid) Height() int { return g.height }

// Bounds returns the pixel rectangle covered by the grid.
func (g *Grid) Bounds() image.Rectangle { return image.Rect(0, 0, g.width, g.height) }

// Len returns the number of samples.
func (g *Grid) Len() int { return len(g.samples) }

// Sample returns the i-th sample in depth order.
func (g *Grid) Sample(i int) Sample { return g.samples[i] }

// All yields the samples in ascending depth order.
func (g *Grid) All() iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		for _, s := range g.samples {
			if !yield(s) {
				return
			}
		}
	}
}

// Depths returns the number of distinct depth codes present.
func (g *Grid) Depths() int {
	n := 0
	for i, s := range g.samples {
		if i == 0 || s.Depth != g.samples[i-1].Depth {
			n++
		}
	}
	return n
}

// Transparent returns the number of samples whose source pixel had no depth.
func (g *Grid) Transparent() int {
	n := 0
	for _, s := range g.samples {
		if s.Transparent {
			n++
		}
	}
	return n
}
