// Package dof renders a synthetic depth-of-field effect on a depth-sorted
// colour grid, as if the scene were imaged through a parabolic mirror.
//
// Each sample's depth code is turned into a distance, the distance into a
// blur-disc diameter via package parabola, and the diameter into a quantized
// blur value. Consecutive samples sharing a blur value form a band; each band
// is splatted into a layer, blurred once and composited over the output.
package dof

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"parabolicdof/internal/models"
	"parabolicdof/pkg/depthmap"
	"parabolicdof/pkg/imagecodec"
)

// DefaultDiscRadius is the radius, in pixels, of the disc each sample is
// splatted into before blurring.
const DefaultDiscRadius = 2.0

// Band summarizes one composited blur band.
type Band = models.Band

// Result is the outcome of a composite.
type Result struct {
	// Image is the composited output.
	Image *image.NRGBA

	// Bands lists the bands in the order they were composited. The first
	// entry is the sentinel band holding the first sample, composited
	// without blur.
	Bands []Band
}

// BlurPasses returns how many Gaussian passes the composite ran.
func (r *Result) BlurPasses() int {
	n := 0
	for _, b := range r.Bands {
		if b.Blurred {
			n++
		}
	}
	return n
}

// Compositor renders depth-of-field composites. A Compositor holds no
// per-render state and may be used from several goroutines at once.
type Compositor struct {
	blurrer Blurrer
	splat   splatter
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithBlurrer replaces the Gaussian blur implementation.
func WithBlurrer(b Blurrer) Option {
	return func(c *Compositor) {
		if b != nil {
			c.blurrer = b
		}
	}
}

// WithDiscRadius sets the splat disc radius in pixels.
func WithDiscRadius(radius float64) Option {
	return func(c *Compositor) {
		if radius > 0 {
			c.splat = newSplatter(radius)
		}
	}
}

// New creates a Compositor.
func New(opts ...Option) *Compositor {
	c := &Compositor{
		blurrer: GaussianBlurrer{},
		splat:   newSplatter(DefaultDiscRadius),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Render composites grid with the default Compositor and returns PNG bytes.
func Render(grid *depthmap.Grid, p Params) ([]byte, error) {
	return New().Render(grid, p)
}

// Render composites grid and encodes the result as PNG. It returns either a
// complete image or an error, never partial output.
func (c *Compositor) Render(grid *depthmap.Grid, p Params) ([]byte, error) {
	res, err := c.Composite(grid, p)
	if err != nil {
		return nil, err
	}
	data, err := imagecodec.EncodePNG(res.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return data, nil
}

// Composite runs the band compositor over grid.
func (c *Compositor) Composite(grid *depthmap.Grid, p Params) (*Result, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: nil grid", ErrRender)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	// Step 1: calibrate the depth codes against the scene distance
	sceneDepth := SceneDepth(p.SceneDistance)

	// Step 2: per-render buffers
	bounds := grid.Bounds()
	r := &run{
		c:       c,
		grid:    grid,
		bounds:  bounds,
		out:     image.NewNRGBA(bounds),
		draw:    models.NewLayer(bounds),
		working: models.NewLayer(bounds),
		scratch: models.NewLayer(bounds),
	}
	acc := newAccumulator()

	// Step 3: walk samples far to near; each sample is drawn first, then a
	// change of blur value flushes the pending band with its own value
	for s := range grid.All() {
		distance := DepthToDistance(s.Depth, p.SceneDistance, sceneDepth)
		blur := BlurValue(p, distance)
		c.splat.splat(r.draw.Image, s.X, s.Y, s.Color)
		if pending, flush := acc.observe(blur); flush {
			r.flush(pending)
		}
	}

	// Step 4: the last band
	if pending, flush := acc.finish(); flush {
		r.flush(pending)
	}

	Logger().Info("dof composite finished",
		"width", bounds.Dx(),
		"height", bounds.Dy(),
		"samples", grid.Len(),
		"bands", len(r.bands),
		"sceneDepth", sceneDepth)

	return &Result{Image: r.out, Bands: r.bands}, nil
}

// run holds the buffers of a single composite.
type run struct {
	c      *Compositor
	grid   *depthmap.Grid
	bounds image.Rectangle

	out     *image.NRGBA
	draw    *models.Layer
	working *models.Layer
	scratch *models.Layer

	bands []Band
}

// flush composites the pending band over the output and clears the layers.
func (r *run) flush(band Band) {
	r.working.Reset()
	xdraw.Draw(r.working.Image, r.bounds, r.draw.Image, r.bounds.Min, xdraw.Over)
	r.restoreHidden()

	blurred := r.working.Image
	if band.Blur >= minBlur {
		r.c.blurrer.Blur(r.scratch.Image, r.working.Image, float32(band.Blur))
		blurred = r.scratch.Image
		band.Blurred = true
	}

	xdraw.Draw(r.out, r.bounds, blurred, r.bounds.Min, xdraw.Over)
	r.draw.Reset()
	r.working.Reset()
	r.bands = append(r.bands, band)

	Logger().Debug("dof band flushed",
		"blur", band.Blur,
		"samples", band.Samples,
		"blurred", band.Blurred)
}

// restoreHidden gives every uncovered working pixel its source colour with
// zero alpha.
func (r *run) restoreHidden() {
	for s := range r.grid.All() {
		if r.working.AlphaAt(s.X, s.Y) == 0 {
			r.working.SetHidden(s.X, s.Y, s.Color.R, s.Color.G, s.Color.B)
		}
	}
}
