// Package visualization draws ray-fan diagnostics of the parabolic mirror:
// the mirror profile, rays from a point source and their reflections.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"parabolicdof/pkg/imagecodec"
	"parabolicdof/pkg/parabola"
)

// Palette used for the diagnostic drawing.
var (
	Background    = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	MirrorColor   = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
	IncomingColor = color.NRGBA{R: 30, G: 110, B: 220, A: 255}
	ReflectColor  = color.NRGBA{R: 220, G: 60, B: 40, A: 255}
	AxisColor     = color.NRGBA{R: 160, G: 160, B: 160, A: 255}
)

// Viewer renders a ray fan traced against a parabolic mirror.
type Viewer struct {
	// focalLength is the geometric focal length of the mirror
	focalLength float64

	// radius is the aperture radius of the mirror
	radius float64

	// rays holds the traced incoming/reflected pairs
	rays []parabola.RayPair

	// profile samples the mirror surface
	profile []parabola.Point

	// lineWidth is the stroke width in pixels
	lineWidth float32
}

// NewViewer traces rays+1 rays from the source at (sourceDistance,
// sourceHeight) and prepares them for drawing.
func NewViewer(focalLength, radius, sourceDistance, sourceHeight float64, rays int) (*Viewer, error) {
	if focalLength <= 0 || radius <= 0 {
		return nil, fmt.Errorf("focal length and radius must be positive")
	}
	if rays < 1 {
		return nil, fmt.Errorf("ray count must be at least 1, got %d", rays)
	}

	return &Viewer{
		focalLength: focalLength,
		radius:      radius,
		rays:        parabola.NonParallelRayfan(focalLength, radius, sourceDistance, sourceHeight, rays),
		profile:     parabola.ParabolaCoords(focalLength, radius),
		lineWidth:   1.5,
	}, nil
}

// Rays returns the traced ray pairs.
func (v *Viewer) Rays() []parabola.RayPair {
	return v.rays
}

// frame maps scene coordinates to pixel coordinates.
type frame struct {
	minX, minY float64
	scale      float64
	height     int
}

// margin keeps strokes inside the raster.
const margin = 2.0

func (f frame) px(p parabola.Point) (float32, float32) {
	x := margin + (p.X-f.minX)*f.scale
	y := float64(f.height) - margin - (p.Y-f.minY)*f.scale
	return float32(x), float32(y)
}

// extent returns the scene box to draw, with coordinates clamped to
// ±2.5·f so that sentinel-length rays do not flatten the drawing.
func (v *Viewer) extent() (minX, minY, maxX, maxY float64) {
	minX, maxX = math.Inf(1), math.Inf(-1)
	minY, maxY = -v.radius, v.radius
	limit := 2.5 * v.focalLength

	grow := func(p parabola.Point) {
		x := math.Max(-limit, math.Min(limit, p.X))
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		y := math.Max(-limit, math.Min(limit, p.Y))
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	for _, p := range v.profile {
		grow(p)
	}
	for _, r := range v.rays {
		grow(r.Incoming.A)
		grow(r.Incoming.B)
		grow(r.Reflected.B)
	}
	return minX, minY, maxX, maxY
}

// Render draws the mirror, the optical axis and the ray fan into a
// width×height image.
func (v *Viewer) Render(width, height int) (*image.NRGBA, error) {
	if width <= 2*margin || height <= 2*margin {
		return nil, fmt.Errorf("image size too small: %dx%d", width, height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(Background), image.Point{}, xdraw.Src)

	minX, minY, maxX, maxY := v.extent()
	spanX, spanY := maxX-minX, maxY-minY
	if spanX <= 0 {
		spanX = 1
	}
	if spanY <= 0 {
		spanY = 1
	}
	f := frame{
		minX:   minX,
		minY:   minY,
		scale:  math.Min((float64(width-1)-2*margin)/spanX, (float64(height-1)-2*margin)/spanY),
		height: height - 1,
	}

	b := img.Bounds()
	axis := vector.NewRasterizer(b.Dx(), b.Dy())
	v.stroke(axis, f, parabola.Segment{A: parabola.Point{X: minX, Y: 0}, B: parabola.Point{X: maxX, Y: 0}})
	mirror := vector.NewRasterizer(b.Dx(), b.Dy())
	for i := 1; i < len(v.profile); i++ {
		v.stroke(mirror, f, parabola.Segment{A: v.profile[i-1], B: v.profile[i]})
	}
	incoming := vector.NewRasterizer(b.Dx(), b.Dy())
	reflected := vector.NewRasterizer(b.Dx(), b.Dy())
	for _, r := range v.rays {
		v.stroke(incoming, f, r.Incoming)
		v.stroke(reflected, f, r.Reflected)
	}

	axis.Draw(img, b, image.NewUniform(AxisColor), image.Point{})
	mirror.Draw(img, b, image.NewUniform(MirrorColor), image.Point{})
	incoming.Draw(img, b, image.NewUniform(IncomingColor), image.Point{})
	reflected.Draw(img, b, image.NewUniform(ReflectColor), image.Point{})
	return img, nil
}

// stroke adds s to z as a quad of the viewer's line width. All quads share
// one winding so overlaps saturate instead of cancelling.
func (v *Viewer) stroke(z *vector.Rasterizer, f frame, s parabola.Segment) {
	ax, ay := f.px(clampPoint(s.A, v.focalLength))
	bx, by := f.px(clampPoint(s.B, v.focalLength))
	dx, dy := bx-ax, by-ay
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		return
	}
	nx, ny := -dy/length*v.lineWidth/2, dx/length*v.lineWidth/2

	z.MoveTo(ax+nx, ay+ny)
	z.LineTo(bx+nx, by+ny)
	z.LineTo(bx-nx, by-ny)
	z.LineTo(ax-nx, ay-ny)
	z.ClosePath()
}

func clampPoint(p parabola.Point, focalLength float64) parabola.Point {
	limit := 2.5 * focalLength
	return parabola.Point{
		X: math.Max(-limit, math.Min(limit, p.X)),
		Y: math.Max(-limit, math.Min(limit, p.Y)),
	}
}

// SaveRayfan renders the fan and writes it as a PNG file.
func (v *Viewer) SaveRayfan(filename string, width, height int) error {
	img, err := v.Render(width, height)
	if err != nil {
		return err
	}
	data, err := imagecodec.EncodePNG(img)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return os.WriteFile(filename, data, 0644)
}
