// Package parabola implements closed-form ray tracing against a parabolic
// mirror. The mirror lives in a plane whose X axis is the optical axis
// (axial distance) and whose Y axis is the height above that axis; the
// surface is x = y²/(4f) with its vertex at the origin and its focus at (f, 0).
//
// All functions are pure. Angles are radians and distances use whatever unit
// the caller supplies, consistently.
package parabola

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// Sentinel is returned by OnAxisIntersection when the reflected ray runs
// parallel to the optical axis. It is deliberately finite: callers average it
// with other intersections.
const Sentinel = 9999999999999.0

// vertexHeight is the height used to sample the near-vertex zone of the
// aperture when estimating the effective focal length.
const vertexHeight = 1.0

// reflectionRayScale sets the length of ReflectionRay relative to f.
const reflectionRayScale = 2.5

// Point is a coordinate in the (axial distance, height) plane.
type Point struct {
	X float64
	Y float64
}

// Vec returns p as a gonum vector.
func (p Point) Vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

func pointOf(v r2.Vec) Point {
	return Point{X: v.X, Y: v.Y}
}

// Segment is an ordered pair of points. A segment starting at the origin is
// used to encode a pure direction.
type Segment struct {
	A Point
	B Point
}

// Delta returns the direction from A to B.
func (s Segment) Delta() r2.Vec {
	return r2.Sub(s.B.Vec(), s.A.Vec())
}

// RayPair holds one incoming ray and its reflection.
type RayPair struct {
	Incoming  Segment
	Reflected Segment
}

// XOnParabola returns the axial coordinate of the mirror surface at height y.
func XOnParabola(focalLength, y float64) float64 {
	return y * y / 4.0 / focalLength
}

// NormalAt returns a segment along the surface normal at height y, centred on
// the mirror point.
func NormalAt(focalLength, y float64) Segment {
	x := XOnParabola(focalLength, y)
	dx := -2.0 * x
	dy := -y
	return Segment{
		A: Point{X: -dy + x, Y: dx + y},
		B: Point{X: dy + x, Y: -dx + y},
	}
}

// TangentAt returns the tangent line at height y, running from its crossing
// of the optical axis (at -x) through the mirror point.
func TangentAt(focalLength, y float64) Segment {
	x := XOnParabola(focalLength, y)
	dx := -2.0 * x
	dy := -y
	return Segment{
		A: Point{X: -x, Y: 0},
		B: Point{X: x - dx, Y: y - dy},
	}
}

// AngleWithAxis returns the direction of s measured from the optical axis.
func AngleWithAxis(s Segment) float64 {
	d := s.Delta()
	return math.Atan2(d.Y, d.X)
}

// AngleBetween returns the signed angle turning a into b.
func AngleBetween(a, b Segment) float64 {
	return AngleWithAxis(b) - AngleWithAxis(a)
}

// ReflectionAngle returns the direction of the ray leaving the mirror at
// height y for a point source at (sourceDistance, sourceHeight).
func ReflectionAngle(focalLength, y, sourceDistance, sourceHeight float64) float64 {
	mirror := Point{X: XOnParabola(focalLength, y), Y: y}
	incoming := Segment{A: mirror, B: Point{X: sourceDistance, Y: sourceHeight}}
	normal := NormalAt(focalLength, y)
	return AngleWithAxis(incoming) + 2.0*AngleBetween(incoming, normal)
}

// ReflectionRay returns the reflected ray as a segment of length 2.5·f
// starting at the mirror point.
func ReflectionRay(focalLength, y, sourceDistance, sourceHeight float64) Segment {
	angle := ReflectionAngle(focalLength, y, sourceDistance, sourceHeight)
	start := Point{X: XOnParabola(focalLength, y), Y: y}
	dir := r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
	end := r2.Add(start.Vec(), r2.Scale(reflectionRayScale*focalLength, dir))
	return Segment{A: start, B: pointOf(end)}
}

// axisCrossing returns where the line through p at the given angle crosses
// the optical axis, or Sentinel when the line is parallel to it.
func axisCrossing(p Point, angle float64) float64 {
	slope := math.Tan(angle)
	if slope == 0 {
		return Sentinel
	}
	return (slope*p.X - p.Y) / slope
}

// OnAxisIntersection returns the axial coordinate where the reflection of an
// on-axis source at sourceDistance, striking the mirror at height y, crosses
// the optical axis.
func OnAxisIntersection(focalLength, y, sourceDistance float64) float64 {
	angle := ReflectionAngle(focalLength, y, sourceDistance, 0)
	return axisCrossing(Point{X: XOnParabola(focalLength, y), Y: y}, angle)
}

// EffectiveFocalLength averages the axis crossings of the edge ray and of a
// near-vertex ray for a source at sourceDistance.
func EffectiveFocalLength(focalLength, radius, sourceDistance float64) float64 {
	crossings := []float64{
		OnAxisIntersection(focalLength, radius, sourceDistance),
		OnAxisIntersection(focalLength, vertexHeight, sourceDistance),
	}
	return stat.Mean(crossings, nil)
}

// Spread is the longitudinal distance between the near-vertex and the edge
// axis crossings. Its sign depends on the geometry; it is not an absolute
// value.
func Spread(efl, radius, sourceDistance float64) float64 {
	return OnAxisIntersection(efl, vertexHeight, sourceDistance) -
		OnAxisIntersection(efl, radius, sourceDistance)
}

// BlurDiscDiameter returns the geometric blur disc cast on a sensor placed
// sensorDistance from the mirror. spread is accepted for symmetry with the
// rest of the chain and does not enter the formula.
func BlurDiscDiameter(radius, efl, sensorDistance, spread float64) float64 {
	return 2.0 * math.Sin(math.Atan(radius/efl)) * (efl - sensorDistance)
}

// estimateDivisor converts a physical blur diameter in pixels into the
// device-independent count reported by BlurDiameterPixels.
const estimateDivisor = 16.0

// BlurDiameterPixels estimates the blur diameter, in device-independent
// pixels, of a point at sourceDistance.
func BlurDiameterPixels(baseFocalLength, radius, sourceDistance, sensorDistance, pixelSize float64) float64 {
	efl := EffectiveFocalLength(baseFocalLength, radius, sourceDistance)
	spread := Spread(efl, radius, sourceDistance)
	return BlurDiscDiameter(radius, efl, sensorDistance, spread) / pixelSize / estimateDivisor
}

// NonParallelRayfan traces rays+1 rays from the source at
// (sourceDistance, sourceHeight) to evenly spaced heights across the aperture
// and returns each incoming ray with its reflection. It returns nil when rays
// is less than one.
func NonParallelRayfan(focalLength, radius, sourceDistance, sourceHeight float64, rays int) []RayPair {
	if rays < 1 {
		return nil
	}
	source := Point{X: sourceDistance, Y: sourceHeight}
	heights := floats.Span(make([]float64, rays+1), -radius, radius)
	out := make([]RayPair, 0, len(heights))
	for _, y := range heights {
		mirror := Point{X: XOnParabola(focalLength, y), Y: y}
		out = append(out, RayPair{
			Incoming:  Segment{A: source, B: mirror},
			Reflected: ReflectionRay(focalLength, y, sourceDistance, sourceHeight),
		})
	}
	return out
}

// ParallelRayfan returns rays incoming parallel to the axis, starting at
// -radius and stepping by 2·radius/rays, each paired with its ideal
// reflection through the focus. Incoming rays run from the mirror out to
// Sentinel on the axis side.
func ParallelRayfan(focalLength, radius float64, rays int) []RayPair {
	if rays < 1 {
		return nil
	}
	step := math.Abs(radius) / float64(rays) * 2.0
	out := make([]RayPair, 0, rays)
	for i := 0; i < rays; i++ {
		y := -radius + float64(i)*step
		mirror := Point{X: XOnParabola(focalLength, y), Y: y}
		out = append(out, RayPair{
			Incoming:  Segment{A: mirror, B: Point{X: Sentinel, Y: y}},
			Reflected: Segment{A: mirror, B: Point{X: focalLength, Y: 0}},
		})
	}
	return out
}

// ParabolaCoords samples the mirror profile at every integer height in
// [-radius, radius).
func ParabolaCoords(focalLength, radius float64) []Point {
	lo, hi := int(-radius), int(radius)
	if hi <= lo {
		return nil
	}
	out := make([]Point, 0, hi-lo)
	for y := lo; y < hi; y++ {
		out = append(out, Point{X: XOnParabola(focalLength, float64(y)), Y: float64(y)})
	}
	return out
}
