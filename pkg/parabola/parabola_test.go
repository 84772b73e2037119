package parabola

import (
	"math"
	"testing"
)

const (
	testFocalLength = 900.0
	testRadius      = 150.0
)

// TestXOnParabolaSymmetry verifies that the mirror is symmetric about the axis
func TestXOnParabolaSymmetry(t *testing.T) {
	for _, y := range []float64{0, 0.5, 1, 17.25, 150, 1e4} {
		if XOnParabola(testFocalLength, y) != XOnParabola(testFocalLength, -y) {
			t.Errorf("Expected symmetric profile at y=%v, got %v and %v",
				y, XOnParabola(testFocalLength, y), XOnParabola(testFocalLength, -y))
		}
	}

	if got := XOnParabola(testFocalLength, 60); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("Expected x=1 at y=60, got %v", got)
	}
}

// TestNormalIsPerpendicularToTangent checks the two constructions agree
func TestNormalIsPerpendicularToTangent(t *testing.T) {
	for _, y := range []float64{-120, -3, 2, 45, 149} {
		n := NormalAt(testFocalLength, y).Delta()
		tg := TangentAt(testFocalLength, y).Delta()
		dot := n.X*tg.X + n.Y*tg.Y
		if math.Abs(dot) > 1e-9 {
			t.Errorf("Expected normal and tangent to be perpendicular at y=%v, dot=%v", y, dot)
		}
	}
}

// TestSourceAtFocusReflectsParallel checks the focal property of the parabola
func TestSourceAtFocusReflectsParallel(t *testing.T) {
	for _, y := range []float64{0.5, 2, 10, -10} {
		angle := ReflectionAngle(testFocalLength, y, testFocalLength, 0)
		if math.Abs(math.Sin(angle)) > 1e-9 {
			t.Errorf("Expected ray parallel to the axis at y=%v, got angle %v", y, angle)
		}
	}
}

// TestDistantSourceFocuses checks that near-parallel paraxial rays cross the
// axis at the geometric focus
func TestDistantSourceFocuses(t *testing.T) {
	for _, y := range []float64{1, 5, -5} {
		x := OnAxisIntersection(testFocalLength, y, 1e9)
		if math.Abs(x-testFocalLength) > 1e-2 {
			t.Errorf("Expected crossing near %v at y=%v, got %v", testFocalLength, y, x)
		}
	}
}

// TestOnAxisIntersectionSentinel verifies the zero-slope case
func TestOnAxisIntersectionSentinel(t *testing.T) {
	got := OnAxisIntersection(testFocalLength, 0, 1000)
	if got != Sentinel {
		t.Fatalf("Expected sentinel %v, got %v", Sentinel, got)
	}
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Errorf("Sentinel must be finite, got %v", got)
	}
}

// TestEffectiveFocalLengthIsPure runs the same input twice
func TestEffectiveFocalLengthIsPure(t *testing.T) {
	a := EffectiveFocalLength(testFocalLength, testRadius, 1017.5)
	b := EffectiveFocalLength(testFocalLength, testRadius, 1017.5)
	if math.Float64bits(a) != math.Float64bits(b) {
		t.Errorf("Expected identical results, got %v and %v", a, b)
	}

	want := (OnAxisIntersection(testFocalLength, testRadius, 1017.5) +
		OnAxisIntersection(testFocalLength, 1, 1017.5)) / 2
	if math.Abs(a-want) > 1e-9*math.Abs(want) {
		t.Errorf("Expected mean of edge and vertex crossings %v, got %v", want, a)
	}
}

// TestSpread documents the behaviour of the longitudinal spread
func TestSpread(t *testing.T) {
	far := 1e9
	efl := EffectiveFocalLength(testFocalLength, testRadius, far)
	if s := Spread(efl, testRadius, far); math.Abs(s) > 0.05 {
		t.Errorf("Expected negligible spread for a distant source, got %v", s)
	}

	near := 1000.0
	efl = EffectiveFocalLength(testFocalLength, testRadius, near)
	s := Spread(efl, testRadius, near)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		t.Fatalf("Expected finite spread, got %v", s)
	}
	if s == 0 {
		t.Errorf("Expected non-zero spread for a near source")
	}
	// The sign is a property of the geometry, not an invariant.
	t.Logf("spread(efl=%.3f, r=%v, d=%v) = %.6f (negative=%v)", efl, testRadius, near, s, math.Signbit(s))
}

// TestBlurDiscDiameter checks the in-focus and out-of-focus cases
func TestBlurDiscDiameter(t *testing.T) {
	if got := BlurDiscDiameter(testRadius, 1200, 1200, 0); got != 0 {
		t.Errorf("Expected zero blur at focus, got %v", got)
	}

	got := BlurDiscDiameter(100, 100, 0, 0)
	want := 2 * math.Sin(math.Pi/4) * 100
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if BlurDiscDiameter(testRadius, 1200, 1300, 0) >= 0 {
		t.Errorf("Expected negative diameter for a sensor beyond the focus")
	}

	// spread does not enter the formula
	if a, b := BlurDiscDiameter(testRadius, 1000, 50, 0), BlurDiscDiameter(testRadius, 1000, 50, -3.5); a != b {
		t.Errorf("Expected spread to be ignored, got %v and %v", a, b)
	}
}

// TestReflectionRayFollowsAngle checks the ray points along ReflectionAngle
func TestReflectionRayFollowsAngle(t *testing.T) {
	for _, y := range []float64{-100, -7, 3, 60} {
		angle := ReflectionAngle(testFocalLength, y, 2000, 25)
		ray := ReflectionRay(testFocalLength, y, 2000, 25)
		if got := AngleWithAxis(ray); math.Abs(math.Remainder(got-angle, 2*math.Pi)) > 1e-9 {
			t.Errorf("y=%v: expected ray angle %v, got %v", y, angle, got)
		}
		d := ray.Delta()
		if got := math.Hypot(d.X, d.Y); math.Abs(got-2.5*testFocalLength) > 1e-6 {
			t.Errorf("y=%v: expected length %v, got %v", y, 2.5*testFocalLength, got)
		}
	}
}

// TestBlurDiameterPixels checks the composition and the estimate divisor
func TestBlurDiameterPixels(t *testing.T) {
	d, sensor, px := 1017.66, 50.0, 0.006
	efl := EffectiveFocalLength(testFocalLength, testRadius, d)
	spread := Spread(efl, testRadius, d)
	want := BlurDiscDiameter(testRadius, efl, sensor, spread) / px / 16.0

	got := BlurDiameterPixels(testFocalLength, testRadius, d, sensor, px)
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if got <= 0 {
		t.Errorf("Expected a positive estimate for a sensor inside the focus, got %v", got)
	}
}

// TestNonParallelRayfan verifies the number and layout of the traced rays
func TestNonParallelRayfan(t *testing.T) {
	rays := NonParallelRayfan(testFocalLength, testRadius, 2000, 25, 4)
	if len(rays) != 5 {
		t.Fatalf("Expected 5 ray pairs, got %d", len(rays))
	}

	wantHeights := []float64{-150, -75, 0, 75, 150}
	for i, pair := range rays {
		if pair.Incoming.A != (Point{X: 2000, Y: 25}) {
			t.Errorf("Ray %d: expected incoming ray to start at the source, got %+v", i, pair.Incoming.A)
		}
		if pair.Incoming.B.Y != wantHeights[i] {
			t.Errorf("Ray %d: expected mirror height %v, got %v", i, wantHeights[i], pair.Incoming.B.Y)
		}
		if pair.Reflected.A != pair.Incoming.B {
			t.Errorf("Ray %d: reflected ray must start at the mirror point", i)
		}
		d := pair.Reflected.Delta()
		length := math.Hypot(d.X, d.Y)
		if math.Abs(length-2.5*testFocalLength) > 1e-9*testFocalLength {
			t.Errorf("Ray %d: expected length %v, got %v", i, 2.5*testFocalLength, length)
		}
	}

	if NonParallelRayfan(testFocalLength, testRadius, 2000, 0, 0) != nil {
		t.Errorf("Expected nil for an empty fan")
	}
}

// TestParallelRayfan checks the ideal fan reflects through the focus
func TestParallelRayfan(t *testing.T) {
	rays := ParallelRayfan(testFocalLength, testRadius, 6)
	if len(rays) != 6 {
		t.Fatalf("Expected 6 ray pairs, got %d", len(rays))
	}
	if rays[0].Incoming.A.Y != -testRadius {
		t.Errorf("Expected first ray at -radius, got %v", rays[0].Incoming.A.Y)
	}
	for i, pair := range rays {
		if pair.Reflected.B != (Point{X: testFocalLength, Y: 0}) {
			t.Errorf("Ray %d: expected reflection through the focus, got %+v", i, pair.Reflected.B)
		}
	}
}

// TestParabolaCoords checks the sampled profile
func TestParabolaCoords(t *testing.T) {
	pts := ParabolaCoords(testFocalLength, 3)
	if len(pts) != 6 {
		t.Fatalf("Expected 6 points, got %d", len(pts))
	}
	if pts[0].Y != -3 || pts[len(pts)-1].Y != 2 {
		t.Errorf("Expected heights -3..2, got %v..%v", pts[0].Y, pts[len(pts)-1].Y)
	}
	if ParabolaCoords(testFocalLength, 0) != nil {
		t.Errorf("Expected nil profile for zero radius")
	}
}

// TestLimits checks the diffraction and field helpers against hand values
func TestLimits(t *testing.T) {
	if got := DawesLimit(50); math.Abs(got-1.16) > 1e-12 {
		t.Errorf("Expected Dawes limit 1.16\", got %v", got)
	}

	want := 1.22 * 550e-6 * 900 / 300
	if got := AiryLimit(900, 150); math.Abs(got-want) > 1e-15 {
		t.Errorf("Expected Airy radius %v, got %v", want, got)
	}

	if got := AiryAngularLimit(150); math.Abs(got-1.22*550e-6/300) > 1e-18 {
		t.Errorf("Unexpected angular limit %v", got)
	}

	if got := FieldOfView(100, 200); math.Abs(got-math.Pi/2) > 1e-12 {
		t.Errorf("Expected a 90 degree field, got %v", got)
	}
}
