package dof

import (
	"errors"
	"fmt"
	"math"

	"parabolicdof/pkg/parabola"
)

var (
	// ErrInvalidParams is returned when render parameters are non-finite or
	// physically meaningless.
	ErrInvalidParams = errors.New("invalid optical parameters")

	// ErrRender is returned when the composited image cannot be produced.
	ErrRender = errors.New("failed to blur image")
)

const (
	// fieldHalfAngle is the half field of view, in degrees, of the reference
	// camera used to calibrate depth codes.
	fieldHalfAngle = 0.51

	// tileDivisor is the number of calibration tiles across the field.
	tileDivisor = 3.69

	// pixelDivisor converts a blur diameter in sensor pixels into the sigma
	// used by the per-band Gaussian.
	pixelDivisor = 8.0

	// sentinelBlur is the band value before the first sample. Real values
	// are never negative.
	sentinelBlur = -2.0

	// minBlur is the smallest band value that gets a Gaussian pass.
	minBlur = 1.0
)

// Params are the optical parameters of one render. All values are in the
// caller's units, used consistently.
type Params struct {
	// SceneDistance is the distance from the mirror to the nearest depth
	// plane (depth code 255).
	SceneDistance float64 `yaml:"sceneDistance"`

	// SensorDistance is the distance from the mirror to the sensor plane.
	SensorDistance float64 `yaml:"sensorDistance"`

	// PixelSize is the size of one sensor pixel.
	PixelSize float64 `yaml:"pixelSize"`

	// MirrorRadius is the aperture radius of the mirror.
	MirrorRadius float64 `yaml:"mirrorRadius"`

	// BaseFocalLength is the geometric focal length of the mirror.
	BaseFocalLength float64 `yaml:"baseFocalLength"`
}

// Validate rejects parameters that would produce NaN or meaningless output.
// Axis-parallel rays are not an error: they propagate parabola.Sentinel.
func (p Params) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"scene distance", p.SceneDistance},
		{"sensor distance", p.SensorDistance},
		{"pixel size", p.PixelSize},
		{"mirror radius", p.MirrorRadius},
		{"base focal length", p.BaseFocalLength},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidParams, f.name)
		}
	}
	if p.MirrorRadius <= 0 {
		return fmt.Errorf("%w: mirror radius must be positive, got %v", ErrInvalidParams, p.MirrorRadius)
	}
	if p.PixelSize <= 0 {
		return fmt.Errorf("%w: pixel size must be positive, got %v", ErrInvalidParams, p.PixelSize)
	}
	if p.BaseFocalLength == 0 {
		return fmt.Errorf("%w: base focal length must be non-zero", ErrInvalidParams)
	}
	return nil
}

// SceneDepth returns the physical depth spanned by the 0–255 depth codes
// for a scene at sceneDistance.
func SceneDepth(sceneDistance float64) float64 {
	sceneWidth := sceneDistance * math.Tan(fieldHalfAngle*math.Pi/180.0)
	tileSize := sceneWidth / tileDivisor
	return ((tileSize * math.Sqrt2 * 6.0) / 2.0) * math.Sqrt(3) * 2.0
}

// DepthToDistance maps a depth code to a distance from the mirror. Code 255
// is the nearest plane, code 0 the farthest.
func DepthToDistance(depth uint8, sceneDistance, sceneDepth float64) float64 {
	mul := sceneDepth / 255.0
	return (255.0-float64(depth))*mul + sceneDistance
}

// QuantizeBlur truncates px to one decimal place and drops its sign.
func QuantizeBlur(px float64) float64 {
	return math.Abs(math.Trunc(px*10.0) / 10.0)
}

// BlurValue returns the quantized blur of a point at distance.
func BlurValue(p Params, distance float64) float64 {
	efl := parabola.EffectiveFocalLength(p.BaseFocalLength, p.MirrorRadius, distance)
	spread := parabola.Spread(efl, p.MirrorRadius, distance)
	px := parabola.BlurDiscDiameter(p.MirrorRadius, efl, p.SensorDistance, spread) / p.PixelSize / pixelDivisor
	return QuantizeBlur(px)
}
