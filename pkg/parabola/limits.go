package parabola

import "math"

// Wavelength is the reference wavelength, in millimetres, used by the
// diffraction helpers (green light, 550 nm).
const Wavelength = 550e-6

// dawesConstant is Dawes' empirical constant in arcsecond·millimetres.
const dawesConstant = 116.0

// AiryLimit returns the radius of the Airy disc in the focal plane, in
// millimetres, for a mirror of the given focal length and radius (both mm).
func AiryLimit(focalLength, radius float64) float64 {
	return 1.22 * Wavelength * focalLength / (2.0 * radius)
}

// AiryAngularLimit returns the Rayleigh angular resolution, in radians, of an
// aperture with the given radius in millimetres.
func AiryAngularLimit(radius float64) float64 {
	return 1.22 * Wavelength / (2.0 * radius)
}

// DawesLimit returns Dawes' resolution limit, in arcseconds, of an aperture
// with the given radius in millimetres.
func DawesLimit(radius float64) float64 {
	return dawesConstant / (2.0 * radius)
}

// FieldOfView returns the full angular field of view, in radians, of a
// sensor of the given size behind a mirror of the given focal length.
func FieldOfView(focalLength, sensorSize float64) float64 {
	return 2.0 * math.Atan(sensorSize/(2.0*focalLength))
}
