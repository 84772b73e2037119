package imagecodec

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/mrjoshuak/go-openexr/exr"
	"github.com/mrjoshuak/go-openexr/exrutil"
)

// DefaultDepthChannel is the conventional OpenEXR depth channel name.
const DefaultDepthChannel = "Z"

// DecodeEXR reads the R, G and B channels plus depthChannel from an OpenEXR
// stream and returns them as an NRGBA image whose alpha carries depth.
//
// Colour is clamped to [0, 1] and scaled to 8 bits without a transfer curve.
// Depth is linear distance: the nearest valid sample maps to 255 and the
// farthest to 1. Samples with non-finite or non-positive depth map to 0.
func DecodeEXR(r io.ReaderAt, size int64, depthChannel string) (*image.NRGBA, error) {
	if depthChannel == "" {
		depthChannel = DefaultDepthChannel
	}

	f, err := exr.Open(r, size)
	if err != nil {
		return nil, fmt.Errorf("open exr: %w", err)
	}
	defer f.Close()

	h := f.Header(0)
	width, height := h.Width(), h.Height()
	channels, err := exrutil.ExtractChannels(f, "R", "G", "B", depthChannel)
	if err != nil {
		return nil, fmt.Errorf("read exr channels: %w", err)
	}

	depth := channels[depthChannel]
	near, far := math.Inf(1), math.Inf(-1)
	for _, z := range depth {
		if !validDepth(z) {
			continue
		}
		near = min(near, float64(z))
		far = max(far, float64(z))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		img.SetNRGBA(i%width, i/width, color.NRGBA{
			R: unitToByte(channels["R"][i]),
			G: unitToByte(channels["G"][i]),
			B: unitToByte(channels["B"][i]),
			A: depthCode(depth[i], near, far),
		})
	}
	return img, nil
}

func validDepth(z float32) bool {
	v := float64(z)
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func unitToByte(v float32) uint8 {
	if math.IsNaN(float64(v)) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}

// depthCode maps a linear depth into 1..255, nearest first.
func depthCode(z float32, near, far float64) uint8 {
	if !validDepth(z) {
		return 0
	}
	if far <= near {
		return 255
	}
	t := (float64(z) - near) / (far - near)
	return uint8(255 - math.Round(t*254))
}
