package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestRunEstimate prints estimates without an input image
func TestRunEstimate(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	err := run([]string{"-config", filepath.Join(dir, "none.yaml"), "-estimate"}, &out)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, want := range []string{"Effective focal length", "Blur diameter", "Dawes limit"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected output to mention %q, got:\n%s", want, out.String())
		}
	}
}

// TestRunRender renders a small PNG end to end
func TestRunRender(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "scene.png")
	output := filepath.Join(dir, "out.png")

	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 128})
		}
	}
	f, err := os.Create(input)
	if err != nil {
		t.Fatalf("Failed to create input: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode input: %v", err)
	}
	f.Close()

	var out bytes.Buffer
	args := []string{
		"-config", filepath.Join(dir, "none.yaml"),
		"-input", input,
		"-output", output,
		"-rayfan", filepath.Join(dir, "fan.png"),
		"-blur", "fft",
	}
	if err := run(args, &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("Output not written: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("Output is not a PNG: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "fan.png")); err != nil {
		t.Errorf("Ray fan not written: %v", err)
	}
}

// TestRunInvalidOverride rejects a non-positive radius
func TestRunInvalidOverride(t *testing.T) {
	dir := t.TempDir()
	err := run([]string{"-config", filepath.Join(dir, "none.yaml"), "-radius", "0", "-estimate"}, &bytes.Buffer{})
	if err == nil {
		t.Error("Expected an error for a zero radius")
	}
}

// TestRunInitConfig writes the default configuration
func TestRunInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := run([]string{"-config", path, "-init-config"}, &bytes.Buffer{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Config not written: %v", err)
	}
}
