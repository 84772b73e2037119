// Package config provides configuration loading and management for parabolicdof.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"parabolicdof/pkg/dof"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Optics describes the mirror and the scene it images. These are the
	// parameters of a single DOF render.
	Optics dof.Params `yaml:"optics"`

	// Render parameters
	Render struct {
		// DiscRadius is the radius, in pixels, of the disc each sample is
		// splatted into before blurring
		DiscRadius float64 `yaml:"discRadius"`

		// DepthChannel names the depth channel read from OpenEXR input
		DepthChannel string `yaml:"depthChannel"`

		// Blur selects the band blur: "gaussian" (direct) or "fft"
		Blur string `yaml:"blur"`
	} `yaml:"render"`

	// Diagnostics parameters for the ray fan and estimates
	Diagnostics struct {
		// Rays is the number of intervals across the aperture; rays+1 rays are traced
		Rays int `yaml:"rays"`

		// SourceDistance is the axial distance of the diagnostic point source
		SourceDistance float64 `yaml:"sourceDistance"`

		// SourceHeight is the height of the diagnostic point source above the axis
		SourceHeight float64 `yaml:"sourceHeight"`

		// Width and Height are the size of the ray-fan image in pixels
		Width  int `yaml:"width"`
		Height int `yaml:"height"`

		// SensorSize is the sensor diagonal used for the field-of-view estimate
		SensorSize float64 `yaml:"sensorSize"`
	} `yaml:"diagnostics"`

	// Logging parameters
	Logging struct {
		// Level is one of debug, info, warn, error
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Band blur implementations selectable with render.blur
const (
	BlurGaussian = "gaussian"
	BlurFFT      = "fft"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Reference optics: 300 mm dish, 900 mm focal length, 6 µm pixels
	cfg.Optics = dof.Params{
		SceneDistance:   1000,
		SensorDistance:  50,
		PixelSize:       0.006,
		MirrorRadius:    150,
		BaseFocalLength: 900,
	}

	cfg.Render.DiscRadius = dof.DefaultDiscRadius
	cfg.Render.DepthChannel = "Z"
	cfg.Render.Blur = BlurGaussian

	cfg.Diagnostics.Rays = 10
	cfg.Diagnostics.SourceDistance = 2000
	cfg.Diagnostics.SourceHeight = 0
	cfg.Diagnostics.Width = 1024
	cfg.Diagnostics.Height = 512
	cfg.Diagnostics.SensorSize = 6.0

	cfg.Logging.Level = "info"

	return cfg
}

// Validate checks the configuration for values no render can use
func (c *Config) Validate() error {
	var errs []error
	if err := c.Optics.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Render.DiscRadius <= 0 {
		errs = append(errs, fmt.Errorf("render.discRadius must be positive, got %v", c.Render.DiscRadius))
	}
	if _, err := c.Blurrer(); err != nil {
		errs = append(errs, err)
	}
	if c.Diagnostics.Rays < 1 {
		errs = append(errs, fmt.Errorf("diagnostics.rays must be at least 1, got %d", c.Diagnostics.Rays))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel parses Logging.Level
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Logging.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// Blurrer returns the band blur named by Render.Blur
func (c *Config) Blurrer() (dof.Blurrer, error) {
	switch strings.ToLower(strings.TrimSpace(c.Render.Blur)) {
	case BlurGaussian, "":
		return dof.GaussianBlurrer{}, nil
	case BlurFFT:
		return dof.FFTBlurrer{}, nil
	default:
		return nil, fmt.Errorf("render.blur must be %q or %q, got %q", BlurGaussian, BlurFFT, c.Render.Blur)
	}
}

// LoadConfig reads the YAML file at path over DefaultConfig, so keys the
// file omits keep their defaults. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML to path, creating parent directories.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// CreateDefaultConfigFile writes the reference calibration to path.
func CreateDefaultConfigFile(path string) error {
	return SaveConfig(DefaultConfig(), path)
}
