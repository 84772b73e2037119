package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"parabolicdof/pkg/config"
	"parabolicdof/pkg/depthmap"
	"parabolicdof/pkg/dof"
	"parabolicdof/pkg/parabola"
	"parabolicdof/pkg/visualization"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("parabolicdof: %v", err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("parabolicdof", flag.ContinueOnError)
	configPath := fs.String("config", "parabolicdof.yaml", "YAML configuration file")
	initConfig := fs.Bool("init-config", false, "Write the default configuration to -config and exit")
	input := fs.String("input", "", "Colour+depth image (alpha is depth) or OpenEXR file with a depth channel")
	output := fs.String("output", "dof.png", "Output PNG filename")
	depthChannel := fs.String("depth-channel", "", "Depth channel for OpenEXR input (default from config)")
	sceneDistance := fs.Float64("scene", 0, "Scene distance override")
	sensorDistance := fs.Float64("sensor", 0, "Sensor distance override")
	pixelSize := fs.Float64("pixel", 0, "Pixel size override")
	radius := fs.Float64("radius", 0, "Mirror radius override")
	focalLength := fs.Float64("focal", 0, "Base focal length override")
	blur := fs.String("blur", "", "Band blur: gaussian or fft (default from config)")
	rayfan := fs.String("rayfan", "", "Write a ray-fan diagnostic PNG to this file")
	estimate := fs.Bool("estimate", false, "Print blur, diffraction and field-of-view estimates")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Default configuration written to %s\n", *configPath)
		return nil
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	// Command line overrides win over the config file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			cfg.Optics.SceneDistance = *sceneDistance
		case "sensor":
			cfg.Optics.SensorDistance = *sensorDistance
		case "pixel":
			cfg.Optics.PixelSize = *pixelSize
		case "radius":
			cfg.Optics.MirrorRadius = *radius
		case "focal":
			cfg.Optics.BaseFocalLength = *focalLength
		case "depth-channel":
			cfg.Render.DepthChannel = *depthChannel
		case "blur":
			cfg.Render.Blur = *blur
		}
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := cfg.LogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	dof.SetLogger(logger)

	if *estimate {
		printEstimates(stdout, cfg)
	}

	if *rayfan != "" {
		d := cfg.Diagnostics
		viewer, err := visualization.NewViewer(cfg.Optics.BaseFocalLength, cfg.Optics.MirrorRadius,
			d.SourceDistance, d.SourceHeight, d.Rays)
		if err != nil {
			return fmt.Errorf("failed to trace ray fan: %w", err)
		}
		if err := viewer.SaveRayfan(*rayfan, d.Width, d.Height); err != nil {
			return fmt.Errorf("failed to save ray fan: %w", err)
		}
		fmt.Fprintf(stdout, "Ray fan saved to: %s\n", *rayfan)
	}

	if *input == "" {
		if !*estimate && *rayfan == "" {
			fs.Usage()
			return fmt.Errorf("no input image")
		}
		return nil
	}

	// Step 1: build the depth-colour grid
	startTime := time.Now()
	var grid *depthmap.Grid
	if strings.EqualFold(filepath.Ext(*input), ".exr") {
		grid, err = depthmap.LoadEXR(*input, cfg.Render.DepthChannel)
	} else {
		grid, err = depthmap.Load(*input)
	}
	if err != nil {
		return err
	}
	logger.Info("grid loaded",
		"path", *input,
		"width", grid.Width(),
		"height", grid.Height(),
		"depths", grid.Depths(),
		"transparent", grid.Transparent(),
		"elapsed", time.Since(startTime))

	// Step 2: composite and encode
	blurrer, err := cfg.Blurrer()
	if err != nil {
		return err
	}
	compositor := dof.New(dof.WithBlurrer(blurrer), dof.WithDiscRadius(cfg.Render.DiscRadius))
	data, err := compositor.Render(grid, cfg.Optics)
	if err != nil {
		return err
	}

	if err := os.WriteFile(*output, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintf(stdout, "Depth-of-field render saved to: %s (%.2f seconds)\n", *output, time.Since(startTime).Seconds())
	return nil
}

// printEstimates reports figures that need no image.
func printEstimates(w io.Writer, cfg *config.Config) {
	o := cfg.Optics
	efl := parabola.EffectiveFocalLength(o.BaseFocalLength, o.MirrorRadius, o.SceneDistance)
	fmt.Fprintf(w, "Effective focal length: %.3f\n", efl)
	fmt.Fprintf(w, "Spread: %.6f\n", parabola.Spread(efl, o.MirrorRadius, o.SceneDistance))
	fmt.Fprintf(w, "Blur diameter: %.1f px\n",
		parabola.BlurDiameterPixels(o.BaseFocalLength, o.MirrorRadius, o.SceneDistance, o.SensorDistance, o.PixelSize))
	fmt.Fprintf(w, "Airy disc radius: %.6f mm\n", parabola.AiryLimit(o.BaseFocalLength, o.MirrorRadius))
	fmt.Fprintf(w, "Dawes limit: %.3f arcsec\n", parabola.DawesLimit(o.MirrorRadius))
	fov := parabola.FieldOfView(o.BaseFocalLength, cfg.Diagnostics.SensorSize)
	fmt.Fprintf(w, "Field of view: %.4f deg\n", fov*180/math.Pi)
	fmt.Fprintf(w, "Reflection angle at rim: %.6f rad\n",
		parabola.ReflectionAngle(o.BaseFocalLength, o.MirrorRadius, cfg.Diagnostics.SourceDistance, cfg.Diagnostics.SourceHeight))
}
