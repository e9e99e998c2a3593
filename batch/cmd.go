package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"

	"subtone/bdsup"
	"subtone/parallel"
	"subtone/tonemap"
)

// CLICmd is the tonemap command: resolve the policy once, then push every
// discovered subtitle file through the external round trip.
type CLICmd struct {
	Input      string        `arg:"" help:"Subtitle .sup file or folder of .sup files" type:"path"`
	Output     string        `help:"Destination folder for tonemapped subtitles" short:"o" required:""`
	Percentage int           `help:"Brightness percentage to scale colors by" short:"p" default:"60" group:"policy"`
	Fixed      bool          `help:"Tonemap toward a fixed base color instead of scaling" short:"f" group:"policy"`
	Color      string        `help:"Base color as 6 hex digits, implies fixed-base mode" short:"c" group:"policy"`
	Perceptual bool          `help:"Blend fixed-base colors in Oklab space" group:"policy"`
	PaletteDir string        `help:"Also dump each file's recolored palettes as RIFF PAL files into this folder" group:"debug"`
	Jar        string        `help:"Path to the BDSup2Sub jar, defaults to next to the executable" group:"tool"`
	Java       string        `help:"Java binary used to run the jar" default:"java" group:"tool"`
	Timeout    time.Duration `help:"Per-invocation timeout for the external tool, 0 to disable" group:"tool"`

	policy tonemap.Policy `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	input, err := filepath.Abs(c.Input)
	if err == nil {
		_, err = os.Stat(input)
	}
	if err != nil {
		return fmt.Errorf("invalid input path %q: %w", c.Input, err)
	}
	c.Input = input

	if c.Output, err = filepath.Abs(c.Output); err != nil {
		return fmt.Errorf("invalid output path %q: %w", c.Output, err)
	}

	if c.PaletteDir != "" {
		if c.PaletteDir, err = filepath.Abs(c.PaletteDir); err != nil {
			return fmt.Errorf("invalid palette dump path %q: %w", c.PaletteDir, err)
		}
	}

	if c.Jar == "" {
		c.Jar = bdsup.DefaultJar()
	}
	if _, err := os.Stat(c.Jar); err != nil {
		return fmt.Errorf("BDSup2Sub jar not found at %q: %w", c.Jar, err)
	}

	c.policy, err = tonemap.Resolve(tonemap.Options{
		Percentage: c.Percentage,
		Fixed:      c.Fixed,
		Color:      c.Color,
		Perceptual: c.Perceptual,
	})
	return err
}

func (c *CLICmd) Run(pool *parallel.Pool) error {
	start := time.Now()

	files, err := Discover(c.Input)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		slog.Info("no subtitle files found", "input", c.Input)
		return nil
	}

	if err := os.MkdirAll(c.Output, 0o755); err != nil {
		return fmt.Errorf("unable to create output folder %q: %w", c.Output, err)
	}
	if c.PaletteDir != "" {
		if err := os.MkdirAll(c.PaletteDir, 0o755); err != nil {
			return fmt.Errorf("unable to create palette dump folder %q: %w", c.PaletteDir, err)
		}
	}

	codec := &bdsup.Tool{Jar: c.Jar, Java: c.Java, Timeout: c.Timeout}
	failures := run(context.Background(), pool, codec, files, c.policy, c.Output, c.PaletteDir)

	slog.Info("stats",
		"processed", len(files)-len(failures),
		"failed", len(failures),
		"total", len(files),
		"elapsed", time.Since(start).Round(time.Millisecond))

	if len(failures) > 0 {
		for _, failure := range failures {
			slog.Error("file failed", "file", failure.Path, "error", failure.Err)
		}
		return fmt.Errorf("error processing %d files", len(failures))
	}
	return nil
}
