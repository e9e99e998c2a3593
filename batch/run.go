package batch

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"subtone/bdsup"
	"subtone/pal"
	"subtone/parallel"
	"subtone/tonemap"
)

// Failure records one file that could not be processed. Failures never stop
// the rest of the batch.
type Failure struct {
	Path string
	Err  error
}

func run(ctx context.Context, pool *parallel.Pool, codec bdsup.Codec, files []string,
	policy tonemap.Policy, outDir, palDir string) []Failure {

	var (
		mu       sync.Mutex
		failures []Failure
	)

	total := len(files)
	for i, file := range files {
		pool.Submit(func(current int, path string) func() {
			return func() {
				logger := slog.Default().With("file", filepath.Base(path))
				logger.Info("tonemapping subtitle", "current", current, "total", total)

				if err := processFile(ctx, codec, path, policy, outDir, palDir); err != nil {
					logger.Error("could not tonemap subtitle", "error", err)
					mu.Lock()
					failures = append(failures, Failure{Path: path, Err: err})
					mu.Unlock()
				}
			}
		}(i+1, file))
	}
	pool.Wait()

	return failures
}

// processFile drives one file through the external round trip: decode into
// a work folder, retint every palette, re-encode next to the other outputs.
// The work folder is always cleaned up, also on failure.
func processFile(ctx context.Context, codec bdsup.Codec, path string,
	policy tonemap.Policy, outDir, palDir string) error {

	workDir, err := os.MkdirTemp(outDir, "subtone-*")
	if err != nil {
		return fmt.Errorf("could not create work folder: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			slog.Error("could not clean up work folder", "dir", workDir, "error", rmErr)
		}
	}()

	doc, err := codec.Decode(ctx, path, workDir)
	if err != nil {
		return fmt.Errorf("could not decode %q: %w", path, err)
	}

	if err := doc.Retint(policy); err != nil {
		return fmt.Errorf("could not retint %q: %w", path, err)
	}

	if palDir != "" {
		if err := dumpPalettes(doc, path, palDir); err != nil {
			return fmt.Errorf("could not dump palettes of %q: %w", path, err)
		}
	}

	if err := doc.SaveFrames(); err != nil {
		return fmt.Errorf("could not save frames of %q: %w", path, err)
	}

	outPath := filepath.Join(outDir, filepath.Base(path))
	if err := codec.Encode(ctx, doc, outPath); err != nil {
		return fmt.Errorf("could not encode %q: %w", path, err)
	}

	return nil
}

// dumpPalettes writes all recolored palettes of one subtitle file as a
// single RIFF PAL document, one data chunk per frame in frame order.
func dumpPalettes(doc *bdsup.Document, supPath, palDir string) (err error) {
	pals := make([]color.Palette, 0, len(doc.Frames))
	for _, frame := range doc.Frames {
		pals = append(pals, frame.Img.Palette)
	}

	base := strings.TrimSuffix(filepath.Base(supPath), filepath.Ext(supPath))
	f, err := os.Create(filepath.Join(palDir, base+".pal"))
	if err != nil {
		return fmt.Errorf("could not create palette dump: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("could not close palette dump %q: %w", f.Name(), closeErr)
		}
	}()

	return pal.WriteTo(f, pals)
}
