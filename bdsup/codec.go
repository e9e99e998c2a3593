package bdsup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var ErrExternalTool = errors.New("external tool failure")

// Codec is the decode/encode collaborator boundary. The subtitle container
// bitstream is never touched by subtone itself, so any tool that can unpack
// a stream into palettes plus opaque metadata and pack it back fits here.
type Codec interface {
	Decode(ctx context.Context, supPath, workDir string) (*Document, error)
	Encode(ctx context.Context, doc *Document, outPath string) error
}

const jarName = "BDSup2Sub512.jar"

// DefaultJar is the jar location used when no --jar flag is given: next to
// the subtone executable.
func DefaultJar() string {
	exe, err := os.Executable()
	if err != nil {
		return jarName
	}
	return filepath.Join(filepath.Dir(exe), jarName)
}

// Tool implements Codec by shelling out to BDSup2Sub. The "-T keep" flag
// preserves the source frame rate on both directions of the round trip.
type Tool struct {
	Jar     string
	Java    string        // java binary, "java" when empty
	Timeout time.Duration // per invocation, 0 to disable
}

func (t *Tool) Decode(ctx context.Context, supPath, workDir string) (*Document, error) {
	target := filepath.Join(workDir, "frames.xml")
	if err := t.run(ctx, supPath, target); err != nil {
		return nil, err
	}
	return LoadDocument(target)
}

func (t *Tool) Encode(ctx context.Context, doc *Document, outPath string) error {
	return t.run(ctx, doc.Timings, outPath)
}

func (t *Tool) run(ctx context.Context, source, target string) error {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	java := t.Java
	if java == "" {
		java = "java"
	}

	cmd := exec.CommandContext(ctx, java, "-jar", t.Jar, "-T", "keep", "-o", target, source)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %q: %v", ErrExternalTool, source, ctxErr)
		}
		return fmt.Errorf("%w: %q: %v%s", ErrExternalTool, source, err, stderrTail(stderr.String()))
	}

	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("%w: no output produced at %q", ErrExternalTool, target)
	}
	return nil
}

// stderrTail keeps the last few stderr lines for the failure report.
func stderrTail(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	lines := strings.Split(stderr, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return ": " + strings.Join(lines, "; ")
}
