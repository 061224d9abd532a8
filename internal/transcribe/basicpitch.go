package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/ac1965/music2score/internal/errors"
	"github.com/ac1965/music2score/internal/exec"
)

// staleExts covers everything Basic Pitch can emit for one input: MIDI,
// model tensor cache, note table and sonified audio. It refuses to
// overwrite any of them, so leftovers are removed before each run.
var staleExts = []string{".mid", ".npz", ".csv", ".wav"}

// BasicPitch transcribes audio with Spotify's Basic Pitch model, invoked
// through the Python runner. Configuration is fixed: default ICASSP 2022
// model, MIDI output only; the pipeline consumes nothing else.
type BasicPitch struct {
	runner *exec.Runner
}

// NewBasicPitch creates the Basic Pitch backend
func NewBasicPitch(runner *exec.Runner) *BasicPitch {
	return &BasicPitch{runner: runner}
}

func (b *BasicPitch) Name() string { return "basic-pitch" }

// Transcribe runs Basic Pitch on wavPath and returns the MIDI it wrote
// into outDir.
func (b *BasicPitch) Transcribe(ctx context.Context, wavPath, outDir string) (string, error) {
	if err := b.runner.CheckPythonDependency(ctx, "basic_pitch"); err != nil {
		return "", fmt.Errorf("%w: %v\n"+
			"Audio→MIDI needs the basic_pitch Python package.\n"+
			"  - If the transcription already exists, re-run with --score-only.\n"+
			"  - Otherwise check the basic_pitch installation/version.",
			apperrors.ErrTranscriberUnavailable, err)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	stem := inputStem(wavPath)
	if err := removeStale(outDir, stem); err != nil {
		return "", err
	}

	result, err := b.runner.RunModule(ctx, "basic_pitch", outDir, wavPath)
	if err != nil {
		exitCode := -1
		var stderr string
		if result != nil {
			exitCode = result.ExitCode
			stderr = result.Stderr
		}
		return "", apperrors.NewProcessError("basic-pitch", "transcription", exitCode, stderr, err)
	}

	return locateOutput(outDir, stem)
}

// inputStem is the input file name without extension, e.g.
// "foo.normalized"; Basic Pitch appends "_basic_pitch" to it.
func inputStem(wavPath string) string {
	name := filepath.Base(wavPath)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// removeStale deletes previous outputs that would make Basic Pitch
// refuse to run.
func removeStale(outDir, stem string) error {
	for _, ext := range staleExts {
		path := filepath.Join(outDir, stem+"_basic_pitch"+ext)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale output %s: %w", path, err)
		}
	}
	return nil
}

// locateOutput finds the produced MIDI: the exact expected name first,
// then any <stem>*.mid in the output directory.
func locateOutput(outDir, stem string) (string, error) {
	preferred := filepath.Join(outDir, stem+"_basic_pitch.mid")
	if _, err := os.Stat(preferred); err == nil {
		return preferred, nil
	}

	pattern := filepath.Join(outDir, stem+"*.mid")
	candidates, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: tried %q and pattern %q under %s",
			apperrors.ErrOutputMissing, filepath.Base(preferred), filepath.Base(pattern), outDir)
	}
	sort.Strings(candidates)
	return candidates[0], nil
}
