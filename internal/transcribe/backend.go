package transcribe

import (
	"context"
	"fmt"

	"github.com/ac1965/music2score/internal/exec"
)

// Backend is a pluggable audio→MIDI transcription engine.
type Backend interface {
	Name() string
	// Transcribe writes a MIDI transcription of wavPath into outDir and
	// returns the path of the file it produced.
	Transcribe(ctx context.Context, wavPath, outDir string) (string, error)
}

// Select returns the backend for the given name. Basic Pitch is the only
// engine today; the flag exists so another model can slot in without
// touching the pipeline.
func Select(name string, runner *exec.Runner) (Backend, error) {
	switch name {
	case "", "basic-pitch":
		return NewBasicPitch(runner), nil
	default:
		return nil, fmt.Errorf("unknown transcription backend: %q (available: basic-pitch)", name)
	}
}
