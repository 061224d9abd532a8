package score

import (
	"context"

	apperrors "github.com/ac1965/music2score/internal/errors"
	"github.com/ac1965/music2score/internal/exec"
)

// DefaultMuseScoreCmd is the conventional MuseScore CLI name; operators
// with MuseScore 4 pass "musescore4" instead.
const DefaultMuseScoreCmd = "mscore"

// MuseScore invokes the MuseScore CLI as `<cmd> -o <output> <input>`.
// MuseScore infers both formats from the extensions, so the same
// converter handles MIDI→MusicXML and MusicXML→PDF. A zero exit status
// is taken as success; whether the tool is missing or crashed makes no
// difference to the caller, both are one failed strategy.
type MuseScore struct {
	runner *exec.Runner
	cmd    string
	stage  string
}

// NewMuseScore creates a MuseScore converter for the score-conversion
// stage.
func NewMuseScore(runner *exec.Runner, cmd string) *MuseScore {
	return newMuseScore(runner, cmd, "score_conversion")
}

// NewMuseScoreRenderer creates a MuseScore converter for the PDF render
// stage.
func NewMuseScoreRenderer(runner *exec.Runner, cmd string) *MuseScore {
	return newMuseScore(runner, cmd, "pdf_render")
}

func newMuseScore(runner *exec.Runner, cmd, stage string) *MuseScore {
	if cmd == "" {
		cmd = DefaultMuseScoreCmd
	}
	return &MuseScore{runner: runner, cmd: cmd, stage: stage}
}

func (m *MuseScore) Name() string { return m.cmd }

// Convert runs the CLI. The exit code is authoritative: output-file
// existence is not checked on success.
func (m *MuseScore) Convert(ctx context.Context, inputPath, outputPath string) error {
	result, err := m.runner.Run(ctx, m.cmd, "-o", outputPath, inputPath)
	if err != nil {
		exitCode := -1
		var stderr string
		if result != nil {
			exitCode = result.ExitCode
			stderr = result.Stderr
		}
		return apperrors.NewProcessError("musescore", m.stage, exitCode, stderr, err)
	}
	return nil
}
