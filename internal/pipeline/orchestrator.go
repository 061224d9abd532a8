// Package pipeline sequences the four conversion stages and owns the
// fallback and resume policy: which failures abort the run, which
// degrade, and how a later stage finds an earlier stage's output on
// disk.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ac1965/music2score/internal/artifact"
	"github.com/ac1965/music2score/internal/audio"
	apperrors "github.com/ac1965/music2score/internal/errors"
	"github.com/ac1965/music2score/internal/exec"
	"github.com/ac1965/music2score/internal/progress"
	"github.com/ac1965/music2score/internal/score"
	"github.com/ac1965/music2score/internal/transcribe"
)

// Config holds pipeline configuration
type Config struct {
	InputPath    string
	OutputDir    string
	Backend      string // transcription backend name
	MuseScoreCmd string
	SampleRate   int
	NoPDF        bool // skip the render stage entirely
	ScoreOnly    bool // resume: reuse an existing transcription
}

// DefaultConfig returns default pipeline configuration
func DefaultConfig() Config {
	return Config{
		OutputDir:    "build",
		Backend:      "basic-pitch",
		MuseScoreCmd: score.DefaultMuseScoreCmd,
		SampleRate:   audio.DefaultSampleRate,
	}
}

// Result lists the artifacts a run actually produced
type Result struct {
	Input      string
	Normalized string // empty in resume mode
	MIDI       string
	MusicXML   string
	ScoreVia   string // converter strategy that produced the MusicXML
	PDF        string // empty when skipped or not generated
	PDFSkipped bool
}

// Orchestrator coordinates the full processing pipeline
type Orchestrator struct {
	runner   *exec.Runner
	progress *progress.Reporter

	// Transcriber overrides backend selection when non-nil; otherwise
	// Config.Backend decides.
	Transcriber transcribe.Backend
}

// NewOrchestrator creates a pipeline orchestrator writing progress to out
func NewOrchestrator(pythonPath string, out io.Writer, verbose bool) *Orchestrator {
	return &Orchestrator{
		runner:   exec.NewRunner(pythonPath),
		progress: progress.NewReporter(out, verbose),
	}
}

// Execute runs the pipeline. In full mode all four stages run in order;
// with cfg.ScoreOnly the first two are skipped and the transcription is
// expected on disk at its derived path. Preprocessing and transcription
// failures abort; the score converter falls back to the library writer;
// the renderer only ever degrades.
func (o *Orchestrator) Execute(ctx context.Context, cfg Config) (*Result, error) {
	input, err := filepath.Abs(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("resolve input path: %w", err)
	}
	if !artifact.Exists(input) {
		return nil, fmt.Errorf("%w: input audio %s", apperrors.ErrFileNotFound, input)
	}

	outDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	paths := artifact.NewSet(input, outDir)
	result := &Result{Input: input}

	var midiPath string
	if cfg.ScoreOnly {
		midiPath, err = o.resume(paths, cfg)
	} else {
		midiPath, err = o.fullRun(ctx, paths, cfg, result)
	}
	if err != nil {
		return nil, err
	}
	result.MIDI = midiPath

	// Stage 3: MIDI → MusicXML, MuseScore first, library fallback second
	o.progress.StartStage(progress.StageScore)
	scorePath := artifact.ScoreFor(midiPath)
	converters := []score.Converter{
		score.NewMuseScore(o.runner, cfg.MuseScoreCmd),
		score.LibraryConverter{},
	}
	via, err := score.ConvertFirst(ctx, converters, midiPath, scorePath, o.progress.Warning)
	if err != nil {
		return nil, fmt.Errorf("score conversion: %w", err)
	}
	result.MusicXML = scorePath
	result.ScoreVia = via
	o.progress.StageComplete("MusicXML written via %s", via)

	// Stage 4: MusicXML → PDF, best-effort
	o.progress.StartStage(progress.StageRender)
	if cfg.NoPDF {
		result.PDFSkipped = true
		o.progress.StageComplete("Skipped (--no-pdf)")
		return result, nil
	}
	renderer := score.NewMuseScoreRenderer(o.runner, cfg.MuseScoreCmd)
	result.PDF = score.RenderPDF(ctx, renderer, scorePath, artifact.DocumentFor(midiPath), o.progress.Warning)
	if result.PDF != "" {
		o.progress.StageComplete("PDF written")
	} else {
		o.progress.StageComplete("PDF not generated")
	}

	return result, nil
}

// fullRun executes the preprocess and transcribe stages and returns the
// produced MIDI path.
func (o *Orchestrator) fullRun(ctx context.Context, paths artifact.Set, cfg Config, result *Result) (string, error) {
	// Stage 1: normalize audio. Always redone; it is cheap and must
	// reflect the current input file.
	o.progress.StartStage(progress.StagePreprocess)
	if err := audio.ValidateInput(paths.Input); err != nil {
		return "", err
	}
	pre := audio.NewPreprocessor(cfg.SampleRate)
	if err := pre.Normalize(paths.Input, paths.Normalized()); err != nil {
		return "", fmt.Errorf("preprocess: %w", err)
	}
	result.Normalized = paths.Normalized()
	o.progress.StageComplete("Normalized to mono %d Hz", pre.SampleRate)

	// Stage 2: audio → MIDI. No fallback engine exists, so any failure
	// here is fatal.
	o.progress.StartStage(progress.StageTranscribe)
	backend := o.Transcriber
	if backend == nil {
		var err error
		backend, err = transcribe.Select(cfg.Backend, o.runner)
		if err != nil {
			return "", err
		}
	}
	midiPath, err := backend.Transcribe(ctx, paths.Normalized(), paths.OutputDir)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	o.progress.StageComplete("MIDI written: %s", filepath.Base(midiPath))
	return midiPath, nil
}

// resume skips straight to the score stage, verifying that a previous
// full run left the transcription at its derived path.
func (o *Orchestrator) resume(paths artifact.Set, cfg Config) (string, error) {
	o.progress.StartStage(progress.StagePreprocess)
	o.progress.StageComplete("Skipped (resume)")
	o.progress.StartStage(progress.StageTranscribe)

	midiPath := paths.Transcription()
	if !artifact.Exists(midiPath) {
		return "", fmt.Errorf("expected transcription not found: %s\n"+
			"Run the full pipeline first to produce it:\n"+
			"  music2score convert %s --output-dir %s",
			midiPath, cfg.InputPath, cfg.OutputDir)
	}
	o.progress.StageComplete("Reusing %s", filepath.Base(midiPath))
	return midiPath, nil
}
