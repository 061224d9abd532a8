package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ac1965/music2score/internal/config"
	"github.com/ac1965/music2score/internal/pipeline"
	"github.com/ac1965/music2score/internal/report"
)

var convertCmd = &cobra.Command{
	Use:   "convert <audio.wav>",
	Short: "Convert a WAV recording into MIDI, MusicXML and PDF",
	Long: `Convert runs the full pipeline on a WAV recording.

Examples:
  music2score convert build/foo.wav
  music2score convert build/foo.wav --output-dir build --no-pdf

Reuse an existing transcription (build/foo.normalized_basic_pitch.mid)
and regenerate only the MusicXML and PDF:

  music2score convert build/foo.wav --output-dir build --score-only`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

var (
	backendName  string
	outputDir    string
	musescoreCmd string
	pythonPath   string
	sampleRate   int
	noPDF        bool
	scoreOnly    bool
	verbose      bool
	configPath   string
)

func init() {
	convertCmd.Flags().StringVar(&backendName, "backend", "basic-pitch", "Transcription backend (currently only 'basic-pitch')")
	convertCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for MIDI/MusicXML/PDF (default: build)")
	convertCmd.Flags().StringVar(&musescoreCmd, "musescore-cmd", "", "MuseScore CLI command, e.g. 'mscore' or 'musescore4' (default: mscore)")
	convertCmd.Flags().StringVar(&pythonPath, "python", "", "Python interpreter used for Basic Pitch (default: $VIRTUAL_ENV, then python3)")
	convertCmd.Flags().IntVar(&sampleRate, "sample-rate", 0, "Target sample rate for normalization (default: 22050)")
	convertCmd.Flags().BoolVar(&noPDF, "no-pdf", false, "Skip PDF generation (only MIDI and MusicXML)")
	convertCmd.Flags().BoolVar(&scoreOnly, "score-only", false, "Reuse an existing transcription; skip audio→MIDI")
	convertCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	convertCmd.Flags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/music2score/config.toml)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cfg := pipeline.DefaultConfig()
	cfg.InputPath = args[0]
	cfg.Backend = backendName
	cfg.NoPDF = noPDF
	cfg.ScoreOnly = scoreOnly

	// Flags win over the config file, which wins over built-in defaults.
	cfg.OutputDir = pick(outputDir, fileCfg.OutputDir)
	cfg.MuseScoreCmd = pick(musescoreCmd, fileCfg.MuseScoreCmd)
	if sampleRate > 0 {
		cfg.SampleRate = sampleRate
	} else if fileCfg.SampleRate > 0 {
		cfg.SampleRate = fileCfg.SampleRate
	}
	python := pick(pythonPath, fileCfg.Python)

	// Interrupt cancels the in-flight stage's subprocess; there are no
	// per-stage timeouts.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, stopping...")
		cancel()
	}()

	orch := pipeline.NewOrchestrator(python, os.Stdout, verbose)
	result, err := orch.Execute(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	summary := report.Summary{
		Input:      result.Input,
		Normalized: result.Normalized,
		MIDI:       result.MIDI,
		MusicXML:   result.MusicXML,
		ScoreVia:   result.ScoreVia,
		PDF:        result.PDF,
		PDFSkipped: result.PDFSkipped,
	}
	summary.Render(os.Stdout)
	return nil
}

// pick returns the first non-empty value
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
