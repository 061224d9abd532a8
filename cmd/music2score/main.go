package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "music2score",
	Short: "Turn an audio recording into sheet music",
	Long: `music2score converts a WAV recording into a rendered musical score.

Pipeline: audio → normalized WAV → MIDI (Basic Pitch) → MusicXML
(MuseScore, falling back to a built-in writer) → PDF (MuseScore,
best-effort).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(serveCmd)
}
