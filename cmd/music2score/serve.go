package main

import (
	"github.com/spf13/cobra"

	"github.com/ac1965/music2score/internal/config"
	"github.com/ac1965/music2score/internal/pipeline"
	"github.com/ac1965/music2score/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface",
	Long: `Start a local web page for uploading a WAV recording and
downloading the generated MIDI, MusicXML and PDF.

Example:
  music2score serve --port 8080`,
	RunE: runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/music2score/config.toml)")
}

func runServe(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	base := pipeline.DefaultConfig()
	base.MuseScoreCmd = fileCfg.MuseScoreCmd
	base.SampleRate = fileCfg.SampleRate

	srv, err := server.New(server.Config{
		Port:     servePort,
		Pipeline: base,
		Python:   fileCfg.Python,
	})
	if err != nil {
		return err
	}
	return srv.Run()
}
