package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected failure modes
var (
	ErrFileNotFound           = errors.New("file not found")
	ErrUnsupportedFormat      = errors.New("unsupported format")
	ErrCorruptedFile          = errors.New("file corrupted or unreadable")
	ErrEmptyAudio             = errors.New("audio contains no samples")
	ErrTranscriberUnavailable = errors.New("transcription backend unavailable")
	ErrOutputMissing          = errors.New("expected output file not found")
)

// ProcessError represents a failure in an external process
type ProcessError struct {
	Tool     string // "musescore", "basic-pitch"
	Stage    string // "score_conversion", "pdf_render", "transcription"
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed at %s (exit %d): %s", e.Tool, e.Stage, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s failed at %s (exit %d)", e.Tool, e.Stage, e.ExitCode)
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

// IsRecoverable returns true if a fallback strategy exists. Only the
// MIDI→MusicXML conversion has one; a failed transcription or PDF render
// has no alternative engine.
func (e *ProcessError) IsRecoverable() bool {
	return e.Tool == "musescore" && e.Stage == "score_conversion"
}

// NewProcessError creates a ProcessError
func NewProcessError(tool, stage string, exitCode int, stderr string, cause error) *ProcessError {
	return &ProcessError{
		Tool:     tool,
		Stage:    stage,
		ExitCode: exitCode,
		Stderr:   stderr,
		Cause:    cause,
	}
}
