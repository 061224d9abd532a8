package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/ac1965/music2score/internal/errors"
)

const (
	MaxFileSize = 200 * 1024 * 1024 // 200MB
)

// ValidateInput checks that the input file exists and is a WAV file.
// Compressed formats are rejected up front; the operator is expected to
// decode them first (ffmpeg) so the preprocessor only deals with PCM.
func ValidateInput(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", apperrors.ErrFileNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}

	if info.Size() > MaxFileSize {
		return fmt.Errorf("%w: maximum size is 200MB", apperrors.ErrUnsupportedFormat)
	}

	ok, err := isWAV(path)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: please provide a WAV file (decode with ffmpeg first)", apperrors.ErrUnsupportedFormat)
	}
	return nil
}

// isWAV checks the RIFF/WAVE magic bytes, falling back to the extension
// for headerless edge cases.
func isWAV(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrCorruptedFile, err)
	}
	defer f.Close()

	header := make([]byte, 12)
	n, err := f.Read(header)
	if err != nil || n < 12 {
		// Too short for a RIFF header; let the extension decide so that
		// truncated files still fail later with a decode error.
		return strings.EqualFold(filepath.Ext(path), ".wav"), nil
	}

	if string(header[:4]) == "RIFF" && string(header[8:12]) == "WAVE" {
		return true, nil
	}

	return false, nil
}
