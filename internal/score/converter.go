// Package score converts symbolic transcriptions into notation formats.
// Conversions are modeled as an ordered list of Converter strategies;
// the first success wins.
package score

import (
	"context"
	"errors"
)

// Converter turns one notation artifact into another, inferring formats
// from the file extensions.
type Converter interface {
	Name() string
	Convert(ctx context.Context, inputPath, outputPath string) error
}

// ConvertFirst tries converters in order and stops at the first success,
// returning the name of the converter that produced the output. Failures
// before the last strategy are reported through warn and the next one is
// tried; the last strategy's error is returned as is.
func ConvertFirst(ctx context.Context, converters []Converter, inputPath, outputPath string, warn func(format string, args ...any)) (string, error) {
	if len(converters) == 0 {
		return "", errors.New("no converters configured")
	}
	for i, c := range converters {
		err := c.Convert(ctx, inputPath, outputPath)
		if err == nil {
			return c.Name(), nil
		}
		if i == len(converters)-1 {
			return "", err
		}
		warn("%s failed (%v); falling back to %s", c.Name(), err, converters[i+1].Name())
	}
	return "", errors.New("unreachable")
}
