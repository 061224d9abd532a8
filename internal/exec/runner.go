package exec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Result holds command execution output
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes external commands with context support
type Runner struct {
	PythonPath string
}

// NewRunner creates a new command runner
func NewRunner(pythonPath string) *Runner {
	if pythonPath == "" {
		// Prefer the active virtual environment's interpreter
		if venv := os.Getenv("VIRTUAL_ENV"); venv != "" {
			venvPython := filepath.Join(venv, "bin", "python")
			if _, err := os.Stat(venvPython); err == nil {
				pythonPath = venvPython
			}
		}
		if pythonPath == "" {
			pythonPath = "python3"
		}
	}
	return &Runner{PythonPath: pythonPath}
}

// Run executes an external tool and captures output
func (r *Runner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	return r.execute(ctx, name, args...)
}

// RunModule executes a Python module with -m flag
func (r *Runner) RunModule(ctx context.Context, module string, args ...string) (*Result, error) {
	fullArgs := append([]string{"-m", module}, args...)
	result, err := r.execute(ctx, r.PythonPath, fullArgs...)
	if err != nil {
		return result, fmt.Errorf("module %s failed: %w\nstderr: %s", module, err, result.Stderr)
	}
	return result, nil
}

// execute runs a command and captures output
func (r *Runner) execute(ctx context.Context, name string, args ...string) (*Result, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
	}

	if err != nil {
		return result, fmt.Errorf("command failed: %w", err)
	}

	return result, nil
}

// CheckPythonDependency verifies a Python package is installed
func (r *Runner) CheckPythonDependency(ctx context.Context, packageName string) error {
	result, err := r.execute(ctx, r.PythonPath, "-c", fmt.Sprintf("import %s", packageName))
	if err != nil {
		if result != nil && result.Stderr != "" {
			return fmt.Errorf("%s not importable: %s", packageName, result.Stderr)
		}
		return fmt.Errorf("%s not importable: %w", packageName, err)
	}
	return nil
}
