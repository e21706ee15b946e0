package wrappers

import (
	"context"
	"errors"
	"os"
	"os/exec"
)

// Format tells the normalizer how to decode a raw payload.
type Format string

const (
	FormatSARIF      Format = "sarif"
	FormatBanditJSON Format = "bandit-json"
)

// LanguageAuto marks adapters that scan every language in one invocation.
const LanguageAuto = "auto"

// ErrToolUnavailable is returned by Probe when the backing binary is missing.
// The pipeline degrades to a warning and runs the remaining adapters.
var ErrToolUnavailable = errors.New("tool binary not found")

// RawOutput is the captured output of one adapter invocation, before
// normalization.
type RawOutput struct {
	Tool     string
	Format   Format
	Data     []byte
	ExitCode int
}

// Tool wraps one external static analyzer. Implementations never abort the
// pipeline: a failed or timed-out run surfaces as an error the caller logs
// and treats as absence.
type Tool interface {
	Name() string
	// Languages the tool handles. A single LanguageAuto entry means the tool
	// covers every language in one run.
	Languages() []string
	// Probe checks the backing binary is present before any invocation.
	Probe() error
	// Run executes the analyzer against the source tree for one language and
	// returns its raw output.
	Run(ctx context.Context, projectDir, language string) (*RawOutput, error)
}

func lookPath(binary string) error {
	if _, err := exec.LookPath(binary); err != nil {
		return ErrToolUnavailable
	}
	return nil
}

// withWorkDir runs fn with a scoped temporary directory that is removed on
// every exit path, including cancellation.
func withWorkDir(prefix string, fn func(dir string) error) error {
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	return fn(dir)
}

// exitCode extracts the process exit code from a Run error, or 0.
func exitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return 0
}
