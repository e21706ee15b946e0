package wrappers

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// SemgrepWrapper runs Semgrep with the auto ruleset over the whole tree and
// captures its SARIF output from stdout.
type SemgrepWrapper struct {
	Log *zap.SugaredLogger
}

func (s *SemgrepWrapper) Name() string { return "semgrep" }

func (s *SemgrepWrapper) Languages() []string { return []string{LanguageAuto} }

func (s *SemgrepWrapper) Probe() error { return lookPath("semgrep") }

func (s *SemgrepWrapper) Run(ctx context.Context, projectDir, language string) (*RawOutput, error) {
	args := []string{
		"scan",
		"--config=auto",
		"--sarif",
		"--quiet",
		projectDir,
	}
	cmd := exec.CommandContext(ctx, "semgrep", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.Log.Debugw("running semgrep", "dir", projectDir)
	err := cmd.Run()
	code := exitCode(err)
	// Semgrep exits 1 when it finds something; only other codes are failures.
	if err != nil && code != 1 {
		return nil, fmt.Errorf("semgrep failed (exit %d): %w\nstderr: %s", code, err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("semgrep produced no output (exit %d)", code)
	}

	return &RawOutput{Tool: s.Name(), Format: FormatSARIF, Data: stdout.Bytes(), ExitCode: code}, nil
}
