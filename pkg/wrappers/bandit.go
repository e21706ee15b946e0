package wrappers

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// BanditWrapper runs Bandit over Python sources and captures its JSON report.
type BanditWrapper struct {
	Log *zap.SugaredLogger
}

func (b *BanditWrapper) Name() string { return "bandit" }

func (b *BanditWrapper) Languages() []string { return []string{"python"} }

func (b *BanditWrapper) Probe() error { return lookPath("bandit") }

func (b *BanditWrapper) Run(ctx context.Context, projectDir, language string) (*RawOutput, error) {
	cmd := exec.CommandContext(ctx, "bandit", "-r", "-f", "json", "-q", projectDir)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	b.Log.Debugw("running bandit", "dir", projectDir)
	err := cmd.Run()
	code := exitCode(err)
	// Exit 1 means issues were found.
	if err != nil && code != 1 {
		return nil, fmt.Errorf("bandit failed (exit %d): %w\nstderr: %s", code, err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("bandit produced no output (exit %d)", code)
	}

	return &RawOutput{Tool: b.Name(), Format: FormatBanditJSON, Data: stdout.Bytes(), ExitCode: code}, nil
}
