package wrappers

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// SpotBugsWrapper compiles the project's Java sources into a scoped work
// directory and runs SpotBugs in SARIF mode against the class files.
type SpotBugsWrapper struct {
	Log *zap.SugaredLogger
}

func (s *SpotBugsWrapper) Name() string { return "spotbugs" }

func (s *SpotBugsWrapper) Languages() []string { return []string{"java"} }

func (s *SpotBugsWrapper) Probe() error {
	if err := lookPath("spotbugs"); err != nil {
		return err
	}
	// SpotBugs analyzes bytecode, so a JDK is part of the availability check.
	return lookPath("javac")
}

func (s *SpotBugsWrapper) Run(ctx context.Context, projectDir, language string) (*RawOutput, error) {
	var out *RawOutput
	err := withWorkDir("spotbugs-", func(work string) error {
		classesDir := filepath.Join(work, "classes")
		if err := os.MkdirAll(classesDir, 0o755); err != nil {
			return err
		}

		javaFiles, err := findJavaFiles(projectDir)
		if err != nil {
			return err
		}
		if len(javaFiles) == 0 {
			return fmt.Errorf("no java sources under %s", projectDir)
		}

		s.Log.Debugw("compiling java sources", "count", len(javaFiles))
		compileArgs := append([]string{"-d", classesDir, "-sourcepath", projectDir}, javaFiles...)
		compile := exec.CommandContext(ctx, "javac", compileArgs...)
		if output, err := compile.CombinedOutput(); err != nil {
			return fmt.Errorf("javac failed: %w\n%s", err, string(output))
		}

		reportPath := filepath.Join(work, "spotbugs.sarif")
		args := []string{
			"-sarif",
			"-output", reportPath,
			"-sourcepath", projectDir,
			classesDir,
		}
		cmd := exec.CommandContext(ctx, "spotbugs", args...)

		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		s.Log.Debugw("running spotbugs", "dir", projectDir)
		runErr := cmd.Run()
		// SpotBugs exits non-zero when bugs are found; the report file is the
		// source of truth either way.
		data, readErr := os.ReadFile(reportPath)
		if readErr != nil {
			if runErr != nil {
				return fmt.Errorf("spotbugs failed (exit %d): %w\nstderr: %s", exitCode(runErr), runErr, stderr.String())
			}
			return fmt.Errorf("spotbugs produced no report: %w", readErr)
		}

		out = &RawOutput{Tool: s.Name(), Format: FormatSARIF, Data: data, ExitCode: exitCode(runErr)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func findJavaFiles(projectDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(projectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".java") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
