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

// CodeQLWrapper builds a CodeQL database for one language and analyzes it
// with the default security queries. The database lives in a scoped work
// directory; compiled languages get a generated build command.
type CodeQLWrapper struct {
	Log *zap.SugaredLogger
}

func (c *CodeQLWrapper) Name() string { return "codeql" }

func (c *CodeQLWrapper) Languages() []string {
	return []string{"c", "cpp", "java", "python", "javascript"}
}

func (c *CodeQLWrapper) Probe() error { return lookPath("codeql") }

func (c *CodeQLWrapper) Run(ctx context.Context, projectDir, language string) (*RawOutput, error) {
	var out *RawOutput
	err := withWorkDir("codeql-", func(work string) error {
		buildCmd, err := c.buildCommand(projectDir, work, language)
		if err != nil {
			return err
		}

		dbDir := filepath.Join(work, "db")
		createArgs := []string{
			"database", "create", dbDir,
			"--language=" + codeqlLanguage(language),
			"--source-root", projectDir,
		}
		if buildCmd != "" {
			createArgs = append(createArgs, "--command", buildCmd)
		}

		c.Log.Debugw("creating codeql database", "language", language)
		if err := runQuiet(ctx, "codeql", createArgs...); err != nil {
			return fmt.Errorf("codeql database create failed: %w", err)
		}

		reportPath := filepath.Join(work, "results.sarif")
		analyzeArgs := []string{
			"database", "analyze", dbDir,
			"--format=sarif-latest",
			"--output", reportPath,
		}
		c.Log.Debugw("analyzing codeql database", "language", language)
		if err := runQuiet(ctx, "codeql", analyzeArgs...); err != nil {
			return fmt.Errorf("codeql database analyze failed: %w", err)
		}

		data, err := os.ReadFile(reportPath)
		if err != nil {
			return fmt.Errorf("codeql produced no report: %w", err)
		}
		out = &RawOutput{Tool: c.Name(), Format: FormatSARIF, Data: data}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// buildCommand generates the tracing build command for compiled languages.
// C/C++ sources are compiled one by one via a generated script so the tracer
// sees every translation unit. Script and object files live in the
// invocation's work directory: the c and cpp runs of this adapter execute
// concurrently against the same source root and must not share artifacts.
func (c *CodeQLWrapper) buildCommand(projectDir, work, language string) (string, error) {
	switch language {
	case "java":
		return `find . -name "*.java" -exec javac {} +`, nil
	case "c", "cpp":
		sources, err := findSources(projectDir, language)
		if err != nil {
			return "", err
		}
		if len(sources) == 0 {
			return "", fmt.Errorf("no %s sources under %s", language, projectDir)
		}
		compiler := "gcc"
		if language == "cpp" {
			compiler = "g++"
		}
		var script strings.Builder
		script.WriteString("#!/bin/bash\nset -e\n")
		for i, src := range sources {
			rel, err := filepath.Rel(projectDir, src)
			if err != nil {
				rel = src
			}
			fmt.Fprintf(&script, "%s -c %s -o %s\n", compiler, rel, filepath.Join(work, fmt.Sprintf("%d.o", i)))
		}
		scriptPath := filepath.Join(work, "build_codeql.sh")
		if err := os.WriteFile(scriptPath, []byte(script.String()), 0o755); err != nil {
			return "", err
		}
		return scriptPath, nil
	default:
		// Interpreted languages need no build command.
		return "", nil
	}
}

func codeqlLanguage(language string) string {
	// CodeQL uses one extractor for both C and C++.
	if language == "c" {
		return "cpp"
	}
	return language
}

func findSources(projectDir, language string) ([]string, error) {
	exts := map[string]bool{".c": true}
	if language == "cpp" {
		exts = map[string]bool{".cpp": true, ".cc": true, ".cxx": true}
	}
	var files []string
	err := filepath.WalkDir(projectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && exts[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func runQuiet(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w\n%s", err, combined.String())
	}
	return nil
}
