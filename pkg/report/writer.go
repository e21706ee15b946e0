package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/user/sarif-cli/pkg/engine"
	"go.uber.org/zap"
)

const (
	driverName    = "sarif-cli"
	driverVersion = "0.1.0"
	schemaURI     = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
)

// Writer emits one SARIF report per analyzed source file. Writes go through a
// temp file and a rename, so a partially written report is never observable.
type Writer struct {
	OutputDir string
	Log       *zap.SugaredLogger

	runID string
	now   func() time.Time
}

func NewWriter(outputDir string, log *zap.SugaredLogger) *Writer {
	return &Writer{
		OutputDir: outputDir,
		Log:       log,
		runID:     uuid.NewString(),
		now:       time.Now,
	}
}

// Write groups vulnerabilities by source file and writes one report each,
// returning the created paths in deterministic order.
func (w *Writer) Write(vulns []*engine.Vulnerability, tools []string) ([]string, error) {
	byFile := make(map[string][]*engine.Vulnerability)
	for _, v := range vulns {
		byFile[v.Primary.File] = append(byFile[v.Primary.File], v)
	}

	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	var written []string
	for _, file := range files {
		path, err := w.writeOne(file, byFile[file], tools)
		if err != nil {
			return written, err
		}
		w.Log.Infow("report written", "source", file, "report", path)
		written = append(written, path)
	}
	return written, nil
}

func (w *Writer) writeOne(sourceFile string, vulns []*engine.Vulnerability, tools []string) (string, error) {
	results := make([]Result, 0, len(vulns))
	for _, v := range vulns {
		results = append(results, w.buildResult(v))
	}

	log := Log{
		Version: "2.1.0",
		Schema:  schemaURI,
		Runs: []Run{
			{
				Tool: Tool{Driver: Driver{
					Name:           driverName,
					Version:        driverVersion,
					InformationURI: "https://github.com/user/sarif-cli",
				}},
				Results: results,
				Invocations: []Invocation{{
					ExecutionSuccessful: true,
					EndTimeUTC:          w.now().UTC().Format(time.RFC3339),
				}},
				Properties: map[string]interface{}{
					"runId": w.runID,
					"tools": tools,
				},
			},
		},
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sarif: %w", err)
	}

	outPath := filepath.Join(w.OutputDir, ReportName(sourceFile))

	// Atomic: temp file in the same directory, then rename.
	tmp, err := os.CreateTemp(w.OutputDir, ".sarif-*")
	if err != nil {
		return "", fmt.Errorf("create temp report: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("finalize report: %w", err)
	}
	return outPath, nil
}

func (w *Writer) buildResult(v *engine.Vulnerability) Result {
	res := Result{
		RuleID:  v.Primary.RuleID,
		Level:   string(v.Primary.Severity),
		Message: Message{Text: strings.TrimSpace(v.Primary.Message)},
		Locations: []Location{{
			PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: v.Primary.File},
				Region: Region{
					StartLine:   v.Primary.Line,
					StartColumn: v.Primary.Column,
				},
			},
		}},
		Properties: map[string]interface{}{
			"category":           string(v.Category),
			"fingerprint":        v.ID,
			"verdict":            string(v.Verdict),
			"corroboratingTools": v.Tools(),
		},
	}
	if v.Reachability != nil {
		res.Properties["reachability"] = string(v.Reachability.State)
	}

	if v.Patch != nil {
		res.Fixes = []Fix{{
			Description: Message{Text: fmt.Sprintf("%s (source: %s, confidence: %.2f)",
				v.Patch.Explanation, v.Patch.Source, v.Patch.Confidence)},
			ArtifactChanges: []ArtifactChange{{
				ArtifactLocation: ArtifactLocation{URI: v.Primary.File},
				Replacements: []Replacement{{
					DeletedRegion: Region{
						StartLine:   v.Primary.Line,
						StartColumn: 1,
						EndLine:     v.Primary.Line,
					},
					InsertedContent: Message{Text: v.Patch.PatchedLine},
				}},
			}},
		}}
	}
	return res
}

// ReportName derives the deterministic report file name from a source file's
// project-relative path.
func ReportName(sourceFile string) string {
	name := strings.ReplaceAll(filepath.ToSlash(sourceFile), "/", "_")
	return name + ".sarif"
}
