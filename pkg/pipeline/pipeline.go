// Package pipeline wires the stages together: language detection, concurrent
// tool adapters, normalization, aggregation, optional reachability, LLM
// verification, and report writing. Ownership of the data moves strictly
// forward through the stages, so nothing here needs locking beyond the
// aggregator's ingest mutex and the verifier's worker-pool limit.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/user/sarif-cli/pkg/adk"
	"github.com/user/sarif-cli/pkg/config"
	"github.com/user/sarif-cli/pkg/detect"
	"github.com/user/sarif-cli/pkg/engine"
	"github.com/user/sarif-cli/pkg/normalize"
	"github.com/user/sarif-cli/pkg/reach"
	"github.com/user/sarif-cli/pkg/report"
	"github.com/user/sarif-cli/pkg/wrappers"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Summary is what a run produced, for logging and exit reporting.
type Summary struct {
	Languages       []string
	SkippedTools    []string
	Findings        int
	Vulnerabilities int
	Confirmed       int
	Rejected        int
	Patched         int
	Reports         []string
}

type Pipeline struct {
	Opts     config.Options
	Tools    []wrappers.Tool
	Provider adk.Provider // nil when LLM verification is disabled
	Log      *zap.SugaredLogger
}

// New validates the run configuration and assembles the pipeline.
// Configuration errors are fatal and reported before any analysis starts.
func New(ctx context.Context, opts config.Options, log *zap.SugaredLogger) (*Pipeline, error) {
	info, err := os.Stat(opts.InputDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("input directory %q is not a readable directory", opts.InputDir)
	}
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %q: %w", opts.OutputDir, err)
	}

	var provider adk.Provider
	if opts.EnableLLM {
		provider, err = adk.NewProvider(ctx, opts.LLMProvider, opts.LLMAPIKey, opts.LLMModel, opts.LLMBaseURL)
		if err != nil {
			return nil, fmt.Errorf("configure llm provider: %w", err)
		}
	}

	var tools []wrappers.Tool
	for _, t := range defaultTools(log) {
		if opts.ToolDisabled(t.Name()) {
			log.Infow("tool disabled by configuration", "tool", t.Name())
			continue
		}
		tools = append(tools, t)
	}

	return &Pipeline{Opts: opts, Tools: tools, Provider: provider, Log: log}, nil
}

func defaultTools(log *zap.SugaredLogger) []wrappers.Tool {
	return []wrappers.Tool{
		&wrappers.CodeQLWrapper{Log: log},
		&wrappers.SpotBugsWrapper{Log: log},
		&wrappers.BanditWrapper{Log: log},
		&wrappers.SemgrepWrapper{Log: log},
	}
}

// Run executes the full pipeline. Individual tool or LLM failures degrade to
// warnings; the run fails only on configuration or report-writing errors.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	languages, err := detect.Languages(p.Opts.InputDir)
	if err != nil {
		return nil, fmt.Errorf("language detection: %w", err)
	}
	summary.Languages = languages
	p.Log.Infow("languages detected", "languages", languages)

	agg := engine.NewAggregator(p.Opts.LineTolerance)
	norm := normalize.New(p.Opts.InputDir, p.Opts.SnippetMaxLen, p.Log)

	var ranTools []string
	g := new(errgroup.Group)
	for _, tool := range p.Tools {
		runs := p.plannedRuns(tool, languages)
		if len(runs) == 0 {
			continue
		}
		if err := tool.Probe(); err != nil {
			p.Log.Warnw("tool unavailable, continuing without it",
				"tool", tool.Name(), "error", err)
			summary.SkippedTools = append(summary.SkippedTools, tool.Name())
			continue
		}
		ranTools = append(ranTools, tool.Name())

		for _, language := range runs {
			tool, language := tool, language
			g.Go(func() error {
				p.runAdapter(ctx, tool, language, norm, agg)
				return nil
			})
		}
	}
	g.Wait()
	summary.Findings = agg.Len()
	p.Log.Infow("analysis complete", "findings", summary.Findings)

	vulns := agg.Aggregate()
	summary.Vulnerabilities = len(vulns)

	if p.Opts.EnableReach {
		analyzer := reach.NewAnalyzer(p.Opts.InputDir, p.Opts.ReachTimeout, p.Log)
		for _, v := range vulns {
			r := analyzer.Analyze(ctx, v)
			v.Reachability = &r
		}
	}

	verifier := adk.NewVerifier(p.Provider, p.Opts.InputDir, p.Opts.Workers, p.Opts.LLMTimeout, p.Log)
	verifier.VerifyAll(ctx, vulns)

	for _, v := range vulns {
		switch v.Verdict {
		case engine.VerdictConfirmed:
			summary.Confirmed++
			if v.Patch != nil {
				summary.Patched++
			}
		case engine.VerdictRejected:
			summary.Rejected++
		}
	}

	writer := report.NewWriter(p.Opts.OutputDir, p.Log)
	reports, err := writer.Write(vulns, ranTools)
	if err != nil {
		return summary, fmt.Errorf("write reports: %w", err)
	}
	summary.Reports = reports
	return summary, nil
}

// plannedRuns returns the languages this tool should be invoked for, or a
// single auto entry for whole-tree tools.
func (p *Pipeline) plannedRuns(tool wrappers.Tool, detected []string) []string {
	supported := tool.Languages()
	if len(supported) == 1 && supported[0] == wrappers.LanguageAuto {
		if len(detected) == 0 {
			return nil
		}
		return []string{wrappers.LanguageAuto}
	}
	var runs []string
	for _, lang := range detected {
		for _, s := range supported {
			if s == lang {
				runs = append(runs, lang)
			}
		}
	}
	return runs
}

// runAdapter executes one (tool, language) invocation and folds the outcome
// into the aggregator. Every failure is local: logged, then dropped.
func (p *Pipeline) runAdapter(ctx context.Context, tool wrappers.Tool, language string,
	norm *normalize.Normalizer, agg *engine.Aggregator) {

	runCtx := ctx
	if p.Opts.ToolTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.Opts.ToolTimeout)
		defer cancel()
	}

	raw, err := tool.Run(runCtx, p.Opts.InputDir, language)
	if err != nil {
		p.Log.Warnw("tool execution failed, treating as absent",
			"tool", tool.Name(), "language", language, "error", err)
		return
	}

	findings, err := norm.Normalize(raw)
	if err != nil {
		p.Log.Warnw("tool output unparsable, treating as absent",
			"tool", tool.Name(), "language", language, "error", err)
		return
	}

	p.Log.Infow("tool run complete", "tool", tool.Name(), "language", language,
		"findings", len(findings))
	agg.AddFindings(findings)
}
