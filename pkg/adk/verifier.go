package adk

import (
	"context"
	"time"

	"github.com/user/sarif-cli/pkg/engine"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Verifier drives the verification stage: one LLM request per vulnerability,
// dispatched through a bounded worker pool, with rule-based fallback whenever
// the LLM is disabled, unreachable, or returns something unparsable. Failures
// are isolated per vulnerability and never abort the siblings.
type Verifier struct {
	Provider   Provider // nil when LLM verification is disabled
	ProjectDir string
	Workers    int
	Timeout    time.Duration
	Fallback   *FallbackTable
	Log        *zap.SugaredLogger
}

func NewVerifier(provider Provider, projectDir string, workers int, timeout time.Duration, log *zap.SugaredLogger) *Verifier {
	if workers < 1 {
		workers = 1
	}
	return &Verifier{
		Provider:   provider,
		ProjectDir: projectDir,
		Workers:    workers,
		Timeout:    timeout,
		Fallback:   NewFallbackTable(),
		Log:        log,
	}
}

// VerifyAll resolves the verdict and patch of every vulnerability. Each
// vulnerability is owned by exactly one worker, so no locking is needed
// beyond the pool's admission limit.
func (v *Verifier) VerifyAll(ctx context.Context, vulns []*engine.Vulnerability) {
	g := new(errgroup.Group)
	g.SetLimit(v.Workers)
	for _, vuln := range vulns {
		vuln := vuln
		g.Go(func() error {
			v.verifyOne(ctx, vuln)
			return nil
		})
	}
	g.Wait()
}

func (v *Verifier) verifyOne(ctx context.Context, vuln *engine.Vulnerability) {
	code, originalLine, err := ReadContext(v.ProjectDir, vuln.Primary.File, vuln.Primary.Line)
	if err != nil {
		// Without the source line there is nothing to verify or patch.
		v.Log.Warnw("source unreadable, leaving unverified",
			"vulnerability", vuln.ID, "error", err)
		return
	}

	if v.Provider != nil {
		if done := v.verifyWithLLM(ctx, vuln, code, originalLine); done {
			return
		}
		// LLMUnavailable for this one vulnerability; fall through.
	}

	patch := v.Fallback.Generate(vuln.Category, vuln.Primary.RuleID, originalLine)
	if err := vuln.Confirm(patch); err != nil {
		v.Log.Errorw("fallback confirm failed", "vulnerability", vuln.ID, "error", err)
	}
}

// verifyWithLLM returns true when the LLM produced a usable verdict. False
// means the caller should take the rule-based path.
func (v *Verifier) verifyWithLLM(ctx context.Context, vuln *engine.Vulnerability, code, originalLine string) bool {
	req, err := RenderPrompt(vuln, code)
	if err != nil {
		v.Log.Warnw("prompt rendering failed", "vulnerability", vuln.ID, "error", err)
		return false
	}

	callCtx := ctx
	if v.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}

	resp, err := v.Provider.Verify(callCtx, req)
	if err != nil {
		v.Log.Warnw("llm verification unavailable, using rule-based fallback",
			"vulnerability", vuln.ID, "provider", v.Provider.Name(), "error", err)
		return false
	}

	if !resp.IsValid {
		if err := vuln.Reject(); err != nil {
			v.Log.Errorw("reject failed", "vulnerability", vuln.ID, "error", err)
		}
		return true
	}

	if resp.PatchCode == "" {
		// Confirmed but no patch is a contract violation; treat as malformed.
		v.Log.Warnw("llm confirmed without patch, using rule-based fallback",
			"vulnerability", vuln.ID)
		return false
	}

	patch := &engine.Patch{
		OriginalLine: originalLine,
		PatchedLine:  resp.PatchCode,
		Source:       engine.PatchSourceLLM,
		Explanation:  resp.Explanation,
		Confidence:   resp.Confidence,
	}
	if err := vuln.Confirm(patch); err != nil {
		v.Log.Errorw("confirm failed", "vulnerability", vuln.ID, "error", err)
		return true
	}
	return true
}
