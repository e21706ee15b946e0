// Package reach computes a lightweight call-graph reachability verdict for a
// vulnerability's sink. It is advisory only: failures and unsupported
// constructs yield ReachUnknown, which the verification stage treats as
// reachable, so a vulnerability is never dropped because reachability could
// not be proven.
package reach

import (
	"context"
	"sync"
	"time"

	"github.com/user/sarif-cli/pkg/engine"
	"go.uber.org/zap"
)

// Analyzer owns one call graph per analyzed project, built lazily on the
// first query.
type Analyzer struct {
	ProjectDir string
	Timeout    time.Duration
	Log        *zap.SugaredLogger

	once     sync.Once
	graph    *callGraph
	buildErr error
}

func NewAnalyzer(projectDir string, timeout time.Duration, log *zap.SugaredLogger) *Analyzer {
	return &Analyzer{ProjectDir: projectDir, Timeout: timeout, Log: log}
}

// Analyze attaches a reachability verdict for the vulnerability's sink
// location. Any failure degrades to ReachUnknown.
func (a *Analyzer) Analyze(ctx context.Context, v *engine.Vulnerability) engine.Reachability {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	a.once.Do(func() {
		a.graph, a.buildErr = buildCallGraph(ctx, a.ProjectDir)
	})
	if a.buildErr != nil {
		a.Log.Warnw("call graph construction failed, reachability unknown", "error", a.buildErr)
		return engine.Reachability{State: engine.ReachUnknown}
	}

	sink := a.graph.enclosing(v.Primary.File, v.Primary.Line)
	if sink == nil {
		// Sink outside any recognized function (global scope, macro, data).
		return engine.Reachability{State: engine.ReachUnknown}
	}

	path := a.graph.pathFromEntry(ctx, sink)
	if ctx.Err() != nil {
		a.Log.Warnw("reachability query timed out", "vulnerability", v.ID)
		return engine.Reachability{State: engine.ReachUnknown}
	}
	if path == nil {
		return engine.Reachability{State: engine.ReachUnreachable}
	}

	locs := make([]engine.Location, 0, len(path)+1)
	for _, fn := range path {
		locs = append(locs, engine.Location{File: fn.File, Line: fn.StartLine, Symbol: fn.Name})
	}
	locs = append(locs, engine.Location{File: v.Primary.File, Line: v.Primary.Line})
	return engine.Reachability{State: engine.ReachReachable, Path: locs}
}
