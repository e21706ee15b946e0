package engine

import (
	"sort"
	"sync"
)

// Tool priority used when picking the representative finding of a group.
// Deep dataflow tools outrank pattern matchers.
var toolPriority = map[string]int{
	"codeql":   40,
	"spotbugs": 30,
	"bandit":   20,
	"semgrep":  10,
}

// Aggregator collects normalized findings from concurrently running adapters
// and merges the ones addressing the same code location and defect category
// into single vulnerabilities. Arrival order never influences the output:
// Aggregate sorts before grouping, so the result is deterministic however the
// adapters were scheduled.
type Aggregator struct {
	mu        sync.Mutex
	findings  []Finding
	tolerance int // line window for treating two findings as the same defect
}

// NewAggregator creates an aggregator with the given line tolerance. A
// tolerance of n merges findings within n lines of an existing cluster.
func NewAggregator(lineTolerance int) *Aggregator {
	if lineTolerance < 0 {
		lineTolerance = 0
	}
	return &Aggregator{tolerance: lineTolerance}
}

// AddFindings ingests findings from one adapter run. Safe for concurrent use.
func (a *Aggregator) AddFindings(fs []Finding) {
	if len(fs) == 0 {
		return
	}
	a.mu.Lock()
	a.findings = append(a.findings, fs...)
	a.mu.Unlock()
}

// Len returns the number of findings ingested so far.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.findings)
}

// Aggregate groups everything ingested so far into deduplicated
// vulnerabilities, ordered by file path, start line, then fingerprint.
// Running it twice over the same findings yields the same set.
func (a *Aggregator) Aggregate() []*Vulnerability {
	a.mu.Lock()
	findings := make([]Finding, len(a.findings))
	copy(findings, a.findings)
	a.mu.Unlock()

	sort.Slice(findings, func(i, j int) bool {
		fi, fj := findings[i], findings[j]
		if fi.File != fj.File {
			return fi.File < fj.File
		}
		if fi.Line != fj.Line {
			return fi.Line < fj.Line
		}
		if fi.Tool != fj.Tool {
			return fi.Tool < fj.Tool
		}
		return fi.RuleID < fj.RuleID
	})

	type groupKey struct {
		file     string
		category Category
	}
	clusters := make(map[groupKey][][]Finding)
	for _, f := range findings {
		key := groupKey{f.File, Categorize(f.RuleID, f.RuleName)}
		cs := clusters[key]
		// Findings arrive sorted by line, so only the last cluster of the
		// group can still be extended.
		if n := len(cs); n > 0 {
			last := cs[n-1]
			if f.Line <= maxLine(last)+a.tolerance {
				cs[n-1] = append(last, f)
				clusters[key] = cs
				continue
			}
		}
		clusters[key] = append(cs, []Finding{f})
	}

	var vulns []*Vulnerability
	for key, cs := range clusters {
		for _, cluster := range cs {
			vulns = append(vulns, buildVulnerability(key.file, key.category, cluster))
		}
	}

	sort.Slice(vulns, func(i, j int) bool {
		vi, vj := vulns[i], vulns[j]
		if vi.Primary.File != vj.Primary.File {
			return vi.Primary.File < vj.Primary.File
		}
		if vi.StartLine != vj.StartLine {
			return vi.StartLine < vj.StartLine
		}
		return vi.ID < vj.ID
	})
	return vulns
}

func buildVulnerability(file string, category Category, cluster []Finding) *Vulnerability {
	start, end := cluster[0].Line, maxLine(cluster)

	primaryIdx := 0
	for i := 1; i < len(cluster); i++ {
		if toolPriority[cluster[i].Tool] > toolPriority[cluster[primaryIdx].Tool] {
			primaryIdx = i
		}
	}

	tools := make(map[string]bool)
	var corroborating []Finding
	for i, f := range cluster {
		tools[f.Tool] = true
		if i != primaryIdx {
			corroborating = append(corroborating, f)
		}
	}

	return &Vulnerability{
		ID:            Fingerprint(file, start, end, category),
		Category:      category,
		Primary:       cluster[primaryIdx],
		Corroborating: corroborating,
		StartLine:     start,
		EndLine:       end,
		Corroborated:  len(tools) >= 2,
		Verdict:       VerdictUnverified,
	}
}

func maxLine(cluster []Finding) int {
	max := cluster[0].Line
	for _, f := range cluster[1:] {
		if f.Line > max {
			max = f.Line
		}
	}
	return max
}
