package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finding(tool, ruleID, file string, line int) Finding {
	return Finding{
		Tool:     tool,
		RuleID:   ruleID,
		RuleName: ruleID,
		File:     file,
		Line:     line,
		Severity: SeverityWarning,
		Message:  "issue reported by " + tool,
	}
}

func TestAggregateMergesNearbySameCategory(t *testing.T) {
	agg := NewAggregator(2)
	agg.AddFindings([]Finding{
		finding("semgrep", "buffer-overflow", "src/main.c", 10),
		finding("codeql", "cwe-120", "src/main.c", 11),
	})

	vulns := agg.Aggregate()
	require.Len(t, vulns, 1)

	v := vulns[0]
	assert.Equal(t, CategoryMemorySafety, v.Category)
	assert.Equal(t, 10, v.StartLine)
	assert.Equal(t, 11, v.EndLine)
	assert.True(t, v.Corroborated)
	assert.Equal(t, VerdictUnverified, v.Verdict)
	// codeql outranks semgrep for the representative finding.
	assert.Equal(t, "codeql", v.Primary.Tool)
	assert.Equal(t, []string{"codeql", "semgrep"}, v.Tools())
}

func TestAggregateKeepsDistantFindingsApart(t *testing.T) {
	agg := NewAggregator(2)
	agg.AddFindings([]Finding{
		finding("bandit", "B608", "app.py", 5),
		finding("bandit", "B608", "app.py", 40),
	})

	vulns := agg.Aggregate()
	require.Len(t, vulns, 2)
	assert.False(t, vulns[0].Corroborated)
	assert.False(t, vulns[1].Corroborated)
	assert.NotEqual(t, vulns[0].ID, vulns[1].ID)
}

func TestAggregateSeparatesCategoriesOnSameLine(t *testing.T) {
	agg := NewAggregator(2)
	agg.AddFindings([]Finding{
		finding("semgrep", "sql-injection", "app.py", 12),
		finding("bandit", "B105-hardcoded", "app.py", 12),
	})

	vulns := agg.Aggregate()
	require.Len(t, vulns, 2)

	categories := []Category{vulns[0].Category, vulns[1].Category}
	assert.Contains(t, categories, CategoryInjection)
	assert.Contains(t, categories, CategoryCredential)
}

func TestAggregateOrderIndependent(t *testing.T) {
	fs := []Finding{
		finding("codeql", "cwe-476", "lib/util.c", 30),
		finding("semgrep", "null-deref", "lib/util.c", 31),
		finding("bandit", "B608", "app.py", 7),
		finding("semgrep", "sql-injection", "app.py", 8),
	}

	forward := NewAggregator(2)
	forward.AddFindings(fs)

	reversed := NewAggregator(2)
	for i := len(fs) - 1; i >= 0; i-- {
		reversed.AddFindings([]Finding{fs[i]})
	}

	if diff := cmp.Diff(forward.Aggregate(), reversed.Aggregate()); diff != "" {
		t.Errorf("aggregation depends on arrival order (-forward +reversed):\n%s", diff)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	agg := NewAggregator(2)
	agg.AddFindings([]Finding{
		finding("codeql", "cwe-120", "src/main.c", 10),
		finding("semgrep", "buffer-overflow", "src/main.c", 12),
	})

	first := agg.Aggregate()
	second := agg.Aggregate()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated aggregation differs (-first +second):\n%s", diff)
	}
}

func TestAggregateToleranceChaining(t *testing.T) {
	// 10 and 12 merge, 12 and 14 merge, so all three form one cluster even
	// though 10 and 14 alone would not.
	agg := NewAggregator(2)
	agg.AddFindings([]Finding{
		finding("semgrep", "buffer-overflow", "src/main.c", 10),
		finding("bandit", "buffer-overflow", "src/main.c", 12),
		finding("codeql", "cwe-120", "src/main.c", 14),
	})

	vulns := agg.Aggregate()
	require.Len(t, vulns, 1)
	assert.Equal(t, 10, vulns[0].StartLine)
	assert.Equal(t, 14, vulns[0].EndLine)
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("src/main.c", 10, 12, CategoryMemorySafety)
	b := Fingerprint("src/main.c", 10, 12, CategoryMemorySafety)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, Fingerprint("src/main.c", 10, 12, CategoryInjection))
	assert.NotEqual(t, a, Fingerprint("src/other.c", 10, 12, CategoryMemorySafety))
	assert.NotEqual(t, a, Fingerprint("src/main.c", 11, 12, CategoryMemorySafety))
}
