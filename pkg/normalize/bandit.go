package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/user/sarif-cli/pkg/engine"
	"github.com/user/sarif-cli/pkg/wrappers"
)

type banditJSON struct {
	Results []struct {
		Filename    string `json:"filename"`
		TestID      string `json:"test_id"`
		TestName    string `json:"test_name"`
		IssueText   string `json:"issue_text"`
		Severity    string `json:"issue_severity"`
		LineNumber  int    `json:"line_number"`
		ColOffset   int    `json:"col_offset"`
		CodeSnippet string `json:"code"`
	} `json:"results"`
}

func (n *Normalizer) fromBandit(raw *wrappers.RawOutput) ([]engine.Finding, error) {
	var doc banditJSON
	if err := json.Unmarshal(raw.Data, &doc); err != nil {
		return nil, fmt.Errorf("parse bandit json: %w", err)
	}

	var findings []engine.Finding
	for _, r := range doc.Results {
		line := r.LineNumber
		if line <= 0 {
			line = 1
		}
		snippet, truncated := n.boundSnippet(r.CodeSnippet)
		findings = append(findings, engine.Finding{
			Tool:      raw.Tool,
			RuleID:    r.TestID,
			RuleName:  r.TestName,
			File:      n.relPath(r.Filename),
			Line:      line,
			Column:    r.ColOffset,
			Severity:  banditSeverity(r.Severity),
			Message:   r.IssueText,
			Snippet:   snippet,
			Truncated: truncated,
			RawSize:   len(raw.Data),
		})
	}
	return findings, nil
}

func banditSeverity(s string) engine.Severity {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH":
		return engine.SeverityError
	case "MEDIUM":
		return engine.SeverityWarning
	default:
		return engine.SeverityNote
	}
}
