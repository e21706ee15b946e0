package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/user/sarif-cli/pkg/engine"
	"github.com/user/sarif-cli/pkg/wrappers"
)

// Trimmed-down SARIF input shape. Only the fields the pipeline consumes are
// declared; everything else in the (often enormous) payload is skipped by the
// decoder.
type sarifInput struct {
	Runs []struct {
		Tool struct {
			Driver struct {
				Rules []struct {
					ID               string `json:"id"`
					ShortDescription struct {
						Text string `json:"text"`
					} `json:"shortDescription"`
				} `json:"rules"`
			} `json:"driver"`
		} `json:"tool"`
		Results []sarifResult `json:"results"`
	} `json:"runs"`
}

type sarifResult struct {
	RuleID  string `json:"ruleId"`
	Level   string `json:"level"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
	Locations []struct {
		PhysicalLocation struct {
			ArtifactLocation struct {
				URI string `json:"uri"`
			} `json:"artifactLocation"`
			Region struct {
				StartLine   int `json:"startLine"`
				StartColumn int `json:"startColumn"`
				Snippet     struct {
					Text string `json:"text"`
				} `json:"snippet"`
			} `json:"region"`
		} `json:"physicalLocation"`
	} `json:"locations"`
}

// fromSARIF extracts findings one result at a time. The raw payload is
// decoded once; no transformed copy of it is ever materialized.
func (n *Normalizer) fromSARIF(raw *wrappers.RawOutput) ([]engine.Finding, error) {
	var doc sarifInput
	if err := json.Unmarshal(raw.Data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s sarif: %w", raw.Tool, err)
	}

	var findings []engine.Finding
	for _, run := range doc.Runs {
		// Short rule names only; long descriptions and help text stay behind.
		ruleNames := make(map[string]string, len(run.Tool.Driver.Rules))
		for _, r := range run.Tool.Driver.Rules {
			ruleNames[r.ID] = shortRuleName(r.ShortDescription.Text, r.ID)
		}

		for _, res := range run.Results {
			if res.RuleID == "" {
				continue
			}
			for _, loc := range res.Locations {
				phys := loc.PhysicalLocation
				if phys.ArtifactLocation.URI == "" {
					continue
				}
				line := phys.Region.StartLine
				if line <= 0 {
					line = 1
				}
				snippet, truncated := n.boundSnippet(phys.Region.Snippet.Text)

				name := ruleNames[res.RuleID]
				if name == "" {
					name = res.RuleID
				}
				findings = append(findings, engine.Finding{
					Tool:      raw.Tool,
					RuleID:    res.RuleID,
					RuleName:  name,
					File:      n.relPath(phys.ArtifactLocation.URI),
					Line:      line,
					Column:    phys.Region.StartColumn,
					Severity:  sarifLevel(res.Level),
					Message:   res.Message.Text,
					Snippet:   snippet,
					Truncated: truncated,
					RawSize:   len(raw.Data),
				})
			}
		}
	}
	return findings, nil
}

func sarifLevel(level string) engine.Severity {
	switch level {
	case "error":
		return engine.SeverityError
	case "note", "none":
		return engine.SeverityNote
	default:
		return engine.SeverityWarning
	}
}
