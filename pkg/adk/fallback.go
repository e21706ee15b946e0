package adk

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/user/sarif-cli/pkg/engine"
	"gopkg.in/yaml.v3"
)

//go:embed fallback_rules.yaml
var fallbackRulesYAML []byte

// fallbackConfidence is recorded on every rule-based patch. LLM patches carry
// the model's own confidence, which ranks above this.
const fallbackConfidence = 0.5

type substitution struct {
	Call        string `yaml:"call"`
	Replacement string `yaml:"replacement"`
	Note        string `yaml:"note"`
}

type fallbackRule struct {
	Category      engine.Category `yaml:"category"`
	Substitutions []substitution  `yaml:"substitutions"`
	Advisory      string          `yaml:"advisory"`
}

// FallbackTable generates deterministic patches when the LLM is disabled or
// fails for one vulnerability. Mapped categories get mechanical substitutions
// or advisory comments; unmapped categories get a generic manual-review
// marker, never a fabricated fix.
type FallbackTable struct {
	rules map[engine.Category]fallbackRule
}

func NewFallbackTable() *FallbackTable {
	var parsed []fallbackRule
	if err := yaml.Unmarshal(fallbackRulesYAML, &parsed); err != nil {
		panic("invalid embedded fallback rule table: " + err.Error())
	}
	rules := make(map[engine.Category]fallbackRule, len(parsed))
	for _, r := range parsed {
		rules[r.Category] = r
	}
	return &FallbackTable{rules: rules}
}

// Generate builds a rule-based patch for the flagged line.
func (t *FallbackTable) Generate(category engine.Category, ruleID, originalLine string) *engine.Patch {
	rule, ok := t.rules[category]
	if !ok {
		return &engine.Patch{
			OriginalLine: originalLine,
			PatchedLine:  originalLine + "  // TODO: Manual review required for " + ruleID,
			Source:       engine.PatchSourceRule,
			Explanation:  fmt.Sprintf("No fallback rule for category %s; flagged for manual review", category),
			Confidence:   fallbackConfidence,
		}
	}

	for _, sub := range rule.Substitutions {
		if idx := callIndex(originalLine, sub.Call); idx >= 0 {
			patched := originalLine[:idx] + sub.Replacement + originalLine[idx+len(sub.Call):]
			patched += "  // TODO: " + sub.Note
			return &engine.Patch{
				OriginalLine: originalLine,
				PatchedLine:  patched,
				Source:       engine.PatchSourceRule,
				Explanation:  fmt.Sprintf("Rule-based patch for %s: replaced %s with %s", ruleID, sub.Call, sub.Replacement),
				Confidence:   fallbackConfidence,
			}
		}
	}

	return &engine.Patch{
		OriginalLine: originalLine,
		PatchedLine:  originalLine + "  // " + rule.Advisory,
		Source:       engine.PatchSourceRule,
		Explanation:  fmt.Sprintf("Rule-based advisory for %s", ruleID),
		Confidence:   fallbackConfidence,
	}
}

// callIndex locates a call to the named function on the line, or -1. The name
// must not be the suffix of a longer identifier: widgets( is not a call to
// gets.
func callIndex(line, call string) int {
	needle := call + "("
	for start := 0; start < len(line); {
		idx := strings.Index(line[start:], needle)
		if idx < 0 {
			return -1
		}
		idx += start
		if idx == 0 || !isIdentChar(line[idx-1]) {
			return idx
		}
		start = idx + 1
	}
	return -1
}

func isIdentChar(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
