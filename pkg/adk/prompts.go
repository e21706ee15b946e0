package adk

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/user/sarif-cli/pkg/engine"
)

//go:embed prompts/basic.md prompts/reachability.md
var promptFS embed.FS

// promptVars is the template input for both prompt files.
type promptVars struct {
	Tools        string
	RuleID       string
	RuleName     string
	Category     engine.Category
	Severity     engine.Severity
	File         string
	Line         int
	Message      string
	Corroborated bool
	Path         []engine.Location
	Code         string
}

// RenderPrompt builds the system and user halves of the verification prompt.
// The reachability-aware template is used only when a concrete call path is
// attached; everything else (including unknown reachability) gets the basic
// template.
func RenderPrompt(v *engine.Vulnerability, code string) (VerifyRequest, error) {
	name := "prompts/basic.md"
	var path []engine.Location
	if v.Reachability != nil && v.Reachability.State == engine.ReachReachable && len(v.Reachability.Path) > 0 {
		name = "prompts/reachability.md"
		path = v.Reachability.Path
	}

	raw, err := promptFS.ReadFile(name)
	if err != nil {
		return VerifyRequest{}, err
	}

	// System and human halves are separated by a --- line.
	parts := strings.SplitN(string(raw), "\n---\n", 2)
	if len(parts) != 2 {
		return VerifyRequest{}, fmt.Errorf("prompt file %s missing separator", name)
	}

	tmpl, err := template.New(name).Parse(parts[1])
	if err != nil {
		return VerifyRequest{}, err
	}

	var sb strings.Builder
	err = tmpl.Execute(&sb, promptVars{
		Tools:        strings.Join(v.Tools(), ", "),
		RuleID:       v.Primary.RuleID,
		RuleName:     v.Primary.RuleName,
		Category:     v.Category,
		Severity:     v.Primary.Severity,
		File:         v.Primary.File,
		Line:         v.Primary.Line,
		Message:      v.Primary.Message,
		Corroborated: v.Corroborated,
		Path:         path,
		Code:         code,
	})
	if err != nil {
		return VerifyRequest{}, err
	}

	return VerifyRequest{System: strings.TrimSpace(parts[0]), Prompt: sb.String()}, nil
}
