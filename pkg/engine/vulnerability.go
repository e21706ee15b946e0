package engine

import "fmt"

// Category is the shared defect taxonomy every tool's rule set is mapped onto.
type Category string

const (
	CategoryMemorySafety Category = "memory-safety"
	CategoryInjection    Category = "injection"
	CategoryNullDeref    Category = "null-deref"
	CategoryCredential   Category = "credential-exposure"
	CategoryOther        Category = "other"
)

// Verdict is the verification state of a vulnerability. Transitions only go
// forward: Unverified -> Confirmed or Unverified -> Rejected.
type Verdict string

const (
	VerdictUnverified Verdict = "unverified"
	VerdictConfirmed  Verdict = "confirmed"
	VerdictRejected   Verdict = "rejected"
)

// PatchSource records who produced a patch.
type PatchSource string

const (
	PatchSourceLLM  PatchSource = "llm"
	PatchSourceRule PatchSource = "rule"
)

// Patch is a suggested single-line fix for a confirmed vulnerability.
type Patch struct {
	OriginalLine string      `json:"original_line"`
	PatchedLine  string      `json:"patched_line"`
	Source       PatchSource `json:"source"`
	Explanation  string      `json:"explanation"`
	Confidence   float64     `json:"confidence"`
}

// ReachState is the reachability verdict for a vulnerability's sink.
type ReachState string

const (
	ReachUnknown     ReachState = "unknown"
	ReachReachable   ReachState = "reachable"
	ReachUnreachable ReachState = "unreachable"
)

// Location is one step on a call path.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Symbol string `json:"symbol,omitempty"`
}

// Reachability is the advisory result of the auxiliary analysis. It never
// removes a vulnerability from the pipeline; it only informs prompt selection.
type Reachability struct {
	State ReachState `json:"state"`
	Path  []Location `json:"path,omitempty"`
}

// Vulnerability is a deduplicated, possibly multi-tool-corroborated defect
// candidate. The aggregator creates it; the verification engine is the only
// component allowed to update Verdict and Patch.
type Vulnerability struct {
	ID            string        `json:"id"` // deterministic fingerprint
	Category      Category      `json:"category"`
	Primary       Finding       `json:"primary"`
	Corroborating []Finding     `json:"corroborating,omitempty"`
	StartLine     int           `json:"start_line"` // normalized line range of the cluster
	EndLine       int           `json:"end_line"`
	Corroborated  bool          `json:"corroborated"` // confirmed by >= 2 independent tools
	Reachability  *Reachability `json:"reachability,omitempty"`
	Verdict       Verdict       `json:"verdict"`
	Patch         *Patch        `json:"patch,omitempty"`
}

// Tools returns the distinct tool names that reported this vulnerability,
// primary first.
func (v *Vulnerability) Tools() []string {
	seen := map[string]bool{v.Primary.Tool: true}
	tools := []string{v.Primary.Tool}
	for _, f := range v.Corroborating {
		if !seen[f.Tool] {
			seen[f.Tool] = true
			tools = append(tools, f.Tool)
		}
	}
	return tools
}

// Confirm moves the vulnerability to Confirmed and attaches the patch. A
// confirmed vulnerability always carries a non-empty patch.
func (v *Vulnerability) Confirm(p *Patch) error {
	if v.Verdict != VerdictUnverified {
		return fmt.Errorf("invalid verdict transition %s -> %s", v.Verdict, VerdictConfirmed)
	}
	if p == nil || p.PatchedLine == "" {
		return fmt.Errorf("confirmed vulnerability %s requires a patch", v.ID)
	}
	v.Verdict = VerdictConfirmed
	v.Patch = p
	return nil
}

// Reject moves the vulnerability to Rejected. Rejected vulnerabilities carry
// no patch.
func (v *Vulnerability) Reject() error {
	if v.Verdict != VerdictUnverified {
		return fmt.Errorf("invalid verdict transition %s -> %s", v.Verdict, VerdictRejected)
	}
	v.Verdict = VerdictRejected
	v.Patch = nil
	return nil
}
