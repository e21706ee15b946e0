package engine

// Severity is the normalized SARIF-style level shared by all tools.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Finding represents a normalized security finding from any tool. It is
// created once by the normalizer and never mutated afterwards.
type Finding struct {
	Tool      string   `json:"tool"`
	RuleID    string   `json:"rule_id"`
	RuleName  string   `json:"rule_name"` // short name, not the full description
	File      string   `json:"file"`      // slash-separated, relative to the project root
	Line      int      `json:"line"`      // 1-based
	Column    int      `json:"column,omitempty"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	Snippet   string   `json:"snippet,omitempty"` // bounded, see Options.SnippetMaxLen
	Truncated bool     `json:"truncated,omitempty"`
	RawSize   int      `json:"raw_size,omitempty"` // bytes of raw tool output behind this finding
}
