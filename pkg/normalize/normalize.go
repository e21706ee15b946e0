package normalize

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/user/sarif-cli/pkg/engine"
	"github.com/user/sarif-cli/pkg/wrappers"
	"go.uber.org/zap"
)

// TruncationMarker is appended to snippets cut at the configured bound.
const TruncationMarker = " ...[truncated]"

// Normalizer converts raw adapter output into canonical findings. It keeps
// only the fields downstream verification needs; extended rule metadata, help
// text and tool-internal properties are dropped so verbose tools cannot blow
// up context size.
type Normalizer struct {
	ProjectDir    string
	SnippetMaxLen int
	Log           *zap.SugaredLogger
}

func New(projectDir string, snippetMaxLen int, log *zap.SugaredLogger) *Normalizer {
	return &Normalizer{ProjectDir: projectDir, SnippetMaxLen: snippetMaxLen, Log: log}
}

// Normalize decodes one raw payload into findings. Every format produces the
// identical Finding shape, so the aggregator never special-cases tool
// identity beyond the Tool field.
func (n *Normalizer) Normalize(raw *wrappers.RawOutput) ([]engine.Finding, error) {
	if raw == nil {
		return nil, nil
	}
	switch raw.Format {
	case wrappers.FormatSARIF:
		return n.fromSARIF(raw)
	case wrappers.FormatBanditJSON:
		return n.fromBandit(raw)
	default:
		return nil, fmt.Errorf("unknown raw output format %q from %s", raw.Format, raw.Tool)
	}
}

// relPath normalizes a tool-reported path to a slash-separated path relative
// to the project root.
func (n *Normalizer) relPath(p string) string {
	p = filepath.ToSlash(strings.TrimSpace(p))
	if n.ProjectDir != "" {
		if rel, err := filepath.Rel(n.ProjectDir, p); err == nil && !strings.HasPrefix(rel, "..") {
			p = filepath.ToSlash(rel)
		}
	}
	return strings.TrimPrefix(p, "./")
}

// boundSnippet enforces the snippet character bound, marking the cut
// explicitly. The marker is counted inside the bound, and the cut always
// lands on a rune boundary so a truncated snippet stays valid UTF-8.
func (n *Normalizer) boundSnippet(s string) (string, bool) {
	s = strings.TrimRight(s, "\n")
	if n.SnippetMaxLen <= 0 || len(s) <= n.SnippetMaxLen {
		return s, false
	}
	keep := n.SnippetMaxLen - len(TruncationMarker)
	if keep < 0 {
		keep = 0
	}
	for keep > 0 && !utf8.RuneStart(s[keep]) {
		keep--
	}
	return s[:keep] + TruncationMarker, true
}

// shortRuleName reduces a long rule description to its first sentence.
func shortRuleName(desc, fallback string) string {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return fallback
	}
	if idx := strings.Index(desc, ". "); idx > 0 {
		return desc[:idx+1]
	}
	return desc
}
