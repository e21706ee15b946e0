package config

import "time"

// Options carries every knob the pipeline needs. It is built once at the CLI
// boundary and passed by value into each component constructor; nothing in
// pkg/ reads argv or the environment.
type Options struct {
	InputDir  string
	OutputDir string

	// LLM verification
	EnableLLM   bool
	LLMProvider string // "openai" (OpenAI-compatible, incl. Ollama), "gemini", "anthropic"
	LLMBaseURL  string
	LLMAPIKey   string
	LLMModel    string
	LLMTimeout  time.Duration
	Workers     int // bounded concurrency for verification requests

	// Auxiliary reachability analysis
	EnableReach  bool
	ReachTimeout time.Duration

	// Adapters
	DisabledTools []string
	ToolTimeout   time.Duration

	// Normalization / aggregation
	SnippetMaxLen int // character bound on Finding snippets
	LineTolerance int // line window for treating findings as the same defect
}

// DefaultOptions returns the built-in defaults. Callers override only what
// their flags set.
func DefaultOptions() Options {
	return Options{
		LLMProvider:   "openai",
		LLMBaseURL:    "http://localhost:11434",
		LLMModel:      "qwen2.5:7b",
		LLMTimeout:    120 * time.Second,
		Workers:       4,
		ReachTimeout:  300 * time.Second,
		ToolTimeout:   180 * time.Second,
		SnippetMaxLen: 200,
		LineTolerance: 2,
	}
}

// ToolDisabled reports whether the named adapter was switched off for this run.
func (o Options) ToolDisabled(name string) bool {
	for _, t := range o.DisabledTools {
		if t == name {
			return true
		}
	}
	return false
}
