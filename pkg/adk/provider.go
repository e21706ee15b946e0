package adk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// VerifyRequest is one verification prompt, already rendered and bounded.
type VerifyRequest struct {
	System string
	Prompt string
}

// VerifyResponse is the structured verdict the model must return.
type VerifyResponse struct {
	IsValid     bool    `json:"is_valid"`
	Confidence  float64 `json:"confidence"`
	PatchCode   string  `json:"patch_code"`
	Explanation string  `json:"explanation"`
}

// Provider defines the interface for different AI backends. Every provider is
// treated as fallible and possibly absent; callers fall back to rule-based
// patching per vulnerability.
type Provider interface {
	Name() string
	Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error)
	ListModels(ctx context.Context) ([]string, error)
}

// parseVerdict extracts the JSON verdict from a model reply, tolerating
// markdown fences and prose around the object.
func parseVerdict(text string) (*VerifyResponse, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}
	var resp VerifyResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("malformed verdict: %w", err)
	}
	if resp.Confidence < 0 {
		resp.Confidence = 0
	}
	if resp.Confidence > 1 {
		resp.Confidence = 1
	}
	return &resp, nil
}
