package adk

import (
	"context"
	"fmt"
)

func NewProvider(ctx context.Context, providerName, apiKey, modelName, baseURL string) (Provider, error) {
	switch providerName {
	case "openai":
		return NewOpenAIProvider(apiKey, modelName, baseURL), nil
	case "gemini":
		return NewGeminiProvider(ctx, apiKey, modelName)
	case "anthropic":
		return NewAnthropicProvider(apiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", providerName)
	}
}
