package ai

import (
	"context"
	"strings"
)

// Runtime is the one call KPI suggestion needs from a backend: a single
// non-streaming completion.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers accepted by --provider and default_provider.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// NormalizeProvider lowercases name and maps common aliases.
func NormalizeProvider(name string) string {
	switch p := strings.ToLower(strings.TrimSpace(name)); p {
	case "google", "google-ai", "googleai":
		return ProviderGemini
	case "local":
		return ProviderOllama
	case "or", "open-router":
		return ProviderOpenRouter
	default:
		return p
	}
}
