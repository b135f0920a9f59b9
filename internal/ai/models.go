package ai

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Model metadata and pricing used for defaults and usage estimates.
// Prices are illustrative and should be verified against provider docs.

type ModelInfo struct {
	Name          string  `json:"name"`
	Provider      string  `json:"provider"`
	ContextTokens int     `json:"context_tokens"` // approximate context window
	InputPerK     float64 `json:"input_per_k"`    // USD per 1K input tokens
	OutputPerK    float64 `json:"output_per_k"`   // USD per 1K output tokens
}

var (
	catalogMu sync.RWMutex
	models    = map[string]ModelInfo{
		"gemini-2.0-flash":      {Name: "gemini-2.0-flash", Provider: ProviderGemini, ContextTokens: 1000000, InputPerK: 0.0001, OutputPerK: 0.0004},
		"gemini-2.0-flash-lite": {Name: "gemini-2.0-flash-lite", Provider: ProviderGemini, ContextTokens: 1000000, InputPerK: 0.000075, OutputPerK: 0.0003},
		"gemini-1.5-pro":        {Name: "gemini-1.5-pro", Provider: ProviderGemini, ContextTokens: 2000000, InputPerK: 0.00125, OutputPerK: 0.005},

		"google/gemini-2.0-flash-001": {Name: "google/gemini-2.0-flash-001", Provider: ProviderOpenRouter, ContextTokens: 1000000, InputPerK: 0.0001, OutputPerK: 0.0004},
		"openai/gpt-4o-mini":          {Name: "openai/gpt-4o-mini", Provider: ProviderOpenRouter, ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
		"anthropic/claude-3-haiku":    {Name: "anthropic/claude-3-haiku", Provider: ProviderOpenRouter, ContextTokens: 200000, InputPerK: 0.00025, OutputPerK: 0.00125},
		"deepseek/deepseek-r1:free":   {Name: "deepseek/deepseek-r1:free", Provider: ProviderOpenRouter, ContextTokens: 128000},

		"llama3.1:8b": {Name: "llama3.1:8b", Provider: ProviderOllama, ContextTokens: 128000},
		"qwen2.5:7b":  {Name: "qwen2.5:7b", Provider: ProviderOllama, ContextTokens: 32000},
	}
	defaultModels = map[string]string{
		ProviderGemini:     "gemini-2.0-flash",
		ProviderOpenRouter: "google/gemini-2.0-flash-001",
		ProviderOllama:     "llama3.1:8b",
	}
)

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	mi, ok := models[name]
	return mi, ok
}

// DefaultModel returns the model used when none is configured for provider.
func DefaultModel(provider string) string {
	return defaultModels[NormalizeProvider(provider)]
}

// ResolveModel picks the model to send to provider. A catalogued model that
// belongs to another provider is replaced by the provider default; unknown
// names are passed through.
func ResolveModel(provider, model string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		return DefaultModel(provider)
	}
	if mi, ok := LookupModel(model); ok && mi.Provider != "" && mi.Provider != NormalizeProvider(provider) {
		if d := DefaultModel(provider); d != "" {
			return d
		}
	}
	return model
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, u Usage) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(u.PromptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(u.CompletionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}

// MergeCatalog merges/overrides entries in the in-memory catalog.
func MergeCatalog(m map[string]ModelInfo) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	for k, v := range m {
		if v.Name == "" {
			v.Name = k
		}
		models[k] = v
	}
}

// LoadCatalogFromJSON reads a JSON object of model name to ModelInfo, e.g.
//
//	{"openai/gpt-4o": {"provider": "openrouter", "input_per_k": 0.0025, "output_per_k": 0.01}}
func LoadCatalogFromJSON(path string) (map[string]ModelInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]ModelInfo
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(m) == 0 {
		return nil, errors.New("catalog file holds no models")
	}
	for k, v := range m {
		if v.InputPerK < 0 || v.OutputPerK < 0 {
			return nil, fmt.Errorf("model %q: prices must not be negative", k)
		}
		if v.Provider != "" {
			v.Provider = NormalizeProvider(v.Provider)
		}
		if v.Name == "" {
			v.Name = k
		}
		m[k] = v
	}
	return m, nil
}

// Catalog returns the models for provider ("" for all), sorted by provider then name.
func Catalog(provider string) []ModelInfo {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	out := make([]ModelInfo, 0, len(models))
	for _, v := range models {
		if provider == "" || v.Provider == provider {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Name < out[j].Name
	})
	return out
}
