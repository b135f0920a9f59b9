package config

import (
	"time"

	"github.com/KaramelBytes/insightify-cli/internal/ai"
	"github.com/KaramelBytes/insightify-cli/internal/chart"
	"github.com/KaramelBytes/insightify-cli/internal/ingest"
)

// RuntimeConfig builds the AI runtime settings. A non-empty apiKey
// overrides the configured one.
func (c *Global) RuntimeConfig(apiKey string) ai.RuntimeConfig {
	if apiKey == "" {
		apiKey = c.APIKey
	}
	return ai.RuntimeConfig{
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      apiKey,
		Host:        c.OllamaHost,
	}
}

func (c *Global) SuggestOptions() ai.SuggestOptions {
	o := ai.DefaultSuggestOptions()
	if c.KPICount > 0 {
		o.Count = c.KPICount
	}
	if c.Temperature > 0 {
		o.Temperature = c.Temperature
	}
	if c.MaxTokens > 0 {
		o.MaxTokens = c.MaxTokens
	}
	if t := c.suggestTimeout(); t > 0 {
		o.Timeout = t
	}
	return o
}

// suggestTimeout bounds a whole suggestion: every attempt may use the full
// HTTP timeout and each retry may wait up to the backoff cap.
func (c *Global) suggestTimeout() time.Duration {
	if c.HTTPTimeoutSec <= 0 {
		return 0
	}
	attempts := c.RetryMaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	perTry := time.Duration(c.HTTPTimeoutSec) * time.Second
	backoff := time.Duration(c.RetryMaxDelayMs) * time.Millisecond
	if backoff <= 0 {
		backoff = 4 * time.Second
	}
	return time.Duration(attempts)*perTry + time.Duration(attempts-1)*backoff
}

// Classifier returns the column classification thresholds. Zero values
// keep the defaults.
func (c *Global) Classifier() chart.ClassifierOptions {
	o := chart.DefaultClassifierOptions()
	if c.NumericRatio > 0 {
		o.NumericRatio = c.NumericRatio
	}
	if c.MaxCategories > 0 {
		o.MaxCategories = c.MaxCategories
	}
	return o
}

func (c *Global) IngestOptions() ingest.Options {
	o := ingest.DefaultOptions()
	if c.MaxRows > 0 {
		o.MaxRows = c.MaxRows
	}
	return o
}
