package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.DefaultProvider != "gemini" || c.DefaultModel != "gemini-2.0-flash" {
		t.Fatalf("unexpected provider/model: %s %s", c.DefaultProvider, c.DefaultModel)
	}
	if c.KPICount != 4 || c.MaxTokens != 2048 || c.HTTPTimeoutSec != 30 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.NumericRatio != 0.3 || c.MaxCategories != 20 || c.PreviewRows != 20 {
		t.Fatalf("unexpected chart defaults: %+v", c)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("INSIGHTIFY_DEFAULT_MODEL", "custom-model")
	t.Setenv("INSIGHTIFY_KPI_COUNT", "6")
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.DefaultModel != "custom-model" || c.KPICount != 6 {
		t.Fatalf("env not applied: %+v", c)
	}
}

func TestSaveAndReload(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := c.Set("default_provider", "ollama"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Set("numeric_ratio", "0.5"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Set("max_categories", "12"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Set("nope", "x"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if err := c.Set("kpi_count", "many"); err == nil {
		t.Fatalf("expected error for non-numeric kpi_count")
	}
	if err := c.Set("temperature", "-1"); err == nil {
		t.Fatalf("expected error for negative temperature")
	}
	if err := Save(c, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.DefaultProvider != "ollama" || got.NumericRatio != 0.5 || got.MaxCategories != 12 {
		t.Fatalf("reload mismatch: %+v", got)
	}
}

func TestRedacted(t *testing.T) {
	c := Global{APIKey: "secret-key-1234"}
	if got := c.Redacted().APIKey; got != "****1234" {
		t.Fatalf("redacted = %q", got)
	}
	if c.APIKey != "secret-key-1234" {
		t.Fatalf("original modified")
	}
}

func TestDerivedOptions(t *testing.T) {
	c := &Global{
		APIKey:           "cfg-key",
		HTTPTimeoutSec:   12,
		RetryMaxAttempts: 5,
		RetryBaseDelayMs: 100,
		RetryMaxDelayMs:  900,
		OllamaHost:       "http://ollama:11434",
		KPICount:         6,
		NumericRatio:     0.5,
		MaxRows:          42,
	}
	rc := c.RuntimeConfig("")
	if rc.APIKey != "cfg-key" || rc.HTTPTimeout.Seconds() != 12 || rc.RetryMax != 5 || rc.Host != "http://ollama:11434" {
		t.Fatalf("runtime config: %+v", rc)
	}
	if c.RuntimeConfig("header-key").APIKey != "header-key" {
		t.Fatalf("explicit key should win")
	}
	so := c.SuggestOptions()
	if so.Count != 6 || so.MaxTokens != 2048 {
		t.Fatalf("suggest options: %+v", so)
	}
	// 5 attempts of 12s plus 4 waits capped at 900ms.
	if want := 60*time.Second + 3600*time.Millisecond; so.Timeout != want {
		t.Fatalf("suggest timeout = %v, want %v", so.Timeout, want)
	}
	if so.Timeout <= rc.HTTPTimeout {
		t.Fatalf("overall timeout must leave room for retries")
	}
	single := &Global{HTTPTimeoutSec: 10, RetryMaxAttempts: 1}
	if got := single.SuggestOptions().Timeout; got != 10*time.Second {
		t.Fatalf("single attempt timeout = %v", got)
	}
	co := c.Classifier()
	if co.NumericRatio != 0.5 || co.MaxCategories != 20 {
		t.Fatalf("classifier: %+v", co)
	}
	if c.IngestOptions().MaxRows != 42 {
		t.Fatalf("ingest max rows not applied")
	}
}
