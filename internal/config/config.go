package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user configuration directory under $HOME.
const DirName = ".insightify"

// Global configuration structure.
type Global struct {
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	DefaultProvider string  `mapstructure:"default_provider" yaml:"default_provider"`
	DefaultModel    string  `mapstructure:"default_model" yaml:"default_model"`
	KPICount        int     `mapstructure:"kpi_count" yaml:"kpi_count"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// Chart heuristics
	NumericRatio  float64 `mapstructure:"numeric_ratio" yaml:"numeric_ratio"`
	MaxCategories int     `mapstructure:"max_categories" yaml:"max_categories"`

	// Ingest and preview
	PreviewRows int `mapstructure:"preview_rows" yaml:"preview_rows"`
	MaxRows     int `mapstructure:"max_rows" yaml:"max_rows"`

	ServeAddr string `mapstructure:"serve_addr" yaml:"serve_addr"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	// LogFile, when set, receives a rotated copy of the log.
	LogFile string `mapstructure:"log_file" yaml:"log_file,omitempty"`
}

// Path returns cfgFile when set, otherwise ~/.insightify/config.yaml.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName, "config.yaml"), nil
}

// CatalogPath returns the models.json stored next to the config file.
func CatalogPath(cfgFile string) (string, error) {
	p, err := Path(cfgFile)
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(p), "models.json"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.insightify/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("INSIGHTIFY")
	v.AutomaticEnv()

	v.SetDefault("api_key", "")
	v.SetDefault("default_provider", "gemini")
	v.SetDefault("default_model", "gemini-2.0-flash")
	v.SetDefault("kpi_count", 4)
	v.SetDefault("max_tokens", 2048)
	v.SetDefault("temperature", 0.7)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 30)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	// Chart heuristics
	v.SetDefault("numeric_ratio", 0.3)
	v.SetDefault("max_categories", 20)
	v.SetDefault("preview_rows", 20)
	v.SetDefault("max_rows", 100000)
	v.SetDefault("serve_addr", ":8080")
	v.SetDefault("log_level", "INFO")
	v.SetDefault("log_file", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, DirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// GEMINI_API_KEY is honored as a fallback for the hosted provider.
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	return &c, nil
}

// Set updates a single key by name. It backs `insightify config set`.
func (c *Global) Set(key, value string) error {
	strs := map[string]*string{
		"api_key":          &c.APIKey,
		"default_provider": &c.DefaultProvider,
		"default_model":    &c.DefaultModel,
		"ollama_host":      &c.OllamaHost,
		"serve_addr":       &c.ServeAddr,
		"log_level":        &c.LogLevel,
		"log_file":         &c.LogFile,
	}
	ints := map[string]*int{
		"kpi_count":           &c.KPICount,
		"max_tokens":          &c.MaxTokens,
		"http_timeout_sec":    &c.HTTPTimeoutSec,
		"retry_max_attempts":  &c.RetryMaxAttempts,
		"retry_base_delay_ms": &c.RetryBaseDelayMs,
		"retry_max_delay_ms":  &c.RetryMaxDelayMs,
		"max_categories":      &c.MaxCategories,
		"preview_rows":        &c.PreviewRows,
		"max_rows":            &c.MaxRows,
	}
	floats := map[string]*float64{
		"temperature":   &c.Temperature,
		"numeric_ratio": &c.NumericRatio,
	}
	if p, ok := strs[key]; ok {
		*p = value
		return nil
	}
	if p, ok := ints[key]; ok {
		i, err := cast.ToIntE(value)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %q", key, value)
		}
		*p = i
		return nil
	}
	if p, ok := floats[key]; ok {
		f, err := cast.ToFloat64E(value)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid float for %s: %q", key, value)
		}
		*p = f
		return nil
	}
	return fmt.Errorf("unknown config key %q", key)
}

// Redacted returns a copy safe to print.
func (c Global) Redacted() Global {
	if n := len(c.APIKey); n > 0 {
		if n > 4 {
			c.APIKey = "****" + c.APIKey[n-4:]
		} else {
			c.APIKey = "****"
		}
	}
	return c
}
