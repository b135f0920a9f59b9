package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightify-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/insightify-cli/internal/config"
	"github.com/KaramelBytes/insightify-cli/internal/logging"
)

var (
	// Global flags
	cfgFile      string
	debug        bool
	flagLogLevel string
	flagProvider string
	flagModel    string
	flagAPIKey   string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
	logger = logging.NewDefault("")

	// newRuntime is swapped in tests.
	newRuntime = ai.NewRuntime
)

var rootCmd = &cobra.Command{
	Use:   "insightify",
	Short: "Insightify CLI: turn spreadsheets into KPI charts",
	Long: `Insightify loads CSV, TSV, XLSX and XLS files, profiles their columns, asks an AI
provider for business KPIs and renders each KPI as a chart (HTML, PNG,
terminal bars or JSON). It can also serve the same workflow over HTTP.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		if hint := ai.Hint(err); hint != "" {
			fmt.Fprintln(os.Stderr, "  Hint:", hint)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.insightify/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug output")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: error|warn|info|debug|trace (overrides config)")
	pf.StringVar(&flagProvider, "provider", "", "AI provider: gemini|openrouter|ollama (overrides config)")
	pf.StringVar(&flagModel, "model", "", "AI model (overrides config)")
	pf.StringVar(&flagAPIKey, "api-key", "", "API key for the hosted provider (overrides config)")
	pf.IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	pf.IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	pf.IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	pf.IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	// .env is optional
	_ = godotenv.Load()

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("provider") && flagProvider != "" {
		cfg.DefaultProvider = flagProvider
	}
	if f.Changed("model") && flagModel != "" {
		cfg.DefaultModel = flagModel
	}
	if f.Changed("api-key") && flagAPIKey != "" {
		cfg.APIKey = flagAPIKey
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}

	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if level != "" {
		logger.SetLevel(logging.ParseLevel(level))
	}
	if debug {
		logger.SetLevel(logging.LevelDebug)
	}
	loadSavedCatalog()
	if cfg.LogFile != "" {
		w, err := logging.OpenFile(cfg.LogFile, logging.FileOptions{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
			return
		}
		logger.SetOutput(io.MultiWriter(os.Stderr, w))
	}
}

// config returns the loaded configuration, loading it on demand.
func config() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}
