package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/insightify-cli/internal/ai"
	"github.com/KaramelBytes/insightify-cli/internal/ingest"
	"github.com/KaramelBytes/insightify-cli/internal/server"
)

const salesCSV = "region,sales,units\nEast,100,1\nWest,50,2\nEast,30,3\nNorth,20,4\n"

const insightJSON = `{"context":"Retail sales","kpis":[
 {"title":"Sales by region","description":"Total sales per region",
  "chartConfig":{"chartType":"bar","xAxisColumn":"region","yAxisOperation":"sum","yAxisColumn":"sales"}}]}`

type stubRuntime struct{ text string }

func (s stubRuntime) Generate(ctx context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Role: "assistant", Content: s.text}}}}, nil
}

// resetFlags restores every flag to its default so runs do not leak state.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sc := range c.Commands() {
		resetFlags(sc)
	}
}

// setupHome isolates config under a temp HOME and stubs the AI runtime.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GEMINI_API_KEY", "")
	old := newRuntime
	newRuntime = func(provider string, c ai.RuntimeConfig) (ai.Runtime, error) {
		return stubRuntime{text: insightJSON}, nil
	}
	t.Cleanup(func() { newRuntime = old })
	return home
}

// runCmd executes the root command with args and returns stdout.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func execCmd(args ...string) (string, error) {
	resetFlags(rootCmd)
	cfg = nil
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "sales.csv")
	if err := os.WriteFile(path, []byte(salesCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestCLI_Preview(t *testing.T) {
	home := setupHome(t)
	csvPath := writeCSV(t, home)

	out := runCmd(t, "preview", csvPath, "--rows", "2")
	for _, want := range []string{"[SCHEMA]", "- region: categorical", "[PREVIEW]", "... and 2 more rows", "Numeric: sales, units"} {
		if !strings.Contains(out, want) {
			t.Fatalf("preview output missing %q:\n%s", want, out)
		}
	}

	jsonPath := filepath.Join(home, "out", "profile.json")
	out = runCmd(t, "preview", csvPath, "--json", "-o", jsonPath)
	if !strings.Contains(out, "✓ Wrote profile") {
		t.Fatalf("expected confirmation, got %q", out)
	}
	b, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read profile: %v", err)
	}
	if !strings.Contains(string(b), `"classification"`) {
		t.Fatalf("profile JSON missing classification: %s", b)
	}
}

func TestCLI_SuggestThenChart(t *testing.T) {
	home := setupHome(t)
	csvPath := writeCSV(t, home)
	insPath := filepath.Join(home, "insights.json")

	out := runCmd(t, "suggest", csvPath, "-o", insPath)
	if !strings.Contains(out, "✓ [0] Sales by region") || !strings.Contains(out, "Retail sales") {
		t.Fatalf("unexpected suggest output:\n%s", out)
	}
	if _, err := os.Stat(insPath); err != nil {
		t.Fatalf("insights not saved: %v", err)
	}

	out = runCmd(t, "chart", csvPath, "--insights", insPath, "--kpi", "0", "--format", "json")
	if !strings.Contains(out, `"case": "hint"`) || !strings.Contains(out, `"East"`) {
		t.Fatalf("unexpected chart JSON:\n%s", out)
	}

	htmlPath := filepath.Join(home, "kpi0.html")
	out = runCmd(t, "chart", csvPath, "--insights", insPath, "--kpi", "0", "-o", htmlPath)
	if !strings.Contains(out, "✓ Wrote html chart") {
		t.Fatalf("unexpected chart output: %q", out)
	}
	b, err := os.ReadFile(htmlPath)
	if err != nil || !strings.Contains(string(b), "Sales by region") {
		t.Fatalf("html chart not written correctly: %v", err)
	}

	if _, err := execCmd("chart", csvPath, "--insights", insPath, "--kpi", "5"); err == nil {
		t.Fatalf("expected out-of-range KPI error")
	}
}

func TestCLI_ChartLiveSuggestion(t *testing.T) {
	home := setupHome(t)
	csvPath := writeCSV(t, home)
	out := runCmd(t, "chart", csvPath, "--kpi", "0", "--width", "10")
	if !strings.Contains(out, "Sales by region") || !strings.Contains(out, "130") {
		t.Fatalf("unexpected text chart:\n%s", out)
	}
}

func TestCLI_ChartHeuristicsAndFallback(t *testing.T) {
	home := setupHome(t)
	csvPath := writeCSV(t, home)
	out := runCmd(t, "chart", csvPath, "--title", "Overview", "--format", "json")
	if !strings.Contains(out, `"case": "grouped-averages"`) {
		t.Fatalf("expected grouped averages:\n%s", out)
	}

	textPath := filepath.Join(home, "notes.csv")
	if err := os.WriteFile(textPath, []byte("note\nalpha\nbeta\ngamma\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	a := runCmd(t, "chart", textPath, "--title", "Notes", "--format", "json", "--seed", "7")
	b := runCmd(t, "chart", textPath, "--title", "Notes", "--format", "json", "--seed", "7")
	if !strings.Contains(a, `"case": "fallback"`) || a != b {
		t.Fatalf("expected identical fallback charts:\n%s\n%s", a, b)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	setupHome(t)
	runCmd(t, "config", "set", "kpi_count", "6")
	runCmd(t, "config", "set", "api_key", "secret-key-1234")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "kpi_count: 6") {
		t.Fatalf("kpi_count not persisted:\n%s", out)
	}
	if strings.Contains(out, "secret-key-1234") || !strings.Contains(out, "1234") {
		t.Fatalf("api key not redacted:\n%s", out)
	}
	if _, err := execCmd("config", "set", "default_provider", "nope"); err == nil {
		t.Fatalf("expected invalid provider error")
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	setupHome(t)
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("listen not permitted: %v", err)
	}
	srv := server.New(server.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv.HTTPServer(ln.Addr().String()), ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not shut down")
	}
}

func TestCLI_Models(t *testing.T) {
	setupHome(t)
	out := runCmd(t, "models", "--provider", "ollama")
	if !strings.Contains(out, "llama3.1:8b (default)") || strings.Contains(out, "gemini-2.0-flash") {
		t.Fatalf("unexpected models output:\n%s", out)
	}
	out = runCmd(t, "models", "--json")
	if !strings.Contains(out, `"provider": "gemini"`) {
		t.Fatalf("unexpected models JSON:\n%s", out)
	}
}

func TestCLI_PreviewRejectsUnknownExtension(t *testing.T) {
	home := setupHome(t)
	// The file does not exist: the extension is checked first.
	_, err := execCmd("preview", filepath.Join(home, "notes.txt"))
	if !errors.Is(err, ingest.ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestCLI_ModelsSync(t *testing.T) {
	home := setupHome(t)
	first := filepath.Join(home, "pricing.json")
	if err := os.WriteFile(first, []byte(`{"acme/kpi-large":{"provider":"or","context_tokens":64000,"input_per_k":0.002,"output_per_k":0.004}}`), 0o644); err != nil {
		t.Fatalf("write pricing: %v", err)
	}
	out := runCmd(t, "models", "sync", "--file", first)
	saved := filepath.Join(home, ".insightify", "models.json")
	if !strings.Contains(out, "✓ Saved 1 models to "+saved) {
		t.Fatalf("unexpected sync output: %q", out)
	}

	second := filepath.Join(home, "more.json")
	if err := os.WriteFile(second, []byte(`{"acme/kpi-small":{"provider":"openrouter","input_per_k":0.0005}}`), 0o644); err != nil {
		t.Fatalf("write pricing: %v", err)
	}
	runCmd(t, "models", "sync", "--file", second, "--merge")

	m, err := ai.LoadCatalogFromJSON(saved)
	if err != nil {
		t.Fatalf("read saved catalog: %v", err)
	}
	if len(m) != 2 || m["acme/kpi-large"].Provider != ai.ProviderOpenRouter || m["acme/kpi-small"].Name != "acme/kpi-small" {
		t.Fatalf("unexpected saved catalog: %+v", m)
	}

	out = runCmd(t, "models", "--provider", "openrouter")
	if !strings.Contains(out, "acme/kpi-large") || !strings.Contains(out, "acme/kpi-small") {
		t.Fatalf("synced models missing from listing:\n%s", out)
	}
	if cost, ok := ai.EstimateCostUSD("acme/kpi-large", ai.Usage{PromptTokens: 1000, CompletionTokens: 1000}); !ok || cost < 0.0059 || cost > 0.0061 {
		t.Fatalf("cost = %v %v", cost, ok)
	}

	runCmd(t, "models", "sync", "--file", second)
	if m, _ = ai.LoadCatalogFromJSON(saved); len(m) != 1 {
		t.Fatalf("sync without --merge should replace saved models, got %+v", m)
	}

	if _, err := execCmd("models", "sync"); err == nil {
		t.Fatalf("expected error without --file")
	}
}
