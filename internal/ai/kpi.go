package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/KaramelBytes/insightify-cli/internal/chart"
)

// DefaultKPICount is how many KPIs are requested when none is specified.
const DefaultKPICount = 4

var (
	// ErrNoColumns is returned when there is nothing to describe to the model.
	ErrNoColumns = errors.New("dataset has no columns")
	// ErrNoKPIs is returned when the model answer holds no usable KPI.
	ErrNoKPIs = errors.New("model response contained no KPIs")
)

// AxisColumns is the x-axis of a chart config: a single column name or a
// list of column names.
type AxisColumns struct {
	Columns []string
	List    bool
}

func (a *AxisColumns) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null" || s == "":
		*a = AxisColumns{}
		return nil
	case strings.HasPrefix(s, "["):
		var cols []string
		if err := json.Unmarshal(b, &cols); err != nil {
			return fmt.Errorf("xAxisColumn: %w", err)
		}
		*a = AxisColumns{Columns: cols, List: true}
		return nil
	default:
		var col string
		if err := json.Unmarshal(b, &col); err != nil {
			return fmt.Errorf("xAxisColumn: %w", err)
		}
		*a = AxisColumns{}
		if col != "" {
			a.Columns = []string{col}
		}
		return nil
	}
}

func (a AxisColumns) MarshalJSON() ([]byte, error) {
	if a.List {
		return json.Marshal(a.Columns)
	}
	if len(a.Columns) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(a.Columns[0])
}

// ChartConfig is the model's suggestion for how to chart a KPI.
type ChartConfig struct {
	ChartType      string      `json:"chartType"`
	XAxisColumn    AxisColumns `json:"xAxisColumn"`
	YAxisOperation string      `json:"yAxisOperation"`
	YAxisColumn    string      `json:"yAxisColumn,omitempty"`
}

// Hint converts the config into a chart hint.
func (c *ChartConfig) Hint() *chart.Hint {
	if c == nil {
		return nil
	}
	return &chart.Hint{
		ChartType: c.ChartType,
		XColumns:  append([]string(nil), c.XAxisColumn.Columns...),
		XIsList:   c.XAxisColumn.List,
		Operation: c.YAxisOperation,
		YColumn:   c.YAxisColumn,
	}
}

// KPI is one suggested indicator.
type KPI struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ChartConfig *ChartConfig `json:"chartConfig,omitempty"`
}

// UnmarshalJSON accepts both English keys and the Spanish titulo/descripcion.
func (k *KPI) UnmarshalJSON(b []byte) error {
	var raw struct {
		Title       string       `json:"title"`
		Titulo      string       `json:"titulo"`
		Description string       `json:"description"`
		Descripcion string       `json:"descripcion"`
		ChartConfig *ChartConfig `json:"chartConfig"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	k.Title = firstNonEmpty(raw.Title, raw.Titulo)
	k.Description = firstNonEmpty(raw.Description, raw.Descripcion)
	k.ChartConfig = raw.ChartConfig
	return nil
}

// ChartRequest builds the chart request for this KPI.
func (k KPI) ChartRequest() chart.Request {
	return chart.Request{
		Title:       k.Title,
		Description: k.Description,
		Hint:        k.ChartConfig.Hint(),
	}
}

// Insight is the model's reading of a dataset.
type Insight struct {
	Context string `json:"context"`
	KPIs    []KPI  `json:"kpis"`
	// Usage is filled by SuggestKPIs when the provider reports it.
	Usage *Usage `json:"usage,omitempty"`
}

// UnmarshalJSON accepts both context and contexto.
func (in *Insight) UnmarshalJSON(b []byte) error {
	var raw struct {
		Context  string `json:"context"`
		Contexto string `json:"contexto"`
		KPIs     []KPI  `json:"kpis"`
		Usage    *Usage `json:"usage"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	in.Context = firstNonEmpty(raw.Context, raw.Contexto)
	in.KPIs = raw.KPIs
	in.Usage = raw.Usage
	return nil
}

// KPI returns the KPI at index i.
func (in *Insight) KPI(i int) (KPI, error) {
	if in == nil || i < 0 || i >= len(in.KPIs) {
		n := 0
		if in != nil {
			n = len(in.KPIs)
		}
		return KPI{}, fmt.Errorf("kpi index %d out of range (have %d)", i, n)
	}
	return in.KPIs[i], nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// BuildKPIPrompt asks for a business context and n KPIs with chart configs.
func BuildKPIPrompt(columns []string, n int) string {
	if n <= 0 {
		n = DefaultKPICount
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You received a data file with the following columns: %s.\n\n", strings.Join(columns, ", "))
	b.WriteString("Your task has two parts:\n")
	b.WriteString("1. Identify the business context (e.g. 'Sales data', 'E-commerce inventory').\n")
	fmt.Fprintf(&b, "2. Suggest %d key KPIs that can be computed from these columns.\n\n", n)
	b.WriteString("For every KPI include a title, a description and a nested \"chartConfig\" object with:\n")
	b.WriteString("- chartType: the recommended chart type ('bar', 'pie', 'line').\n")
	b.WriteString("- xAxisColumn: the column used for x-axis labels. If the categories are the column names themselves, return an array with those column names.\n")
	b.WriteString("- yAxisOperation: 'count' to count rows or 'sum' to add up the values of a column.\n")
	b.WriteString("- yAxisColumn: the column to sum when the operation is 'sum'; null for 'count'.\n\n")
	b.WriteString("Use only the column names listed above. Answer with JSON only, exactly in this shape:\n")
	b.WriteString(`{
  "context": "Your reading of the business context.",
  "kpis": [
    {
      "title": "KPI title",
      "description": "What the KPI measures and why it matters.",
      "chartConfig": {"chartType": "bar", "xAxisColumn": "column_name", "yAxisOperation": "count", "yAxisColumn": null}
    },
    {
      "title": "KPI title",
      "description": "Another KPI.",
      "chartConfig": {"chartType": "bar", "xAxisColumn": ["column1", "column2"], "yAxisOperation": "sum", "yAxisColumn": null}
    }
  ]
}`)
	b.WriteString("\n")
	return b.String()
}

const systemPrompt = "You are an expert business analyst and developer. You answer with strict JSON."

// ParseInsight decodes a model answer. Code fences and surrounding prose are
// stripped; malformed JSON gets one repair attempt.
func ParseInsight(text string) (*Insight, error) {
	s := extractJSON(text)
	if s == "" {
		return nil, fmt.Errorf("parse insight: %w", ErrNoKPIs)
	}
	var in Insight
	if err := parseJSON(s, &in); err != nil {
		return nil, fmt.Errorf("parse insight: %w", err)
	}
	kept := in.KPIs[:0]
	for _, k := range in.KPIs {
		if k.Title != "" {
			kept = append(kept, k)
		}
	}
	in.KPIs = kept
	if len(in.KPIs) == 0 {
		return nil, ErrNoKPIs
	}
	return &in, nil
}

func parseJSON(s string, v interface{}) error {
	err := json.UnmarshalFromString(s, v)
	if err == nil {
		return nil
	}
	originalErr := err
	// Truncated answers usually miss the final brace
	if err := json.UnmarshalFromString(s+"}", v); err == nil {
		return nil
	}
	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return originalErr
	}
	if err := json.UnmarshalFromString(repaired, v); err == nil {
		return nil
	}
	return originalErr
}

func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	s = s[start:]
	if end := strings.LastIndexByte(s, '}'); end >= 0 {
		s = s[:end+1]
	}
	return s
}

// SuggestOptions tunes SuggestKPIs.
type SuggestOptions struct {
	Count       int
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultSuggestOptions mirrors the hosted defaults: 4 KPIs, temperature 0.7,
// 2048 output tokens and a 30s deadline.
func DefaultSuggestOptions() SuggestOptions {
	return SuggestOptions{Count: DefaultKPICount, Temperature: 0.7, MaxTokens: 2048, Timeout: 30 * time.Second}
}

// SuggestKPIs asks rt for a business context and KPIs for columns.
func SuggestKPIs(ctx context.Context, rt Runtime, model string, columns []string, opt SuggestOptions) (*Insight, error) {
	if rt == nil {
		return nil, errors.New("no AI runtime configured")
	}
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	d := DefaultSuggestOptions()
	if opt.Count <= 0 {
		opt.Count = d.Count
	}
	if opt.Temperature <= 0 {
		opt.Temperature = d.Temperature
	}
	if opt.MaxTokens <= 0 {
		opt.MaxTokens = d.MaxTokens
	}
	if opt.Timeout <= 0 {
		opt.Timeout = d.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, opt.Timeout)
	defer cancel()

	resp, err := rt.Generate(ctx, GenerateRequest{
		Model: model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildKPIPrompt(columns, opt.Count)},
		},
		MaxTokens:   opt.MaxTokens,
		Temperature: opt.Temperature,
		TopK:        1,
		TopP:        1,
		JSON:        true,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("the request took longer than %s: %w", opt.Timeout, err)
		}
		return nil, err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyCompletion
	}
	in, err := ParseInsight(text)
	if err != nil {
		return nil, err
	}
	if resp.Usage.TotalTokens > 0 {
		u := resp.Usage
		in.Usage = &u
	}
	return in, nil
}
