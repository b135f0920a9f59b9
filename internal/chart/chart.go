// Package chart turns tabular rows into bar-chart payloads using column
// classification, grouped aggregation and a prioritized set of
// presentation cases.
package chart

import "github.com/KaramelBytes/insightify-cli/internal/table"

// UnknownCategory labels rows whose grouping value is empty.
const UnknownCategory = "Unknown/No-category"

// Series is a named sequence of values aligned with a payload's labels.
type Series struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// Payload is what a renderer consumes: x-axis labels plus one or more series
// of equal length.
type Payload struct {
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// Valid reports whether every series has one value per label.
func (p Payload) Valid() bool {
	for _, s := range p.Series {
		if len(s.Values) != len(p.Labels) {
			return false
		}
	}
	return true
}

// Case tags which generation branch produced a chart.
type Case string

const (
	CaseHint             Case = "hint"
	CaseRecordComparison Case = "record-comparison"
	CaseGroupedAverages  Case = "grouped-averages"
	CaseCategorySum      Case = "category-sum"
	CaseNumericOnly      Case = "numeric-only"
	CaseCategoryCount    Case = "category-count"
	CaseFallback         Case = "fallback"
)

// Description returns a short human-readable explanation of the case.
func (c Case) Description() string {
	switch c {
	case CaseHint:
		return "Chart configuration suggested with the KPI"
	case CaseRecordComparison:
		return "Side-by-side comparison of the first records"
	case CaseGroupedAverages:
		return "Averages per category for two numeric columns"
	case CaseCategorySum:
		return "Totals per category"
	case CaseNumericOnly:
		return "Distribution of numeric values across records"
	case CaseCategoryCount:
		return "Record count per category"
	case CaseFallback:
		return "Placeholder data: no usable columns were found"
	default:
		return string(c)
	}
}

// Request describes what the caller wants charted.
type Request struct {
	Title       string
	Description string
	// Compare asks for a record-by-record comparison when the data has
	// several numeric columns and nothing to group by.
	Compare bool
	// Hint is an optional chart configuration that takes precedence over the
	// heuristics when it is consistent with the data.
	Hint *Hint
}

// Chart is the builder's result.
type Chart struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	ChartType   string      `json:"chart_type"`
	Case        Case        `json:"case"`
	CaseInfo    string      `json:"case_info"`
	Columns     []string    `json:"columns"`
	Payload     Payload     `json:"payload"`
	Sample      []table.Row `json:"sample"`
}

// IsFallback reports whether the payload holds synthetic placeholder data.
func (c *Chart) IsFallback() bool { return c != nil && c.Case == CaseFallback }
