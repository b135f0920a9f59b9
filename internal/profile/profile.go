// Package profile summarizes a dataset's columns for previews and prompts.
package profile

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/insightify-cli/internal/chart"
	"github.com/KaramelBytes/insightify-cli/internal/table"
)

// Column kinds reported by Build.
const (
	KindNumeric     = "numeric"
	KindCategorical = "categorical"
	KindText        = "text"
	KindEmpty       = "empty"
)

const (
	topValues      = 5
	exampleTexts   = 3
	maxCorrPairs   = 10
	DefaultPreview = 20

	minOutlierValues = 8
	// OutlierThreshold is the robust |z| above which a value is an outlier.
	OutlierThreshold = 3.5
)

// Report is a markdown-friendly profile of a dataset.
type Report struct {
	Name           string               `json:"name"`
	Sheet          string               `json:"sheet,omitempty"`
	Rows           int                  `json:"rows"`
	Cols           []ColumnSummary      `json:"columns"`
	Classification chart.Classification `json:"classification"`
	Corr           []PairCorr           `json:"correlations,omitempty"`
	Preview        *Preview             `json:"preview,omitempty"`
}

// ColumnSummary captures inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique"`
	// Numeric stats
	Min    float64 `json:"min,omitempty"`
	Max    float64 `json:"max,omitempty"`
	Mean   float64 `json:"mean,omitempty"`
	Median float64 `json:"median,omitempty"`
	Std    float64 `json:"std,omitempty"`
	// Outliers counts values with a robust |z| above OutlierThreshold.
	Outliers int     `json:"outliers,omitempty"`
	MaxAbsZ  float64 `json:"max_abs_z,omitempty"`
	// Categorical top values
	TopValues    []CategoryCount `json:"top_values,omitempty"`
	ExampleTexts []string        `json:"examples,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// PairCorr is a Pearson correlation between two numeric columns.
type PairCorr struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
}

// Options controls Build.
type Options struct {
	Classifier  chart.ClassifierOptions
	PreviewRows int
}

// Build profiles every column of ds.
func Build(ds *table.Dataset, opt Options) *Report {
	if opt.PreviewRows <= 0 {
		opt.PreviewRows = DefaultPreview
	}
	rep := &Report{Name: ds.Name, Sheet: ds.Sheet, Rows: ds.Len()}
	rep.Classification = opt.Classifier.Classify(ds.Rows, ds.Columns)
	numeric := map[string][]float64{}
	for _, col := range ds.Columns {
		cs, vals := summarize(ds.Rows, col, rep.Classification)
		if cs.Kind == KindNumeric {
			numeric[col] = vals
		}
		rep.Cols = append(rep.Cols, cs)
	}
	rep.Corr = correlations(ds.Rows, rep.Classification.Numeric, numeric)
	p := NewPreview(ds, opt.PreviewRows)
	rep.Preview = &p
	return rep
}

func summarize(rows []table.Row, col string, cls chart.Classification) (ColumnSummary, []float64) {
	cs := ColumnSummary{Name: col}
	counts := map[string]int{}
	var vals []float64
	for _, r := range rows {
		c := r.Get(col)
		if c.IsEmpty() {
			cs.Missing++
			continue
		}
		cs.NonNull++
		counts[c.String()]++
		if f, ok := c.Float(); ok {
			vals = append(vals, f)
		}
	}
	cs.Unique = len(counts)
	switch {
	case slices.Contains(cls.Numeric, col):
		cs.Kind = KindNumeric
		cs.Min, _ = stats.Min(vals)
		cs.Max, _ = stats.Max(vals)
		cs.Mean, _ = stats.Mean(vals)
		cs.Median, _ = stats.Median(vals)
		if len(vals) > 1 {
			cs.Std, _ = stats.StandardDeviationSample(vals)
		}
		cs.Outliers, cs.MaxAbsZ = outliers(vals, cs.Median)
	case slices.Contains(cls.Categorical, col):
		cs.Kind = KindCategorical
		cs.TopValues = top(counts, topValues)
	case cs.NonNull > 0:
		cs.Kind = KindText
		for _, r := range rows {
			if len(cs.ExampleTexts) == exampleTexts {
				break
			}
			if c := r.Get(col); !c.IsEmpty() {
				cs.ExampleTexts = append(cs.ExampleTexts, c.String())
			}
		}
	default:
		cs.Kind = KindEmpty
	}
	return cs, vals
}

// outliers counts values whose robust z-score (MAD based) exceeds
// OutlierThreshold. Short or constant columns report none.
func outliers(vals []float64, median float64) (int, float64) {
	if len(vals) < minOutlierValues {
		return 0, 0
	}
	mad, err := stats.MedianAbsoluteDeviation(vals)
	if err != nil || mad == 0 {
		return 0, 0
	}
	n, maxZ := 0, 0.0
	for _, v := range vals {
		z := math.Abs(0.6745 * (v - median) / mad)
		if z > OutlierThreshold {
			n++
		}
		maxZ = math.Max(maxZ, z)
	}
	return n, maxZ
}

func top(counts map[string]int, n int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, CategoryCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// correlations computes Pearson r over rows where both columns are numeric.
func correlations(rows []table.Row, cols []string, numeric map[string][]float64) []PairCorr {
	var pairs []PairCorr
	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			a, b := cols[i], cols[j]
			if numeric[a] == nil || numeric[b] == nil {
				continue
			}
			var xs, ys []float64
			for _, r := range rows {
				x, okx := r.Get(a).Float()
				y, oky := r.Get(b).Float()
				if okx && oky {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			if len(xs) < 3 {
				continue
			}
			r, err := stats.Pearson(xs, ys)
			if err != nil || math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, PairCorr{A: a, B: b, R: r})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return math.Abs(pairs[i].R) > math.Abs(pairs[j].R) })
	if len(pairs) > maxCorrPairs {
		pairs = pairs[:maxCorrPairs]
	}
	return pairs
}

// Markdown renders a compact report suitable for prompts or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.Sheet != "" {
		b.WriteString(fmt.Sprintf("Sheet: %s\n", r.Sheet))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case KindNumeric:
			b.WriteString(fmt.Sprintf(": min %.4g, max %.4g, mean %.4g, median %.4g", c.Min, c.Max, c.Mean, c.Median))
			if c.Outliers > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f (max |z|≈%.2f)", c.Outliers, OutlierThreshold, c.MaxAbsZ))
			}
		case KindCategorical:
			if len(c.TopValues) > 0 {
				b.WriteString(": top ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		case KindText:
			if len(c.ExampleTexts) > 0 {
				b.WriteString(": e.g. ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(r.Corr) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range r.Corr {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}
	if r.Preview != nil && len(r.Preview.Rows) > 0 {
		b.WriteString("\n[PREVIEW]\n\n")
		b.WriteString(r.Preview.Markdown())
	}
	b.WriteString("\n[CHART COLUMNS]\n")
	b.WriteString(fmt.Sprintf("Numeric: %s\n", listOrNone(r.Classification.Numeric)))
	b.WriteString(fmt.Sprintf("Categorical: %s\n", listOrNone(r.Classification.Categorical)))
	return b.String()
}

func listOrNone(xs []string) string {
	if len(xs) == 0 {
		return "(none)"
	}
	return strings.Join(xs, ", ")
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
