package chart

import "github.com/KaramelBytes/insightify-cli/internal/table"

// ClassifierOptions holds the sampling windows and thresholds used to label
// columns.
type ClassifierOptions struct {
	// NumericSample is how many leading rows are inspected for numeric values.
	NumericSample int
	// CategoricalSample is how many leading rows are inspected for distinct values.
	CategoricalSample int
	// NumericRatio is the fraction of sampled rows that must parse as numbers.
	NumericRatio float64
	// MaxCategories caps the distinct values a categorical column may have.
	MaxCategories int
}

// DefaultClassifierOptions returns the canonical thresholds.
func DefaultClassifierOptions() ClassifierOptions {
	return ClassifierOptions{
		NumericSample:     50,
		CategoricalSample: 100,
		NumericRatio:      0.3,
		MaxCategories:     20,
	}
}

func (o ClassifierOptions) withDefaults() ClassifierOptions {
	d := DefaultClassifierOptions()
	if o.NumericSample <= 0 {
		o.NumericSample = d.NumericSample
	}
	if o.CategoricalSample <= 0 {
		o.CategoricalSample = d.CategoricalSample
	}
	if o.NumericRatio <= 0 {
		o.NumericRatio = d.NumericRatio
	}
	if o.MaxCategories <= 0 {
		o.MaxCategories = d.MaxCategories
	}
	return o
}

// Classification lists column names by inferred role, in input order. A
// column may appear in both lists or in neither.
type Classification struct {
	Numeric     []string `json:"numeric"`
	Categorical []string `json:"categorical"`
}

// Usable reports whether at least one column can drive a real chart.
func (c Classification) Usable() bool {
	return len(c.Numeric) > 0 || len(c.Categorical) > 0
}

// Classify labels columns using the default options.
func Classify(rows []table.Row, columns []string) Classification {
	return DefaultClassifierOptions().Classify(rows, columns)
}

// Classify labels each column as numeric and/or categorical.
func (o ClassifierOptions) Classify(rows []table.Row, columns []string) Classification {
	o = o.withDefaults()
	out := Classification{Numeric: []string{}, Categorical: []string{}}
	if len(rows) == 0 {
		return out
	}
	for _, col := range columns {
		if o.isNumeric(rows, col) {
			out.Numeric = append(out.Numeric, col)
		}
		if o.isCategorical(rows, col) {
			out.Categorical = append(out.Categorical, col)
		}
	}
	return out
}

func (o ClassifierOptions) isNumeric(rows []table.Row, col string) bool {
	sample := head(rows, o.NumericSample)
	if len(sample) == 0 {
		return false
	}
	n := 0
	for _, r := range sample {
		if _, ok := r.Get(col).Float(); ok {
			n++
		}
	}
	return float64(n) > o.NumericRatio*float64(len(sample))
}

func (o ClassifierOptions) isCategorical(rows []table.Row, col string) bool {
	sample := head(rows, o.CategoricalSample)
	distinct := make(map[string]struct{})
	nonEmpty := 0
	for _, r := range sample {
		c := r.Get(col)
		if c.IsEmpty() {
			continue
		}
		nonEmpty++
		distinct[c.String()] = struct{}{}
	}
	d := len(distinct)
	return d > 1 && d <= o.MaxCategories && d < nonEmpty
}

func head(rows []table.Row, n int) []table.Row {
	if n < len(rows) {
		return rows[:n]
	}
	return rows
}
