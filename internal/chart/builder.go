package chart

import (
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/KaramelBytes/insightify-cli/internal/table"
)

const (
	maxComparisonRecords = 10
	maxAverageGroups     = 8
	maxCategoryBars      = 10
	distributionRows     = 15
	multiNumericRows     = 8
	multiNumericSeries   = 3
	fallbackCategories   = 5
	sampleRows           = 3
)

var comparisonWords = []string{"compar", "versus", "relación", "relacion", "correlat"}

type buildOptions struct {
	classifier ClassifierOptions
	seed       *uint64
}

// Option customizes Build.
type Option func(*buildOptions)

// WithClassifier overrides the column classification thresholds.
func WithClassifier(o ClassifierOptions) Option {
	return func(b *buildOptions) { b.classifier = o }
}

// WithSeed fixes the seed used for placeholder data.
func WithSeed(seed uint64) Option {
	return func(b *buildOptions) { b.seed = &seed }
}

// Build selects a chart for rows. It never fails: when no column is usable
// the result carries placeholder data and Case is CaseFallback.
func Build(rows []table.Row, columns []string, req Request, opts ...Option) *Chart {
	bo := buildOptions{classifier: DefaultClassifierOptions()}
	for _, o := range opts {
		o(&bo)
	}

	ch := &Chart{
		Title:       req.Title,
		Description: req.Description,
		ChartType:   "bar",
		Sample:      head(rows, sampleRows),
	}
	if ch.Sample == nil {
		ch.Sample = []table.Row{}
	}

	if len(rows) > 0 && req.Hint.Validate(columns) {
		ch.Payload, ch.Columns = req.Hint.apply(rows)
		if t := strings.TrimSpace(req.Hint.ChartType); t != "" {
			ch.ChartType = strings.ToLower(t)
		}
		return ch.tag(CaseHint)
	}

	cls := bo.classifier.Classify(rows, columns)
	if !cls.Usable() {
		ch.Payload = placeholder(req.Title, bo.seed)
		ch.Columns = []string{}
		return ch.tag(CaseFallback)
	}
	num, cat := cls.Numeric, cls.Categorical

	switch {
	case len(num) >= 2 && len(cat) == 0 && req.wantsComparison():
		cols := num[:2]
		ch.Payload = rowSeries(head(rows, maxComparisonRecords), cols)
		ch.Columns = cols
		return ch.tag(CaseRecordComparison)

	case len(cat) >= 1 && len(num) >= 2:
		g := cat[0]
		cols := measures(num, g, 2)
		ch.Payload = groupedAverages(rows, g, cols, maxAverageGroups)
		ch.Columns = append([]string{g}, cols...)
		return ch.tag(CaseGroupedAverages)

	case len(cat) >= 1 && len(num) >= 1:
		g := cat[0]
		v := measures(num, g, 1)[0]
		labels, s := Aggregate(rows, v, OpSum, g)
		ch.Payload = TopN(Payload{Labels: labels, Series: []Series{s}}, maxCategoryBars)
		ch.Columns = []string{g, v}
		return ch.tag(CaseCategorySum)

	case len(num) == 1:
		ch.Payload = rowSeries(head(rows, distributionRows), num)
		ch.Columns = []string{num[0]}
		return ch.tag(CaseNumericOnly)

	case len(num) > 1:
		cols := num
		if len(cols) > multiNumericSeries {
			cols = cols[:multiNumericSeries]
		}
		ch.Payload = rowSeries(head(rows, multiNumericRows), cols)
		ch.Columns = cols
		return ch.tag(CaseNumericOnly)

	default:
		g := cat[0]
		labels, s := Aggregate(rows, "", OpCount, g)
		s.Label = seriesLabel(g, OpCount)
		ch.Payload = TopN(Payload{Labels: labels, Series: []Series{s}}, maxCategoryBars)
		ch.Columns = []string{g}
		return ch.tag(CaseCategoryCount)
	}
}

func (c *Chart) tag(k Case) *Chart {
	c.Case = k
	c.CaseInfo = k.Description()
	return c
}

func (r Request) wantsComparison() bool {
	if r.Compare {
		return true
	}
	text := strings.ToLower(r.Title + " " + r.Description)
	for _, w := range comparisonWords {
		if strings.Contains(text, w) {
			return true
		}
	}
	for _, f := range strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if f == "vs" {
			return true
		}
	}
	return false
}

// measures picks up to n numeric columns, preferring ones other than the
// grouping column.
func measures(numeric []string, groupBy string, n int) []string {
	var out []string
	for _, c := range numeric {
		if c != groupBy && len(out) < n {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		out = append(out, numeric[0])
	}
	return out
}

// rowSeries emits one row-indexed series per column.
func rowSeries(rows []table.Row, columns []string) Payload {
	p := Payload{Labels: []string{}, Series: make([]Series, 0, len(columns))}
	for i, col := range columns {
		labels, s := Aggregate(rows, col, OpSum, "")
		if i == 0 {
			p.Labels = labels
		}
		p.Series = append(p.Series, s)
	}
	return p
}

func placeholder(title string, seed *uint64) Payload {
	var s uint64
	if seed != nil {
		s = *seed
	} else {
		h := fnv.New64a()
		_, _ = h.Write([]byte(title))
		s = h.Sum64()
	}
	rng := rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
	name := strings.TrimSpace(title)
	if name == "" {
		name = "Value"
	}
	p := Payload{
		Labels: make([]string, fallbackCategories),
		Series: []Series{
			{Label: name, Values: make([]float64, fallbackCategories)},
			{Label: "Reference", Values: make([]float64, fallbackCategories)},
		},
	}
	for i := 0; i < fallbackCategories; i++ {
		p.Labels[i] = "Item " + string(rune('1'+i))
		p.Series[0].Values[i] = float64(rng.IntN(100) + 10)
		p.Series[1].Values[i] = float64(rng.IntN(100) + 10)
	}
	return p
}
