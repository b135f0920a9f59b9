package chart

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/insightify-cli/internal/table"
)

// Op is an aggregation operation.
type Op string

const (
	OpCount   Op = "count"
	OpSum     Op = "sum"
	OpAverage Op = "average"
)

// ParseOp maps a user supplied operation name to an Op.
func ParseOp(s string) (Op, error) {
	switch Op(s) {
	case OpCount, OpSum, OpAverage:
		return Op(s), nil
	case "avg", "mean":
		return OpAverage, nil
	default:
		return "", fmt.Errorf("unknown aggregation %q", s)
	}
}

type group struct {
	key    string
	values []float64
}

// groupRows buckets rows by the string form of groupBy, in order of first
// appearance.
func groupRows(rows []table.Row, column, groupBy string) []*group {
	idx := make(map[string]*group)
	var out []*group
	for _, r := range rows {
		key := groupKey(r.Get(groupBy))
		g, ok := idx[key]
		if !ok {
			g = &group{key: key}
			idx[key] = g
			out = append(out, g)
		}
		g.values = append(g.values, r.Get(column).FloatOrZero())
	}
	return out
}

func groupKey(c table.Cell) string {
	if c.IsEmpty() {
		return UnknownCategory
	}
	return c.String()
}

func reduce(op Op, values []float64) float64 {
	switch op {
	case OpCount:
		return float64(len(values))
	case OpAverage:
		if len(values) == 0 {
			return 0
		}
		sum, _ := stats.Sum(values)
		return math.Round(sum / float64(len(values)))
	default:
		sum, _ := stats.Sum(values)
		return sum
	}
}

// Aggregate reduces column with op. With an empty groupBy every row forms its
// own group, so a count is 1 per row, and the output keeps row order with
// labels "Record n". Grouped output is sorted by value descending; ties keep
// first-appearance order. Non-numeric values count as zero.
func Aggregate(rows []table.Row, column string, op Op, groupBy string) ([]string, Series) {
	s := Series{Label: seriesLabel(column, op), Values: []float64{}}
	labels := []string{}
	if len(rows) == 0 {
		return labels, s
	}
	if groupBy == "" {
		for i, r := range rows {
			labels = append(labels, recordLabel(i))
			s.Values = append(s.Values, reduce(op, []float64{r.Get(column).FloatOrZero()}))
		}
		return labels, s
	}
	groups := groupRows(rows, column, groupBy)
	vals := make([]float64, len(groups))
	for i, g := range groups {
		vals[i] = reduce(op, g.values)
	}
	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return vals[order[a]] > vals[order[b]] })
	for _, i := range order {
		labels = append(labels, groups[i].key)
		s.Values = append(s.Values, vals[i])
	}
	return labels, s
}

// TopN truncates labels and every series to at most n entries.
func TopN(p Payload, n int) Payload {
	if n < 0 || len(p.Labels) <= n {
		return p
	}
	out := Payload{Labels: p.Labels[:n], Series: make([]Series, len(p.Series))}
	for i, s := range p.Series {
		vals := s.Values
		if len(vals) > n {
			vals = vals[:n]
		}
		out.Series[i] = Series{Label: s.Label, Values: vals}
	}
	return out
}

// groupedAverages averages each column per group and keeps the maxGroups
// largest groups by member count.
func groupedAverages(rows []table.Row, groupBy string, columns []string, maxGroups int) Payload {
	p := Payload{Labels: []string{}, Series: []Series{}}
	if len(columns) == 0 {
		return p
	}
	base := groupRows(rows, columns[0], groupBy)
	order := make([]int, len(base))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return len(base[order[a]].values) > len(base[order[b]].values) })
	if len(order) > maxGroups {
		order = order[:maxGroups]
	}
	for _, i := range order {
		p.Labels = append(p.Labels, base[i].key)
	}
	for ci, col := range columns {
		groups := base
		if ci > 0 {
			groups = groupRows(rows, col, groupBy)
		}
		s := Series{Label: seriesLabel(col, OpAverage), Values: make([]float64, 0, len(order))}
		for _, i := range order {
			s.Values = append(s.Values, reduce(OpAverage, groups[i].values))
		}
		p.Series = append(p.Series, s)
	}
	return p
}

func seriesLabel(column string, op Op) string {
	switch op {
	case OpCount:
		if column == "" {
			return "Count"
		}
		return "Count of " + column
	case OpAverage:
		return "Average " + column
	default:
		return column
	}
}

func recordLabel(i int) string { return fmt.Sprintf("Record %d", i+1) }
