package chart

import (
	"slices"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/insightify-cli/internal/table"
)

// Hint is a chart configuration proposed alongside a KPI.
type Hint struct {
	ChartType string   `json:"chart_type,omitempty"`
	XColumns  []string `json:"x_columns"`
	// XIsList marks hints whose x axis names several columns, one bar each.
	XIsList   bool   `json:"x_is_list,omitempty"`
	Operation string `json:"operation"`
	YColumn   string `json:"y_column,omitempty"`
}

// Validate reports whether the hint can be honored for the given columns.
func (h *Hint) Validate(columns []string) bool {
	if h == nil || len(h.XColumns) == 0 {
		return false
	}
	for _, c := range h.XColumns {
		if !slices.Contains(columns, c) {
			return false
		}
	}
	op, err := h.op()
	if err != nil || (op != OpCount && op != OpSum) {
		return false
	}
	if h.XIsList {
		return true
	}
	if op == OpSum {
		return h.YColumn != "" && slices.Contains(columns, h.YColumn)
	}
	return h.YColumn == "" || slices.Contains(columns, h.YColumn)
}

func (h *Hint) op() (Op, error) { return ParseOp(strings.ToLower(strings.TrimSpace(h.Operation))) }

// apply builds the payload described by a validated hint and returns the
// consumed columns.
func (h *Hint) apply(rows []table.Row) (Payload, []string) {
	op, _ := h.op()
	if h.XIsList {
		s := Series{Values: make([]float64, 0, len(h.XColumns))}
		if op == OpSum {
			s.Label = "Total"
		} else {
			s.Label = "Count"
		}
		for _, col := range h.XColumns {
			vals := make([]float64, 0, len(rows))
			for _, r := range rows {
				c := r.Get(col)
				if op == OpCount {
					if !c.IsEmpty() {
						vals = append(vals, 1)
					}
					continue
				}
				vals = append(vals, c.FloatOrZero())
			}
			total, _ := stats.Sum(vals)
			s.Values = append(s.Values, total)
		}
		labels := append([]string(nil), h.XColumns...)
		return Payload{Labels: labels, Series: []Series{s}}, labels
	}
	x := h.XColumns[0]
	labels, s := Aggregate(rows, h.YColumn, op, x)
	used := []string{x}
	if h.YColumn != "" {
		used = append(used, h.YColumn)
	}
	return TopN(Payload{Labels: labels, Series: []Series{s}}, maxCategoryBars), used
}
