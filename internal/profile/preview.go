package profile

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/insightify-cli/internal/table"
)

// Preview is the head of a dataset plus how many rows were left out.
type Preview struct {
	Columns   []string    `json:"columns"`
	Rows      []table.Row `json:"rows"`
	Remaining int         `json:"remaining"`
}

// NewPreview returns the first n rows of ds (DefaultPreview when n <= 0).
func NewPreview(ds *table.Dataset, n int) Preview {
	if n <= 0 {
		n = DefaultPreview
	}
	rows := ds.Head(n)
	if rows == nil {
		rows = []table.Row{}
	}
	return Preview{Columns: ds.Columns, Rows: rows, Remaining: ds.Len() - len(rows)}
}

// Note describes the rows not shown, or "" when everything is shown.
func (p Preview) Note() string {
	if p.Remaining <= 0 {
		return ""
	}
	return fmt.Sprintf("... and %d more rows", p.Remaining)
}

// Markdown renders the preview as a pipe table.
func (p Preview) Markdown() string {
	var b strings.Builder
	b.WriteString("| ")
	for i, c := range p.Columns {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeName(c))
	}
	b.WriteString(" |\n| ")
	for i := range p.Columns {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	for _, row := range p.Rows {
		b.WriteString("| ")
		for i, c := range p.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := row.Get(c).String()
			if len(val) > 80 {
				val = val[:77] + "..."
			}
			b.WriteString(safeVal(val))
		}
		b.WriteString(" |\n")
	}
	if note := p.Note(); note != "" {
		b.WriteString(note)
		b.WriteString("\n")
	}
	return b.String()
}
