package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/KaramelBytes/insightify-cli/internal/chart"
)

// Text prints horizontal bars scaled to width cells.
func Text(w io.Writer, ch *chart.Chart, width int) error {
	if err := validate(ch); err != nil {
		return err
	}
	if width <= 0 {
		width = 40
	}
	var b strings.Builder
	b.WriteString(color.New(color.Bold).Sprint(title(ch)))
	b.WriteString("\n")
	if ch.Description != "" {
		b.WriteString(ch.Description + "\n")
	}
	if ch.IsFallback() {
		b.WriteString(color.YellowString("⚠ %s", ch.CaseInfo) + "\n")
	}
	b.WriteString("\n")

	maxAbs := 0.0
	labelW := 0
	for i, l := range ch.Payload.Labels {
		if n := len([]rune(l)); n > labelW {
			labelW = n
		}
		for _, s := range ch.Payload.Series {
			if i < len(s.Values) {
				maxAbs = math.Max(maxAbs, math.Abs(s.Values[i]))
			}
		}
	}
	multi := len(ch.Payload.Series) > 1
	if multi {
		for _, s := range ch.Payload.Series {
			if n := len([]rune(s.Label)) + 2; n > labelW {
				labelW = n
			}
		}
	}
	for i, l := range ch.Payload.Labels {
		if multi {
			b.WriteString(l + "\n")
		}
		for _, s := range ch.Payload.Series {
			if i >= len(s.Values) {
				continue
			}
			v := s.Values[i]
			name := l
			if multi {
				name = "  " + s.Label
			}
			n := 0
			if maxAbs > 0 {
				n = int(math.Round(math.Abs(v) / maxAbs * float64(width)))
			}
			fmt.Fprintf(&b, "%s │%s %s\n", pad(name, labelW), color.CyanString(strings.Repeat("█", n)), formatValue(v))
		}
	}
	if len(ch.Payload.Labels) == 0 {
		b.WriteString("(no data)\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func pad(s string, n int) string {
	if k := len([]rune(s)); k < n {
		return s + strings.Repeat(" ", n-k)
	}
	return s
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
