package render

import (
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/insightify-cli/internal/chart"
)

const (
	pngBarWidth = 48
	pngHeight   = 512
)

// PNG draws the payload with go-chart. Multi-series payloads are flattened
// to one bar per (label, series) pair named "label · series".
func PNG(w io.Writer, ch *chart.Chart) error {
	if err := validate(ch); err != nil {
		return err
	}
	bars := flatten(ch.Payload)
	if len(bars) == 0 {
		return ErrEmptyChart
	}
	lo, hi := 0.0, 0.0
	for _, b := range bars {
		lo = math.Min(lo, b.Value)
		hi = math.Max(hi, b.Value)
	}
	if hi-lo == 0 {
		hi = lo + 1
	}
	width := len(bars)*(pngBarWidth+24) + 160
	if width < 640 {
		width = 640
	}
	bc := gochart.BarChart{
		Title:    title(ch),
		Width:    width,
		Height:   pngHeight,
		BarWidth: pngBarWidth,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16},
		},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: lo, Max: hi * 1.05},
		},
		Bars: bars,
	}
	return bc.Render(gochart.PNG, w)
}

func flatten(p chart.Payload) []gochart.Value {
	var out []gochart.Value
	multi := len(p.Series) > 1
	for i, label := range p.Labels {
		for _, s := range p.Series {
			if i >= len(s.Values) {
				continue
			}
			name := label
			if multi {
				name = label + " · " + s.Label
			}
			out = append(out, gochart.Value{Label: name, Value: s.Values[i]})
		}
	}
	return out
}
