package render

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/KaramelBytes/insightify-cli/internal/chart"
)

type renderer interface {
	Render(w io.Writer) error
}

// HTML writes a standalone ECharts page. Line and pie hints are honored;
// everything else is drawn as grouped bars.
func HTML(w io.Writer, ch *chart.Chart) error {
	if err := validate(ch); err != nil {
		return err
	}
	var r renderer
	switch {
	case ch.ChartType == "line":
		r = lineChart(ch)
	case ch.ChartType == "pie" && len(ch.Payload.Series) == 1:
		r = pieChart(ch)
	default:
		r = barChart(ch)
	}
	return r.Render(w)
}

func globalOpts(ch *chart.Chart) []charts.GlobalOpts {
	subtitle := ch.Description
	if ch.IsFallback() {
		subtitle = "Sample data: " + ch.CaseInfo
	}
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title(ch),
			Width:     "100%",
			Height:    "480px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title(ch),
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(len(ch.Payload.Series) > 1),
			Top:  "bottom",
		}),
	}
}

func barChart(ch *chart.Chart) *charts.Bar {
	bar := charts.NewBar()
	label := &opts.AxisLabel{}
	if crowded(ch.Payload.Labels) {
		label.Rotate = 30
	}
	bar.SetGlobalOptions(append(globalOpts(ch),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: label,
		}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
	)...)
	bar.SetXAxis(ch.Payload.Labels)
	for _, s := range ch.Payload.Series {
		data := make([]opts.BarData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.BarData{Value: v}
		}
		bar.AddSeries(s.Label, data)
	}
	return bar
}

func lineChart(ch *chart.Chart) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(append(globalOpts(ch),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
	)...)
	line.SetXAxis(ch.Payload.Labels)
	for _, s := range ch.Payload.Series {
		data := make([]opts.LineData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(s.Label, data)
	}
	return line
}

func pieChart(ch *chart.Chart) *charts.Pie {
	pie := charts.NewPie()
	gopts := globalOpts(ch)
	gopts = append(gopts, charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}))
	pie.SetGlobalOptions(gopts...)
	s := ch.Payload.Series[0]
	data := make([]opts.PieData, len(s.Values))
	for i, v := range s.Values {
		data[i] = opts.PieData{Name: ch.Payload.Labels[i], Value: v}
	}
	pie.AddSeries(s.Label, data)
	return pie
}

// crowded reports whether x labels need tilting.
func crowded(labels []string) bool {
	if len(labels) > 6 {
		return true
	}
	for _, l := range labels {
		if len([]rune(l)) > 12 {
			return true
		}
	}
	return false
}
