package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightify-cli/internal/ai"
	"github.com/KaramelBytes/insightify-cli/internal/chart"
	"github.com/KaramelBytes/insightify-cli/internal/render"
	"github.com/KaramelBytes/insightify-cli/internal/table"
	"github.com/KaramelBytes/insightify-cli/internal/utils"
)

var (
	chtFormat      string
	chtOutput      string
	chtKPI         int
	chtInsights    string
	chtTitle       string
	chtDescription string
	chtCompare     bool
	chtSeed        uint64
	chtWidth       int
)

var chartCmd = &cobra.Command{
	Use:   "chart <file>",
	Short: "Build a chart for a KPI or a free-form title",
	Long: `Build a chart payload from the file's rows. With --kpi the chart follows a
suggested KPI: from --insights if given, otherwise suggested on the spot.
Without --kpi the title and description drive the heuristics.`,
	Example: `  insightify chart sales.csv --title "Revenue by region"
  insightify chart sales.csv --insights insights.json --kpi 1 -o kpi1.html
  insightify chart sales.csv --kpi 0 --format png -o kpi0.png
  insightify chart metrics.csv --title "Cost vs revenue" --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config()
		if err != nil {
			return err
		}
		format, err := chartFormat(cmd)
		if err != nil {
			return err
		}
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}

		req := chart.Request{Title: chtTitle, Description: chtDescription, Compare: chtCompare}
		if cmd.Flags().Changed("kpi") {
			ins, err := loadInsight(cmd, ds)
			if err != nil {
				return err
			}
			k, err := ins.KPI(chtKPI)
			if err != nil {
				return err
			}
			req = k.ChartRequest()
			req.Compare = chtCompare
		}

		opts := []chart.Option{chart.WithClassifier(c.Classifier())}
		if cmd.Flags().Changed("seed") {
			opts = append(opts, chart.WithSeed(chtSeed))
		}
		ch := chart.Build(ds.Rows, ds.Columns, req, opts...)
		logger.Debug("chart case=%s columns=%v", ch.Case, ch.Columns)
		if ch.IsFallback() {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", ch.CaseInfo)
		}

		var buf bytes.Buffer
		if format == render.FormatText {
			err = render.Text(&buf, ch, chtWidth)
		} else {
			err = render.Write(&buf, format, ch)
		}
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		if err := utils.WriteOutput(cmd.OutOrStdout(), chtOutput, buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		if chtOutput != "" && chtOutput != "-" {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s chart (%s) to %s\n", format, ch.Case, chtOutput)
		}
		return nil
	},
}

// chartFormat takes --format, or the output extension, defaulting to text.
func chartFormat(cmd *cobra.Command) (render.Format, error) {
	if cmd.Flags().Changed("format") || chtOutput == "" || chtOutput == "-" {
		return render.ParseFormat(chtFormat)
	}
	return render.ParseFormat(filepath.Ext(chtOutput))
}

func loadInsight(cmd *cobra.Command, ds *table.Dataset) (*ai.Insight, error) {
	if chtInsights == "" {
		return suggest(cmd.Context(), ds, 0)
	}
	b, err := os.ReadFile(chtInsights)
	if err != nil {
		return nil, fmt.Errorf("read insights: %w", err)
	}
	ins, err := ai.ParseInsight(string(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", chtInsights, err)
	}
	logger.Debug("loaded %d KPIs from %s", len(ins.KPIs), chtInsights)
	return ins, nil
}

func init() {
	rootCmd.AddCommand(chartCmd)
	addDatasetFlags(chartCmd)
	chartCmd.Flags().StringVar(&chtFormat, "format", "text", "output format: text|json|html|png (inferred from --output when omitted)")
	chartCmd.Flags().StringVarP(&chtOutput, "output", "o", "", "optional path to write the chart")
	chartCmd.Flags().IntVar(&chtKPI, "kpi", 0, "index of the KPI to chart")
	chartCmd.Flags().StringVar(&chtInsights, "insights", "", "insight JSON saved by 'suggest -o'")
	chartCmd.Flags().StringVar(&chtTitle, "title", "", "chart title (ignored with --kpi)")
	chartCmd.Flags().StringVar(&chtDescription, "description", "", "chart description (ignored with --kpi)")
	chartCmd.Flags().BoolVar(&chtCompare, "compare", false, "prefer a record-by-record comparison")
	chartCmd.Flags().Uint64Var(&chtSeed, "seed", 0, "seed for placeholder data")
	chartCmd.Flags().IntVar(&chtWidth, "width", 40, "bar width for text output")
}
