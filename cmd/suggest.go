package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightify-cli/internal/ai"
	"github.com/KaramelBytes/insightify-cli/internal/table"
	"github.com/KaramelBytes/insightify-cli/internal/utils"
)

var (
	sugCount  int
	sugJSON   bool
	sugOutput string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <file>",
	Short: "Ask the AI provider for a business context and KPIs",
	Example: `  insightify suggest sales.csv
  insightify suggest sales.csv --count 6 -o insights.json
  insightify suggest sales.csv --provider ollama --model llama3.1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		ins, err := suggest(cmd.Context(), ds, sugCount)
		if err != nil {
			return err
		}
		if sugOutput != "" {
			b, err := utils.PrettyJSON(ins)
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(sugOutput, append(b, '\n')); err != nil {
				return fmt.Errorf("write insights: %w", err)
			}
		}
		out := cmd.OutOrStdout()
		if sugJSON {
			b, err := utils.PrettyJSON(ins)
			if err != nil {
				return err
			}
			_, err = out.Write(append(b, '\n'))
			return err
		}
		printInsight(out, ins)
		if sugOutput != "" {
			fmt.Fprintf(out, "✓ Saved insights to %s (use: insightify chart %s --insights %s --kpi 0)\n", sugOutput, args[0], sugOutput)
		}
		return nil
	},
}

// suggest resolves the configured runtime and asks it for n KPIs.
func suggest(ctx context.Context, ds *table.Dataset, n int) (*ai.Insight, error) {
	c, err := config()
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	provider := ai.NormalizeProvider(c.DefaultProvider)
	rt, err := newRuntime(provider, c.RuntimeConfig(""))
	if err != nil {
		return nil, err
	}
	opt := c.SuggestOptions()
	if n > 0 {
		opt.Count = n
	}
	model := ai.ResolveModel(provider, c.DefaultModel)
	logger.Info("⚙ Asking %s (model=%s) for %d KPIs over %d columns ...", provider, model, opt.Count, len(ds.Columns))
	ins, err := ai.SuggestKPIs(ctx, rt, model, ds.Columns, opt)
	if err != nil {
		return nil, fmt.Errorf("suggest KPIs: %w", err)
	}
	if u := ins.Usage; u != nil {
		if cost, ok := ai.EstimateCostUSD(model, *u); ok {
			logger.Info("Tokens: prompt=%d completion=%d (≈$%.5f)", u.PromptTokens, u.CompletionTokens, cost)
		} else {
			logger.Info("Tokens: prompt=%d completion=%d", u.PromptTokens, u.CompletionTokens)
		}
	}
	return ins, nil
}

func printInsight(w io.Writer, ins *ai.Insight) {
	bold := color.New(color.Bold)
	if ins.Context != "" {
		fmt.Fprintf(w, "%s %s\n\n", bold.Sprint("Context:"), ins.Context)
	}
	for i, k := range ins.KPIs {
		fmt.Fprintf(w, "✓ [%d] %s\n", i, bold.Sprint(k.Title))
		if k.Description != "" {
			fmt.Fprintf(w, "    %s\n", k.Description)
		}
		if cc := k.ChartConfig; cc != nil {
			x := strings.Join(cc.XAxisColumn.Columns, ", ")
			line := fmt.Sprintf("%s of %s by %s", cc.YAxisOperation, firstNonBlank(cc.YAxisColumn, "rows"), x)
			if cc.ChartType != "" {
				line = cc.ChartType + ": " + line
			}
			fmt.Fprintf(w, "    %s\n", color.HiBlackString(line))
		}
	}
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(suggestCmd)
	addDatasetFlags(suggestCmd)
	suggestCmd.Flags().IntVar(&sugCount, "count", 0, "number of KPIs to request (default from config)")
	suggestCmd.Flags().BoolVar(&sugJSON, "json", false, "emit the insight as JSON")
	suggestCmd.Flags().StringVarP(&sugOutput, "output", "o", "", "optional path to save the insight JSON")
}
