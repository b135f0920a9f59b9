package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightify-cli/internal/ingest"
	"github.com/KaramelBytes/insightify-cli/internal/profile"
	"github.com/KaramelBytes/insightify-cli/internal/table"
	"github.com/KaramelBytes/insightify-cli/internal/utils"
)

var (
	// shared by preview, suggest and chart
	dsDelimiter  string
	dsMaxRows    int
	dsSheetName  string
	dsSheetIndex int

	prvRows   int
	prvJSON   bool
	prvOutput string
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Profile a CSV/TSV/XLSX/XLS file and show its first rows",
	Example: `  insightify preview sales.csv
  insightify preview report.xlsx --sheet-name Q1 --rows 10
  insightify preview sales.csv --json -o profile.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config()
		if err != nil {
			return err
		}
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		rows := c.PreviewRows
		if prvRows > 0 {
			rows = prvRows
		}
		rep := profile.Build(ds, profile.Options{Classifier: c.Classifier(), PreviewRows: rows})

		var out []byte
		if prvJSON {
			out, err = utils.PrettyJSON(rep)
			if err != nil {
				return err
			}
			out = append(out, '\n')
		} else {
			out = []byte(rep.Markdown())
		}
		if err := utils.WriteOutput(cmd.OutOrStdout(), prvOutput, out); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		if prvOutput != "" && prvOutput != "-" {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile to %s\n", prvOutput)
		}
		return nil
	},
}

// loadDataset parses path with the configured limits and the dataset flags.
func loadDataset(path string) (*table.Dataset, error) {
	if !ingest.Supported(path) {
		return nil, fmt.Errorf("%s: %w (use .csv, .tsv, .xlsx or .xls)", path, ingest.ErrUnsupported)
	}
	c, err := config()
	if err != nil {
		return nil, err
	}
	opt := c.IngestOptions()
	if dsMaxRows > 0 {
		opt.MaxRows = dsMaxRows
	}
	opt.SheetName = dsSheetName
	if dsSheetIndex > 0 {
		opt.SheetIndex = dsSheetIndex
	}
	switch dsDelimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case ";":
		opt.Delimiter = ';'
	case "\t", "tab":
		opt.Delimiter = '\t'
	default:
		return nil, fmt.Errorf("unsupported --delimiter: %s", dsDelimiter)
	}
	ds, err := ingest.ParseFile(path, opt)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded %s: %d rows, %d columns", path, ds.Len(), len(ds.Columns))
	return ds, nil
}

func addDatasetFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&dsDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (sniffed if omitted)")
	cmd.Flags().IntVar(&dsMaxRows, "max-rows", 0, "maximum rows to load (default from config)")
	cmd.Flags().StringVar(&dsSheetName, "sheet-name", "", "XLSX/XLS: sheet name to load")
	cmd.Flags().IntVar(&dsSheetIndex, "sheet-index", 1, "XLSX/XLS: 1-based sheet index (used if --sheet-name not provided)")
}

func init() {
	rootCmd.AddCommand(previewCmd)
	addDatasetFlags(previewCmd)
	previewCmd.Flags().IntVar(&prvRows, "rows", 0, "number of preview rows (default from config)")
	previewCmd.Flags().BoolVar(&prvJSON, "json", false, "emit the profile as JSON")
	previewCmd.Flags().StringVarP(&prvOutput, "output", "o", "", "optional path to write the profile")
}
