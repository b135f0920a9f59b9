package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightify-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/insightify-cli/internal/config"
	"github.com/KaramelBytes/insightify-cli/internal/utils"
)

var (
	modJSON   bool
	syncPath  string
	syncMerge bool
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List known models, provider defaults and pricing",
	Example: `  insightify models
  insightify models --provider ollama
  insightify models --json
  insightify models sync --file ./models.json
  insightify models sync --file ./pricing.json --merge`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := ai.NormalizeProvider(flagProvider)
		list := ai.Catalog(provider)
		out := cmd.OutOrStdout()
		if modJSON {
			b, err := utils.PrettyJSON(list)
			if err != nil {
				return err
			}
			_, err = out.Write(append(b, '\n'))
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PROVIDER\tMODEL\tCONTEXT\tIN/1K\tOUT/1K\t")
		for _, m := range list {
			mark := ""
			if ai.DefaultModel(m.Provider) == m.Name {
				mark = " (default)"
			}
			fmt.Fprintf(tw, "%s\t%s%s\t%d\t%.5f\t%.5f\t\n", m.Provider, m.Name, mark, m.ContextTokens, m.InputPerK, m.OutputPerK)
		}
		return tw.Flush()
	},
}

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Save model pricing from a JSON file; it is merged into the catalog on every run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncPath == "" {
			return fmt.Errorf("--file is required")
		}
		m, err := ai.LoadCatalogFromJSON(syncPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		dest, err := cfgpkg.CatalogPath(cfgFile)
		if err != nil {
			return err
		}
		if syncMerge {
			saved, err := ai.LoadCatalogFromJSON(dest)
			switch {
			case err == nil:
				for k, v := range m {
					saved[k] = v
				}
				m = saved
			case !errors.Is(err, fs.ErrNotExist):
				return fmt.Errorf("load saved catalog: %w", err)
			}
		}
		b, err := utils.PrettyJSON(m)
		if err != nil {
			return err
		}
		if err := utils.SafeWriteFile(dest, append(b, '\n')); err != nil {
			return fmt.Errorf("save catalog: %w", err)
		}
		ai.MergeCatalog(m)
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %d models to %s\n", len(m), dest)
		return nil
	},
}

// loadSavedCatalog merges the models saved by `models sync`.
func loadSavedCatalog() {
	p, err := cfgpkg.CatalogPath(cfgFile)
	if err != nil {
		return
	}
	m, err := ai.LoadCatalogFromJSON(p)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("ignoring model catalog %s: %v", p, err)
		}
		return
	}
	ai.MergeCatalog(m)
	logger.Debug("merged %d models from %s", len(m), p)
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsSyncCmd)
	modelsCmd.Flags().BoolVar(&modJSON, "json", false, "emit the catalog as JSON")
	modelsSyncCmd.Flags().StringVar(&syncPath, "file", "", "JSON file mapping model names to pricing")
	modelsSyncCmd.Flags().BoolVar(&syncMerge, "merge", false, "merge into previously saved models instead of replacing them")
}
