package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stock-service/internal/grid"
	"stock-service/internal/spreadsheet"
)

func newExtractCmd() *cobra.Command {
	var view string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Print the SKU quantities found in a stock report",
		Long: `Reads the report and prints the extracted entries without touching the
database.

Example:
  stockctl extract estoque.xlsx --view ready --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			general, ready, err := layouts()
			if err != nil {
				return err
			}
			selected, err := selectLayouts(view, general, ready)
			if err != nil {
				return err
			}

			g, err := spreadsheet.ReadFile(args[0])
			if err != nil {
				return err
			}

			return printViews(cmd.OutOrStdout(), grid.ExtractViews(g, selected...), selected, asJSON)
		},
	}

	cmd.Flags().StringVar(&view, "view", "all", "Report section to extract: general, ready or all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func selectLayouts(view string, general, ready grid.Layout) ([]grid.Layout, error) {
	switch view {
	case grid.ViewGeneral:
		return []grid.Layout{general}, nil
	case grid.ViewReady:
		return []grid.Layout{ready}, nil
	case "all", "":
		return []grid.Layout{general, ready}, nil
	}
	return nil, fmt.Errorf("unknown view %q (expected general, ready or all)", view)
}

func printViews(w io.Writer, views map[string][]grid.StockEntry, order []grid.Layout, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, layout := range order {
		entries := views[layout.Name]
		fmt.Fprintf(tw, "%s (%s): %d SKUs, %d units\n", layout.Name, layout.Marker, len(entries), grid.TotalQuantity(entries))
		for _, e := range entries {
			fmt.Fprintf(tw, "  %s\t%d\n", e.SKU, e.Quantidade)
		}
	}
	return tw.Flush()
}
