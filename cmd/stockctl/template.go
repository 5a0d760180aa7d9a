package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stock-service/internal/spreadsheet"
)

func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template [output.xlsx]",
		Short: "Write a sample stock report with one product block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			general, ready, err := layouts()
			if err != nil {
				return err
			}

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := spreadsheet.WriteReportTemplate(f, general, ready); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}
}
