package main

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/torontodeveloper/co2-emission-ML/pkg/dataset"
)

func newCodebookCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "codebook [column...]",
		Short: "Describe dataset columns using the published codebooks",
		RunE: runE(a, func(cmd *cobra.Command, args []string) error {
			b, err := a.builder()
			if err != nil {
				return err
			}
			cb, err := b.MergedCodebooks(cmd.Context())
			if err != nil {
				return err
			}

			var entries []dataset.Entry
			if len(args) == 0 {
				entries = cb.Entries()
			}
			for _, col := range args {
				e, ok := cb.Describe(col)
				if !ok {
					warn(cmd.ErrOrStderr(), "no description for %q", col)
					continue
				}
				entries = append(entries, e)
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Column", "Description", "Unit"})
			table.SetAutoWrapText(true)
			table.SetColWidth(60)
			for _, e := range entries {
				table.Append([]string{e.Column, e.Description, e.Unit})
			}
			table.Render()
			return nil
		}),
	}
}
