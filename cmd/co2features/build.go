package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/torontodeveloper/co2-emission-ML/pkg/dataprep"
)

func newBuildCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Fetch, join and clean the sources and write the dataset as CSV",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")

	cmd.RunE = runE(a, func(cmd *cobra.Command, _ []string) error {
		b, err := a.builder()
		if err != nil {
			return err
		}
		ds, err := b.Build(cmd.Context())
		if err != nil {
			return err
		}

		write := func(w io.Writer) error { return dataprep.WriteCSV(w, ds.Frame) }
		if out == "-" {
			if err := write(cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("write dataset: %w", err)
			}
			return nil
		}
		if err := writeFile(out, write); err != nil {
			return fmt.Errorf("write dataset: %w", err)
		}
		status(cmd.ErrOrStderr(), "wrote %d rows x %d columns to %s", ds.Frame.Nrow(), ds.Frame.Ncol(), out)
		return nil
	})
	return cmd
}
