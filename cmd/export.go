package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/stockbatch-cli/internal/report"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Resolve a batch and write an xlsx cost report",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(args)
		if err != nil {
			return err
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		sess := env.NewSession()
		refs := sess.Parse(text)
		if len(refs) == 0 {
			return errors.New("no references found in input")
		}
		items := sess.ResolveAll(cmd.Context())

		out, err := os.Create(exportOutput)
		if err != nil {
			return eris.Wrap(err, "create report file")
		}
		defer out.Close()

		if err := report.Write(out, refs, items); err != nil {
			return err
		}

		stats := sess.Stats()
		fmt.Printf("wrote %s: %d lines, %d resolved, total %.2f\n",
			exportOutput, stats.TotalLines, stats.Succeeded, stats.TotalCost)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "report.xlsx", "report file path")
	rootCmd.AddCommand(exportCmd)
}
