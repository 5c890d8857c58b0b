package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var providersJSON bool

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show the current provider catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		providers := env.Snapshot().Providers()
		if providersJSON {
			return json.NewEncoder(os.Stdout).Encode(providers)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tACTIVE\tCURRENCY\tID PATTERN")
		for _, p := range providers {
			fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", p.Name, p.Active, p.CurrencyUnit, p.IDPattern)
		}
		return w.Flush()
	},
}

func init() {
	providersCmd.Flags().BoolVar(&providersJSON, "json", false, "emit machine-readable output")
	rootCmd.AddCommand(providersCmd)
}
