package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history [submission-id]",
	Short: "List recorded order submissions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if len(args) == 1 {
			sub, err := env.Store.GetSubmission(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(sub)
		}

		subs, err := env.Store.ListSubmissions(cmd.Context(), cfg.Account.UserID, historyLimit)
		if err != nil {
			return err
		}
		if historyJSON {
			return json.NewEncoder(os.Stdout).Encode(subs)
		}

		if len(subs) == 0 {
			fmt.Println("no submissions recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SUBMITTED\tSUBMISSION\tORDER\tITEMS\tTOTAL")
		for _, sub := range subs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\n",
				sub.CreatedAt.Format("2006-01-02 15:04"), sub.ID, sub.OrderID, len(sub.Items), sub.TotalCost)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum submissions to list")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "emit machine-readable output")
	rootCmd.AddCommand(historyCmd)
}
