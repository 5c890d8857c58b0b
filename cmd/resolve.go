package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/stockbatch-cli/internal/cost"
	"github.com/sells-group/stockbatch-cli/internal/model"
)

var resolveJSON bool

var resolveCmd = &cobra.Command{
	Use:   "resolve [file]",
	Short: "Parse and resolve a batch without ordering",
	Long:  "Reads asset references from a file or stdin, resolves each valid line against the metadata API, and prints the per-line outcome with batch totals.",
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
			fmt.Println("no references found in input")
			return nil
		}

		pass := sess.Resolve(cmd.Context())
		if !resolveJSON {
			for item := range pass.Results() {
				printProgress(item)
			}
		}
		items := sess.Collect(pass)

		if resolveJSON {
			return json.NewEncoder(os.Stdout).Encode(map[string]any{
				"refs":  refs,
				"items": items,
				"stats": sess.Stats(),
			})
		}

		printBatchTable(refs, items)
		printStats(sess.Stats())
		return nil
	},
}

func printProgress(item model.ResolvedItem) {
	if item.IsSuccess {
		fmt.Printf("  resolved %s:%s  %s\n", item.Input.Site, item.Input.ExternalID,
			cost.FormatAmount(item.Metadata.Price, item.Metadata.CurrencyUnit))
		return
	}
	fmt.Printf("  failed   %s:%s  %s\n", item.Input.Site, item.Input.ExternalID, item.Error)
}

func printBatchTable(refs []model.ParsedReference, items []model.ResolvedItem) {
	byIndex := make(map[int]model.ResolvedItem, len(items))
	for _, it := range items {
		byIndex[it.Input.Index] = it
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\nLINE\tINPUT\tPROVIDER\tSTATUS\tPRICE\tDETAIL")
	for _, ref := range refs {
		if !ref.IsValid {
			fmt.Fprintf(w, "%d\t%s\t%s\tinvalid\t\t%s\n", ref.Index+1, ref.Raw, ref.Site, ref.InvalidReason)
			continue
		}
		it, ok := byIndex[ref.Index]
		switch {
		case !ok:
			fmt.Fprintf(w, "%d\t%s\t%s\tunresolved\t\t\n", ref.Index+1, ref.Raw, ref.Site)
		case it.IsSuccess:
			fmt.Fprintf(w, "%d\t%s\t%s\tresolved\t%s\t%s\n", ref.Index+1, ref.Raw, ref.Site,
				cost.FormatAmount(it.Metadata.Price, it.Metadata.CurrencyUnit), it.Metadata.Title)
		default:
			fmt.Fprintf(w, "%d\t%s\t%s\tfailed\t\t%s\n", ref.Index+1, ref.Raw, ref.Site, it.Error)
		}
	}
	w.Flush()
}

func printStats(stats model.BatchStats) {
	fmt.Printf("\n%d lines: %d valid, %d invalid; %d resolved, %d failed\n",
		stats.TotalLines, stats.ValidRefs, stats.InvalidRefs, stats.Succeeded, stats.Failed)
	fmt.Printf("total cost: %s\n", cost.FormatBreakdown(stats.PerCurrency))
}

func printSummary(summary *cost.Summary) {
	fmt.Printf("\ntotal cost: %s\n", cost.FormatAmount(summary.TotalCost, summary.Balance.CurrencyUnit))
	fmt.Printf("balance:    %s\n", cost.FormatAmount(summary.Balance.Amount, summary.Balance.CurrencyUnit))
	if summary.Affordable {
		fmt.Printf("eligible:   %d items\n", len(summary.EligibleItems))
	} else {
		fmt.Println("eligible:   none (total cost exceeds balance)")
	}
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "emit machine-readable output")
	rootCmd.AddCommand(resolveCmd)
}
