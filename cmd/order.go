package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/stockbatch-cli/internal/batch"
	"github.com/sells-group/stockbatch-cli/internal/cost"
)

var orderYes bool

var orderCmd = &cobra.Command{
	Use:   "order [file]",
	Short: "Resolve a batch and submit a bulk order",
	Long:  "Runs the full pipeline: parse, resolve, total cost against the account balance, then submit the eligible items as one bulk order. Refuses to submit when the balance does not cover the total.",
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
		printBatchTable(refs, items)

		summary, err := sess.Aggregate(cmd.Context())
		if err != nil {
			if errors.Is(err, cost.ErrBalanceUnavailable) {
				return errors.New("balance service unavailable; nothing was ordered")
			}
			return err
		}
		printSummary(summary)

		if !summary.Affordable {
			return errors.New("total cost exceeds balance; nothing was ordered")
		}
		if len(summary.EligibleItems) == 0 {
			return errors.New("no resolvable items to order")
		}

		if !orderYes {
			// Stdin already carried the batch text, so there is nothing left
			// to prompt against.
			if len(args) == 0 || args[0] == "-" {
				return errors.New("input came from stdin; pass --yes to submit")
			}
			if !confirm(fmt.Sprintf("submit order for %d items (%s)?",
				len(summary.EligibleItems), cost.FormatAmount(summary.TotalCost, summary.Balance.CurrencyUnit))) {
				fmt.Println("aborted")
				return nil
			}
		}

		conf, err := sess.Submit(cmd.Context())
		if err != nil {
			// The balance is re-read at submit time, so the gate can close
			// between preview and submission.
			if errors.Is(err, batch.ErrNotAffordable) {
				return errors.New("balance changed; total cost now exceeds balance")
			}
			return err
		}

		fmt.Printf("\norder %s submitted (%d items)\n", conf.OrderID, len(conf.PerItem))
		for _, st := range conf.PerItem {
			line := fmt.Sprintf("  %s:%s  %s", st.Site, st.ID, st.Status)
			if st.Reason != "" {
				line += "  (" + st.Reason + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

// confirm prompts on stdin for a yes/no answer.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func init() {
	orderCmd.Flags().BoolVarP(&orderYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(orderCmd)
}
