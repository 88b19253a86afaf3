package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jdowell/mlmbot/internal/contracts"
)

// printSummary renders a cycle summary for the terminal.
func printSummary(summary *contracts.CycleSummary) {
	fmt.Printf("\nCycle %s (%s)\n", summary.RunID, summary.Date.Format("2006-01-02"))

	if !summary.RebalanceDay {
		fmt.Println("Not a rebalance day; no actions taken.")
		return
	}

	if summary.Regime != nil {
		fmt.Printf("Regime: mean vol %.4f vs threshold %.4f (%d instruments) -> ",
			summary.Regime.MeanVolatility, summary.Regime.Threshold, summary.Regime.DefinedCount)
		if summary.Regime.Tradable {
			fmt.Println("TRADABLE")
		} else {
			fmt.Println("NOT TRADABLE")
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tACTION\tQTY\tREASON\tTREND")

	for _, a := range summary.Actions {
		trend := "-"
		if a.Signal != nil {
			trend = string(a.Signal.Direction)
		}
		reason := a.Reason
		if reason == "" {
			reason = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", a.Symbol, a.Direction, a.Quantity, reason, trend)
	}
	w.Flush()

	fmt.Printf("\n%d trade(s) out of %d instruments.\n", summary.TradeCount(), len(summary.Actions))
}
