package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dailyregister/internal/core"
	"dailyregister/internal/services"
)

var (
	summaryFlags     dateFlags
	summaryBreakdown bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the daily or date-range totals",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		day, from, to, err := summaryFlags.resolve()
		if err != nil {
			return err
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		reports := services.NewReportService(store)
		ctx := cmd.Context()

		var (
			summary   core.Summary
			breakdown core.Breakdown
			label     string
		)
		if day != nil {
			label = day.String()
			if summary, err = reports.DailySummary(ctx, *day); err != nil {
				return err
			}
			if summaryBreakdown {
				if breakdown, err = reports.DailyBreakdown(ctx, *day); err != nil {
					return err
				}
			}
		} else {
			label = from.String() + " to " + to.String()
			if summary, err = reports.RangeSummary(ctx, *from, *to); err != nil {
				return err
			}
			if summaryBreakdown {
				if breakdown, err = reports.RangeBreakdown(ctx, *from, *to); err != nil {
					return err
				}
			}
		}

		printSummary(label, summary)
		if summaryBreakdown {
			printBreakdown(breakdown)
		}
		return nil
	},
}

func init() {
	summaryFlags.register(summaryCmd)
	summaryCmd.Flags().BoolVar(&summaryBreakdown, "breakdown", false, "include the per-code breakdown")
}

func printSummary(label string, s core.Summary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "Summary for %s\n", label)
	fmt.Fprintf(w, "Transactions:\t%d\n", s.Transactions)
	fmt.Fprintf(w, "Total amount:\t%.2f\n", s.TotalAmount)
	fmt.Fprintf(w, "Net amount paid:\t%.2f\n", s.NetAmountPaid)
	fmt.Fprintf(w, "Billable amount:\t%.2f\n", s.BillableAmount)
	fmt.Fprintf(w, "Old item amount:\t%.2f\n", s.OldAmount)
	fmt.Fprintf(w, "Gold weight:\t%.3f gm (billable %.3f gm)\n", s.NewWeight[core.Gold], s.BillableWeight[core.Gold])
	fmt.Fprintf(w, "Silver weight:\t%.3f gm (billable %.3f gm)\n", s.NewWeight[core.Silver], s.BillableWeight[core.Silver])
	fmt.Fprintf(w, "Other weight:\t%.3f gm\n", s.NewWeight[core.Other])
	fmt.Fprintf(w, "Old gold:\t%.3f gm\n", s.OldWeight[core.Gold])
	fmt.Fprintf(w, "Old silver:\t%.3f gm\n", s.OldWeight[core.Silver])
	fmt.Fprintf(w, "Payments:\tcash %.2f, card %.2f, upi %.2f\n", s.Payments.Cash, s.Payments.Card, s.Payments.UPI)
	w.Flush()
}

func printBreakdown(b core.Breakdown) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	printGroups := func(title string, groups []core.CodeGroup) {
		fmt.Fprintf(w, "\n%s\n", title)
		if len(groups) == 0 {
			fmt.Fprintln(w, "  (none)")
			return
		}
		fmt.Fprintln(w, "  Code\tName\tCount\tWeight\tAmount")
		for _, g := range groups {
			fmt.Fprintf(w, "  %s\t%s\t%d\t%.3f\t%.2f\n", g.Code, g.Name, g.Count, g.TotalWeight, g.TotalAmount)
		}
	}
	printGroups("Billable", b.Billable)
	printGroups("Non-billable", b.NonBillable)
	w.Flush()
}
