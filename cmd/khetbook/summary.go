package main

import (
	"os"

	"github.com/spf13/cobra"

	"khetbook/internal/core"
	"khetbook/internal/summary"
)

func newSummaryCmd(e *env) *cobra.Command {
	top := -1
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show income, expense and profit per crop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, err := e.session.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd)
			row(tw, "Expense", core.FormatRupees(o.Expense))
			row(tw, "Income", core.FormatRupees(o.Income))
			row(tw, "Net", core.FormatRupees(o.Net))
			row(tw, "", "")
			row(tw, "CROP", "STATUS", "EXPENSE", "INCOME", "NET")
			for _, c := range summary.TopCrops(o, top) {
				row(tw, c.Name, c.Status, core.FormatRupees(c.Expense), core.FormatRupees(c.Income), core.FormatRupees(c.Net))
			}
			if u := o.Unassigned; !u.Expense.IsZero() || !u.Income.IsZero() {
				row(tw, "Unassigned", "", core.FormatRupees(u.Expense), core.FormatRupees(u.Income), core.FormatRupees(u.Net))
			}
			if len(o.ExpenseByCategory) > 0 || len(o.IncomeByCategory) > 0 {
				row(tw, "", "")
				row(tw, "CATEGORY", "AMOUNT")
				for _, c := range o.ExpenseByCategory {
					row(tw, c.Label, core.FormatRupees(c.Amount))
				}
				for _, c := range o.IncomeByCategory {
					row(tw, c.Label, core.FormatRupees(c.Amount))
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&top, "top", -1, "only the n most profitable crops")
	return cmd
}

func newExportCmd(e *env) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every crop and record to an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := e.session.Export(cmd.Context(), f); err != nil {
				_ = f.Close()
				_ = os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			printf(cmd, "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "khetbook.xlsx", "output file")
	return cmd
}
