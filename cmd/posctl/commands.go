package main

import (
	"bytes"
	"fmt"
	"os"
	"text/tabwriter"

	"go-pos-terminal/internal/app"
	"go-pos-terminal/internal/reports"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newBackupCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or import a full backup",
		Long: `Export or import a JSON backup of the terminal.

Available subcommands:
  export - Write every store to a backup file
  import - Replace the stores present in a backup file`,
	}

	var out string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write every store to a backup file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, done, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if out == "" {
				out = a.BackupFileName()
			}
			f, err := os.Create(out)
			if err != nil {
				return errors.Wrap(err, "create backup file")
			}
			if err := a.WriteBackup(cmd.Context(), f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return errors.Wrap(err, "write backup file")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", out)
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&out, "out", "o", "", "output file (default POS_Backup_<date>.json)")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the stores present in a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open backup file")
			}
			defer f.Close()

			a, done, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if err := a.RestoreBackup(cmd.Context(), f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup %s restored\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(exportCmd, importCmd)
	return cmd
}

type rangeFlags struct {
	kind, start, end string
}

func (f *rangeFlags) register(cmd *cobra.Command, defaultKind string) {
	cmd.Flags().StringVarP(&f.kind, "range", "r", defaultKind, "today, week, month, all or custom")
	cmd.Flags().StringVar(&f.start, "start", "", "first day of a custom range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "last day of a custom range (YYYY-MM-DD)")
}

func (f *rangeFlags) parse(a *app.App) (reports.Range, error) {
	return reports.ParseRange(f.kind, f.start, f.end, a.Location())
}

func newSalesCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Work with recorded sales",
	}

	var (
		rf     rangeFlags
		format string
		out    string
	)
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export sales as CSV, XLSX or PDF",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, done, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			r, err := rf.parse(a)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			_, name, err := a.ExportSales(cmd.Context(), &buf, format, r)
			if err != nil {
				return err
			}
			if out == "" {
				out = name
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return errors.Wrap(err, "write export file")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sales exported to %s\n", out)
			return nil
		},
	}
	rf.register(exportCmd, string(reports.All))
	exportCmd.Flags().StringVarP(&format, "format", "f", app.FormatCSV, "csv, xlsx or pdf")
	exportCmd.Flags().StringVarP(&out, "out", "o", "", "output file (default sales_report_<date>.<format>)")

	cmd.AddCommand(exportCmd)
	return cmd
}

func newSeedCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the default menu into an empty catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, done, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			seeded, err := a.Seed(cmd.Context())
			if err != nil {
				return err
			}
			if !seeded {
				fmt.Fprintln(cmd.OutOrStdout(), "Catalog already has products, nothing seeded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Default menu loaded")
			return nil
		},
	}
}

func newReportCmd(open opener) *cobra.Command {
	var rf rangeFlags
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print sales totals and best sellers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, done, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			r, err := rf.parse(a)
			if err != nil {
				return err
			}
			dash, err := a.Dashboard(cmd.Context(), r)
			if err != nil {
				return err
			}

			currency := a.Currency()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Range:\t%s\n", r.Kind)
			fmt.Fprintf(w, "Revenue:\t%s%s\n", currency, dash.Totals.Revenue.StringFixed(2))
			fmt.Fprintf(w, "Orders:\t%d\n", dash.Totals.OrderCount)
			fmt.Fprintf(w, "Average order:\t%s%s\n", currency, dash.Summary.AverageOrder.StringFixed(2))
			fmt.Fprintf(w, "Items sold:\t%d\n", dash.Summary.TotalItems)
			fmt.Fprintf(w, "Peak hour:\t%s\n", dash.PeakHour.Label)
			if len(dash.TopItems) > 0 {
				fmt.Fprintln(w, "\nTop items\tQty\tRevenue")
				for _, it := range dash.TopItems {
					fmt.Fprintf(w, "%s\t%d\t%s%s\n", it.Name, it.Quantity, currency, it.Revenue.StringFixed(2))
				}
			}
			return w.Flush()
		},
	}
	rf.register(cmd, string(reports.Today))
	return cmd
}
