package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/smallbiznis/invoicebuilder/internal/analytics"
	"github.com/smallbiznis/invoicebuilder/internal/export"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/format"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func addQueryFlags(cmd *cobra.Command, q *analytics.Query) {
	cmd.Flags().StringVarP(&q.Search, "query", "q", "", "Match invoice number, client or sender name")
	cmd.Flags().StringVarP(&q.Status, "status", "s", analytics.StatusAll, "Status filter (draft, sent, paid, all)")
}

func newAnalyticsCmd() *cobra.Command {
	var q analytics.Query

	cmd := &cobra.Command{
		Use:   "analytics [file]",
		Short: "Print dashboard statistics as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invoices, err := loadInvoices(args[0])
			if err != nil {
				return err
			}
			summary := analytics.Summarize(analytics.Filter(invoices, q), time.Now().UTC())

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}

	addQueryFlags(cmd, &q)
	return cmd
}

func newExportCmd(e *env) *cobra.Command {
	var (
		q       analytics.Query
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write invoices and their summary to an xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invoices, err := loadInvoices(args[0])
			if err != nil {
				return err
			}
			selected := analytics.Filter(invoices, q)
			now := time.Now().UTC()

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := export.Write(f, selected, analytics.Summarize(selected, now), now); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			e.log.Debug("workbook written", zap.String("path", outPath), zap.Int("invoices", len(selected)))
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d invoices)\n", outPath, len(selected))
			return nil
		},
	}

	addQueryFlags(cmd, &q)
	cmd.Flags().StringVarP(&outPath, "output", "o", export.Filename, "Output workbook path")
	return cmd
}

func newNumberCmd() *cobra.Command {
	var (
		tmpl   string
		seq    int64
		date   string
		random bool
	)

	cmd := &cobra.Command{
		Use:   "number",
		Short: "Preview an invoice number",
		Example: `  invoicectl number --seq 7
  invoicectl number --template "{YY}{MM}/{SEQ4}" --date 2024-05-01 --seq 42
  invoicectl number --random`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			at := time.Now().UTC()
			if date != "" {
				parsed, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				at = parsed
			}

			var number string
			if random {
				number = format.NextInvoiceNumber(at, nil)
			} else {
				out, err := format.FormatInvoiceNumber(tmpl, at, seq)
				if err != nil {
					return err
				}
				number = out
			}
			fmt.Fprintln(cmd.OutOrStdout(), number)
			return nil
		},
	}

	cmd.Flags().StringVar(&tmpl, "template", format.DefaultInvoiceNumberTemplate, "Number template")
	cmd.Flags().Int64Var(&seq, "seq", 1, "Sequence value")
	cmd.Flags().StringVar(&date, "date", "", "Issue date (YYYY-MM-DD, default: today)")
	cmd.Flags().BoolVar(&random, "random", false, "Use the random INV-YYYYMM-DDD scheme")
	return cmd
}
