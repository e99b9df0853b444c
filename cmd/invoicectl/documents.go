package main

import (
	"fmt"
	"os"

	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/render"
	"github.com/smallbiznis/invoicebuilder/internal/providers/pdf"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRenderCmd(e *env) *cobra.Command {
	var (
		tmpl   string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "render [file] [invoice]",
		Short: "Render one invoice as a printable HTML document",
		Example: `  invoicectl render invoices.json INV-202405-001
  invoicectl render invoices.json INV-202405-001 --template classic -o out/`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			invoices, err := loadInvoices(args[0])
			if err != nil {
				return err
			}
			inv, err := findInvoice(invoices, args[1])
			if err != nil {
				return err
			}

			t := inv.Template
			if tmpl != "" {
				if t, err = domain.ParseTemplate(tmpl); err != nil {
					return err
				}
			}

			d := e.defaults.Get()
			renderer := render.NewRenderer(render.Options{Brand: d.Brand, FooterNote: d.FooterNote}, e.formatter, e.log, nil)
			doc, err := renderer.Render(inv, t)
			if err != nil {
				return err
			}

			var sink render.Sink = render.WriterSink{W: cmd.OutOrStdout()}
			if outDir != "" {
				sink = render.FileSink{Dir: outDir}
			}
			if err := render.Print(cmd.Context(), sink, doc); err != nil {
				return err
			}
			e.log.Debug("invoice rendered", zap.String("invoice_number", inv.InvoiceNumber), zap.String("template", string(doc.Template)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&tmpl, "template", "t", "", "Template override (modern, classic, minimal)")
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Directory to write the HTML file into (default: stdout)")
	return cmd
}

func newPDFCmd(e *env) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "pdf [file] [invoice]",
		Short: "Export one invoice as PDF, or a receipt when it is paid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			invoices, err := loadInvoices(args[0])
			if err != nil {
				return err
			}
			inv, err := findInvoice(invoices, args[1])
			if err != nil {
				return err
			}

			d := e.defaults.Get()
			opts := pdf.Options{Brand: d.Brand, FooterNote: d.FooterNote}
			provider := pdf.New(e.log)

			var content []byte
			if inv.Status == domain.InvoiceStatusPaid {
				content, err = provider.GenerateReceipt(cmd.Context(), pdf.FromPaidInvoice(inv, e.formatter, opts))
			} else {
				content, err = provider.GenerateInvoice(cmd.Context(), pdf.FromInvoice(inv, e.formatter, opts))
			}
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = render.DocumentFilename(inv.InvoiceNumber, "pdf")
			}
			if err := os.WriteFile(outPath, content, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file path (default: derived from the invoice number)")
	return cmd
}
