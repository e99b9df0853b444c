package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/smallbiznis/invoicebuilder/internal/config"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/calc"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/format"
	"github.com/smallbiznis/invoicebuilder/internal/observability"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.1.0"

// env carries what every subcommand needs: a logger, the invoice defaults and
// a formatter.
type env struct {
	log       *zap.Logger
	defaults  *config.DefaultsHolder
	formatter *format.Formatter
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "invoicectl",
		Short:         "Render, export and summarise invoices stored in a JSON file",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return e.init()
		},
	}

	root.AddCommand(
		newRenderCmd(e),
		newPDFCmd(e),
		newAnalyticsCmd(),
		newExportCmd(e),
		newNumberCmd(),
	)
	return root
}

func (e *env) init() error {
	cfg := config.Load()
	obsCfg := observability.LoadConfig(cfg)
	log, err := observability.NewLogger(obsCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defaults, err := config.NewDefaultsHolderFromConfig(cfg, log)
	if err != nil {
		return err
	}

	e.log = log.Named("invoicectl")
	e.defaults = defaults
	e.formatter = format.NewFormatter(log, nil)
	return nil
}

// loadInvoices reads a JSON array of invoices, or an object with an
// "invoices" array, and recomputes every invoice's totals.
func loadInvoices(path string) ([]domain.Invoice, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var invoices []domain.Invoice
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapper struct {
			Invoices []domain.Invoice `json:"invoices"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		invoices = wrapper.Invoices
	} else if err := json.Unmarshal(trimmed, &invoices); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	for i := range invoices {
		computed, err := calc.Recompute(invoices[i])
		if err != nil {
			return nil, fmt.Errorf("invoice %s: %w", invoices[i].InvoiceNumber, err)
		}
		invoices[i] = computed
	}
	return invoices, nil
}

// findInvoice matches by id or invoice number.
func findInvoice(invoices []domain.Invoice, key string) (domain.Invoice, error) {
	for _, inv := range invoices {
		if inv.ID == key || inv.InvoiceNumber == key {
			return inv, nil
		}
	}
	return domain.Invoice{}, fmt.Errorf("%w: %s", domain.ErrInvoiceNotFound, key)
}
