package main

import (
	"github.com/smallbiznis/invoicebuilder/internal/analytics"
	"github.com/smallbiznis/invoicebuilder/internal/clock"
	"github.com/smallbiznis/invoicebuilder/internal/config"
	"github.com/smallbiznis/invoicebuilder/internal/export"
	"github.com/smallbiznis/invoicebuilder/internal/invoice"
	"github.com/smallbiznis/invoicebuilder/internal/migration"
	"github.com/smallbiznis/invoicebuilder/internal/observability"
	"github.com/smallbiznis/invoicebuilder/internal/providers"
	"github.com/smallbiznis/invoicebuilder/internal/publicinvoice"
	"github.com/smallbiznis/invoicebuilder/internal/ratelimit"
	"github.com/smallbiznis/invoicebuilder/internal/scheduler"
	"github.com/smallbiznis/invoicebuilder/internal/server"
	"github.com/smallbiznis/invoicebuilder/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		clock.Module,
		db.Module,
		migration.Module,

		// Functional Domains
		invoice.Module,
		analytics.Module,
		export.Module,
		providers.Module,
		publicinvoice.Module,
		ratelimit.Module,

		scheduler.Module,
		server.Module,
	)
	app.Run()
}
