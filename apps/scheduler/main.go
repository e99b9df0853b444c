package main

import (
	"github.com/smallbiznis/invoicebuilder/internal/clock"
	"github.com/smallbiznis/invoicebuilder/internal/config"
	"github.com/smallbiznis/invoicebuilder/internal/invoice"
	"github.com/smallbiznis/invoicebuilder/internal/observability"
	"github.com/smallbiznis/invoicebuilder/internal/providers"
	"github.com/smallbiznis/invoicebuilder/internal/ratelimit"
	"github.com/smallbiznis/invoicebuilder/internal/scheduler"
	"github.com/smallbiznis/invoicebuilder/pkg/db"
	"go.uber.org/fx"
)

// Standalone worker for split deployments. Run the API with
// SCHEDULER_ENABLED=false next to it.
func main() {
	app := fx.New(
		config.Module,
		fx.Decorate(enableScheduler),
		observability.Module,
		db.Module,
		clock.Module,

		// Domain services required by scheduler
		invoice.Module,
		providers.Module,
		ratelimit.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}

func enableScheduler(cfg config.Config) config.Config {
	cfg.Scheduler.Enabled = true
	return cfg
}
