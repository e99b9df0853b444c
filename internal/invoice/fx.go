package invoice

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicebuilder/internal/config"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/format"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/render"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/repository"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/service"
	"github.com/smallbiznis/invoicebuilder/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(NewIDNode),
	fx.Provide(NewFormatter),
	fx.Provide(NewNumberGenerator),
	fx.Provide(NewRenderer),
	fx.Provide(service.NewService),
)

func NewIDNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func NewFormatter(log *zap.Logger, m *metrics.InvoiceMetrics) *format.Formatter {
	return format.NewFormatter(log, m)
}

// NewNumberGenerator picks the numbering scheme from config.
func NewNumberGenerator(cfg config.Config, repo domain.Repository) format.NumberGenerator {
	if cfg.Invoice.Numbering == config.NumberingRandom {
		return format.NewRandomGenerator(nil)
	}
	return format.NewSequenceGenerator(repo, cfg.Invoice.NumberTemplate)
}

func NewRenderer(defaults *config.DefaultsHolder, f *format.Formatter, log *zap.Logger, m *metrics.InvoiceMetrics) render.Renderer {
	d := defaults.Get()
	return render.NewRenderer(render.Options{Brand: d.Brand, FooterNote: d.FooterNote}, f, log, m)
}
