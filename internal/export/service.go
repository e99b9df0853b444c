package export

import (
	"bytes"
	"context"

	"github.com/smallbiznis/invoicebuilder/internal/analytics"
	"github.com/smallbiznis/invoicebuilder/internal/clock"
	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Repo  domain.Repository
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	repo  domain.Repository
	log   *zap.Logger
	clock clock.Clock
}

func NewService(p Params) *Service {
	return &Service{
		repo:  p.Repo,
		log:   p.Log.Named("export.service"),
		clock: p.Clock,
	}
}

// Workbook exports the invoices matching q, newest first, with a summary of
// the same selection.
func (s *Service) Workbook(ctx context.Context, q analytics.Query) ([]byte, error) {
	invoices, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("failed to list invoices", zap.Error(err))
		return nil, err
	}
	selected := analytics.Filter(invoices, q)
	now := s.clock.Now()

	var buf bytes.Buffer
	if err := Write(&buf, selected, analytics.Summarize(selected, now), now); err != nil {
		s.log.Error("failed to build workbook", zap.Error(err))
		return nil, err
	}
	s.log.Debug("workbook exported", zap.Int("invoices", len(selected)))
	return buf.Bytes(), nil
}

var Module = fx.Module("export.service",
	fx.Provide(NewService),
)
