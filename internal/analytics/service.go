package analytics

import (
	"context"

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

// Service summarises the stored invoices.
type Service struct {
	repo  domain.Repository
	log   *zap.Logger
	clock clock.Clock
}

func NewService(p Params) *Service {
	return &Service{
		repo:  p.Repo,
		log:   p.Log.Named("analytics.service"),
		clock: p.Clock,
	}
}

// Summary applies q and summarises the matching invoices as of the current clock.
func (s *Service) Summary(ctx context.Context, q Query) (Summary, error) {
	invoices, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("failed to list invoices", zap.Error(err))
		return Summary{}, err
	}
	return Summarize(Filter(invoices, q), s.clock.Now()), nil
}

var Module = fx.Module("analytics.service",
	fx.Provide(NewService),
)
