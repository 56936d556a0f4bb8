package usecase

import (
	"context"

	"course-access-platform/internal/clock"
	"course-access-platform/internal/domain/model"
	"course-access-platform/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// StatsUseCase feeds the ops gauges. It never mutates entitlement state.
type StatsUseCase interface {
	ActiveByCategory(ctx context.Context) (map[model.Category]int, error)
}

type statsUC struct {
	entitlements repository.EntitlementRepository
	clock        clock.Clock
	log          *zerolog.Logger
}

func NewStatsUseCase(entitlements repository.EntitlementRepository, clk clock.Clock, logger *zerolog.Logger) *statsUC {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &statsUC{entitlements: entitlements, clock: clk, log: logger}
}

// ActiveByCategory reports every known category, zero included, so gauges
// drop back to 0 once the last record in a category expires.
func (s *statsUC) ActiveByCategory(ctx context.Context) (map[model.Category]int, error) {
	counts, err := s.entitlements.CountActiveByCategory(ctx, repository.NoTX, s.clock.Now())
	if err != nil {
		return nil, err
	}
	out := make(map[model.Category]int, len(model.Categories))
	for _, c := range model.Categories {
		out[c] = counts[c]
	}
	return out, nil
}
