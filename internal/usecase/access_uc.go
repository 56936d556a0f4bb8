package usecase

import (
	"context"
	"errors"
	"fmt"

	"course-access-platform/internal/clock"
	"course-access-platform/internal/domain"
	"course-access-platform/internal/domain/model"
	"course-access-platform/internal/domain/ports/repository"
	"course-access-platform/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ AccessUseCase = (*accessUC)(nil)

// AccessUseCase answers "may this user open this content right now".
// Missing identifiers are answered with false, only store failures are errors.
type AccessUseCase interface {
	HasAccess(ctx context.Context, userID, courseID string, category model.Category) (bool, error)
	HasBundleAccess(ctx context.Context, userID string, category model.Category) (bool, error)
	// CourseAccess returns the active record, or nil when the course is locked.
	CourseAccess(ctx context.Context, userID, courseID string, category model.Category) (*model.Entitlement, error)
	ListForUser(ctx context.Context, userID string) ([]*model.Entitlement, error)
}

type accessUC struct {
	entitlements repository.EntitlementRepository
	catalog      repository.CatalogRepository
	clock        clock.Clock
	log          *zerolog.Logger
}

func NewAccessUseCase(entitlements repository.EntitlementRepository, catalog repository.CatalogRepository, clk clock.Clock, logger *zerolog.Logger) *accessUC {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &accessUC{entitlements: entitlements, catalog: catalog, clock: clk, log: logger}
}

func (a *accessUC) CourseAccess(ctx context.Context, userID, courseID string, category model.Category) (*model.Entitlement, error) {
	defer logging.TraceDuration(a.log, "AccessUC.CourseAccess")()
	if userID == "" || courseID == "" || !category.Valid() {
		return nil, nil
	}
	e, err := a.entitlements.FindActive(ctx, repository.NoTX, userID, courseID, category, a.clock.Now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active entitlement: %w", err)
	}
	return e, nil
}

func (a *accessUC) HasAccess(ctx context.Context, userID, courseID string, category model.Category) (bool, error) {
	e, err := a.CourseAccess(ctx, userID, courseID, category)
	if err != nil {
		return false, err
	}
	return e != nil, nil
}

// HasBundleAccess is true when the category has at least one course and the
// user holds an active record for each of them.
func (a *accessUC) HasBundleAccess(ctx context.Context, userID string, category model.Category) (bool, error) {
	defer logging.TraceDuration(a.log, "AccessUC.HasBundleAccess")()
	if userID == "" || !category.Valid() {
		return false, nil
	}
	courses, err := a.catalog.ListByCategory(ctx, repository.NoTX, category)
	if err != nil {
		return false, fmt.Errorf("list category: %w", err)
	}
	if len(courses) == 0 {
		return false, nil
	}

	now := a.clock.Now()
	for _, c := range courses {
		_, err := a.entitlements.FindActive(ctx, repository.NoTX, userID, c.ID, category, now)
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("find active entitlement: %w", err)
		}
	}
	return true, nil
}

func (a *accessUC) ListForUser(ctx context.Context, userID string) ([]*model.Entitlement, error) {
	defer logging.TraceDuration(a.log, "AccessUC.ListForUser")()
	if userID == "" {
		return nil, nil
	}
	return a.entitlements.ListByUser(ctx, repository.NoTX, userID)
}
