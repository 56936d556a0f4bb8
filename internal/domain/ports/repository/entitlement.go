package repository

import (
	"context"
	"time"

	"course-access-platform/internal/domain/model"
)

// EntitlementRepository is the purchase ledger.
type EntitlementRepository interface {
	// FindActive returns the completed, unexpired record for the triple or
	// domain.ErrNotFound.
	FindActive(ctx context.Context, tx Tx, userID, courseID string, category model.Category, now time.Time) (*model.Entitlement, error)

	// Create persists a new record. For completed records it must refuse to
	// write a second active record for the same (user, course, category)
	// and return domain.ErrDuplicate instead, also under concurrent callers.
	Create(ctx context.Context, tx Tx, e *model.Entitlement) error

	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Entitlement, error)

	// CountActiveByCategory is read by the stats job.
	CountActiveByCategory(ctx context.Context, tx Tx, now time.Time) (map[model.Category]int, error)
}
