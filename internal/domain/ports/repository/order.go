package repository

import (
	"context"
	"time"

	"course-access-platform/internal/domain/model"
)

// OrderRepository keeps the orders opened with the payment gateway.
type OrderRepository interface {
	// CreatePending stores a new pending order. An existing ref yields
	// domain.ErrDuplicate.
	CreatePending(ctx context.Context, tx Tx, o *model.PurchaseOrder) error

	// FindByRef returns domain.ErrNotFound for unknown refs.
	FindByRef(ctx context.Context, tx Tx, ref string) (*model.PurchaseOrder, error)

	// Settle moves a pending order to completed or failed. Orders that are
	// already settled are left untouched and domain.ErrOrderSettled is returned.
	Settle(ctx context.Context, tx Tx, ref string, status model.EntitlementStatus, paymentRef string, at time.Time) error
}
