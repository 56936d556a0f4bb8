package adapter

import (
	"context"

	"course-access-platform/internal/domain/model"
)

// PaymentGateway is the hex port for payment providers.
type PaymentGateway interface {
	Name() string
	// CreateOrder registers an order with the provider and returns its opaque
	// order reference. No local state is written by implementations.
	CreateOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error)
}
