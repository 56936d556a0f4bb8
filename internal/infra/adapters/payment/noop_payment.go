package payment

import (
	"context"
	"sync"
	"time"

	"course-access-platform/internal/domain"
	"course-access-platform/internal/domain/model"
	"course-access-platform/internal/domain/ports/adapter"

	"github.com/google/uuid"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is an in-memory gateway for dev mode and tests.
type NoopPaymentGateway struct {
	mu     sync.Mutex
	orders map[string]model.OrderRequest
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{orders: make(map[string]model.OrderRequest)}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) CreateOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error) {
	if req.Amount <= 0 || req.Receipt == "" {
		return nil, domain.ErrInvalidArgument
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	id := "order_" + uuid.NewString()
	g.orders[id] = req
	return &model.Order{
		ID:        id,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Receipt:   req.Receipt,
		Status:    "created",
		Provider:  g.Name(),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Lookup returns the request an order was created from.
func (g *NoopPaymentGateway) Lookup(orderID string) (model.OrderRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.orders[orderID]
	return r, ok
}
