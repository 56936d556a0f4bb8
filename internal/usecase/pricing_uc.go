package usecase

import (
	"context"
	"errors"
	"fmt"

	"course-access-platform/internal/clock"
	"course-access-platform/internal/domain"
	"course-access-platform/internal/domain/model"
	"course-access-platform/internal/domain/ports/adapter"
	"course-access-platform/internal/domain/ports/repository"
	"course-access-platform/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ PricingUseCase = (*pricingUC)(nil)

// PricingUseCase resolves what a purchase costs and opens gateway orders.
type PricingUseCase interface {
	// PriceFor returns the amount in minor units and the prepared gateway
	// request for a scope. It writes nothing.
	PriceFor(ctx context.Context, scope model.PurchaseScope) (*model.Quote, error)
	// CreateOrder prices the scope, registers the order with the gateway and
	// stores it as pending for userID.
	CreateOrder(ctx context.Context, userID string, scope model.PurchaseScope) (*model.Order, error)
}

type pricingUC struct {
	catalog  repository.CatalogRepository
	orders   repository.OrderRepository
	gateway  adapter.PaymentGateway
	policy   Policy
	receipts *ReceiptGenerator
	clock    clock.Clock
	log      *zerolog.Logger
}

func NewPricingUseCase(
	catalog repository.CatalogRepository,
	orders repository.OrderRepository,
	gateway adapter.PaymentGateway,
	policy Policy,
	clk clock.Clock,
	logger *zerolog.Logger,
) *pricingUC {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &pricingUC{
		catalog:  catalog,
		orders:   orders,
		gateway:  gateway,
		policy:   policy,
		receipts: NewReceiptGenerator(clk),
		clock:    clk,
		log:      logger,
	}
}

func (p *pricingUC) PriceFor(ctx context.Context, scope model.PurchaseScope) (*model.Quote, error) {
	defer logging.TraceDuration(p.log, "PricingUC.PriceFor")()

	if err := scope.Validate(); err != nil {
		return nil, err
	}
	amount, err := p.wholeAmount(ctx, scope)
	if err != nil {
		return nil, err
	}
	minor := amount * 100
	receipt := p.receipts.Next(scope)
	if len(receipt) > model.MaxReceiptLength {
		receipt = receipt[:model.MaxReceiptLength]
	}
	return &model.Quote{
		Scope:       scope,
		AmountMinor: minor,
		Order: model.OrderRequest{
			Amount:   minor,
			Currency: p.policy.Currency,
			Receipt:  receipt,
		},
	}, nil
}

// wholeAmount is the price in whole currency units. The verification engine
// records the same figure on each entitlement.
func (p *pricingUC) wholeAmount(ctx context.Context, scope model.PurchaseScope) (int64, error) {
	if scope.Kind == model.ScopeBundle {
		return p.policy.BundlePrice(scope.Category), nil
	}
	course, err := p.catalog.FindCourse(ctx, repository.NoTX, scope.Category, scope.CourseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrCourseNotFound
		}
		return 0, fmt.Errorf("find course: %w", err)
	}
	return p.policy.CoursePrice(course), nil
}

func (p *pricingUC) CreateOrder(ctx context.Context, userID string, scope model.PurchaseScope) (*model.Order, error) {
	defer logging.TraceDuration(p.log, "PricingUC.CreateOrder")()
	log := logging.With(ctx, p.log)

	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	quote, err := p.PriceFor(ctx, scope)
	if err != nil {
		return nil, err
	}

	order, err := p.gateway.CreateOrder(ctx, quote.Order)
	if err != nil {
		log.Warn().Err(err).
			Str("provider", p.gateway.Name()).
			Str("receipt", quote.Order.Receipt).
			Msg("gateway order creation failed")
		if errors.Is(err, domain.ErrGatewayUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	order.Scope = scope
	if order.Provider == "" {
		order.Provider = p.gateway.Name()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = p.clock.Now()
	}

	pending, err := model.NewPendingOrder(order, userID, quote.AmountMinor)
	if err != nil {
		return nil, fmt.Errorf("%w: unusable gateway order: %v", domain.ErrGatewayUnavailable, err)
	}
	if err := p.orders.CreatePending(ctx, repository.NoTX, pending); err != nil {
		log.Error().Err(err).Str("order_ref", order.ID).Msg("pending order not stored")
		return nil, fmt.Errorf("store order: %w", err)
	}

	log.Info().
		Str("order_ref", order.ID).
		Str("user_id", userID).
		Str("scope", string(scope.Kind)).
		Str("category", scope.Category.String()).
		Int64("amount_minor", order.Amount).
		Msg("order created")
	return order, nil
}
