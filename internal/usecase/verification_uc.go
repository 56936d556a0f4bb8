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

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ VerificationUseCase = (*verificationUC)(nil)

// VerifyRequest is the gateway callback payload plus what was bought.
type VerifyRequest struct {
	OrderRef   string
	PaymentRef string
	Signature  string
	Scope      model.PurchaseScope
}

// VerificationUseCase turns a verified gateway callback into entitlements.
type VerificationUseCase interface {
	VerifyAndRecord(ctx context.Context, userID string, req VerifyRequest) (*model.EntitlementOutcome, error)
}

type verificationUC struct {
	entitlements repository.EntitlementRepository
	orders       repository.OrderRepository
	catalog      repository.CatalogRepository
	tm           repository.TransactionManager
	signer       *PaymentSigner
	locker       adapter.Locker // optional
	policy       Policy
	clock        clock.Clock
	log          *zerolog.Logger
}

func NewVerificationUseCase(
	entitlements repository.EntitlementRepository,
	orders repository.OrderRepository,
	catalog repository.CatalogRepository,
	tm repository.TransactionManager,
	signer *PaymentSigner,
	locker adapter.Locker,
	policy Policy,
	clk clock.Clock,
	logger *zerolog.Logger,
) *verificationUC {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &verificationUC{
		entitlements: entitlements,
		orders:       orders,
		catalog:      catalog,
		tm:           tm,
		signer:       signer,
		locker:       locker,
		policy:       policy,
		clock:        clk,
		log:          logger,
	}
}

func (v *verificationUC) VerifyAndRecord(ctx context.Context, userID string, req VerifyRequest) (*model.EntitlementOutcome, error) {
	defer logging.TraceDuration(v.log, "VerificationUC.VerifyAndRecord")()
	ctx = logging.WithOrderRef(ctx, req.OrderRef)
	log := logging.With(ctx, v.log)

	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if err := req.Scope.Validate(); err != nil {
		return nil, err
	}
	order, err := v.orders.FindByRef(ctx, repository.NoTX, req.OrderRef)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log.Warn().Str("user_id", userID).Msg("callback for unknown order")
		return nil, domain.ErrOrderNotFound
	case err != nil:
		return nil, fmt.Errorf("find order: %w", err)
	}
	if !order.Covers(userID, req.Scope) {
		log.Warn().
			Str("user_id", userID).
			Str("scope", string(req.Scope.Kind)).
			Str("course_id", req.Scope.CourseID).
			Str("category", req.Scope.Category.String()).
			Msg("callback does not match its order")
		return nil, domain.ErrOrderMismatch
	}

	if err := v.signer.Verify(req.OrderRef, req.PaymentRef, req.Signature); err != nil {
		log.Warn().Str("user_id", userID).Msg("payment signature mismatch")
		if order.Status == model.EntitlementStatusPending {
			v.settle(ctx, order.Ref, model.EntitlementStatusFailed, "")
		}
		return nil, err
	}
	if order.Status.Terminal() {
		if order.Status == model.EntitlementStatusFailed {
			return nil, domain.ErrSignatureMismatch
		}
		if order.PaymentRef != req.PaymentRef {
			log.Warn().Str("user_id", userID).Msg("completed order replayed with another payment")
			return nil, domain.ErrOrderMismatch
		}
		// a paid order covers its scope for one retention window only
		if !order.SettledAt.IsZero() && !v.clock.Now().Before(order.SettledAt.Add(v.policy.Retention(order.Scope.Kind))) {
			log.Info().Str("user_id", userID).Msg("order already used up")
			return nil, domain.ErrOrderConsumed
		}
	}

	if v.locker != nil {
		key := "verify:" + req.OrderRef
		token, err := v.locker.TryLock(ctx, key, v.policy.VerifyLockTTL)
		switch {
		case errors.Is(err, domain.ErrVerificationInProgress):
			return nil, err
		case err != nil:
			// the store constraint still guards correctness
			log.Warn().Err(err).Msg("verify lock unavailable, continuing without it")
		default:
			defer func() {
				if uerr := v.locker.Unlock(context.WithoutCancel(ctx), key, token); uerr != nil {
					log.Warn().Err(uerr).Msg("verify unlock failed")
				}
			}()
		}
	}

	courses, err := v.resolveCourses(repository.WithConsistentRead(ctx), req.Scope)
	if err != nil {
		return nil, err
	}

	now := v.clock.Now()
	retention := v.policy.Retention(req.Scope.Kind)
	outcome := &model.EntitlementOutcome{Scope: req.Scope}

	// every record carries what the order charged; a bundle repeats the bundle price
	amount := order.WholeAmount()
	for _, c := range courses {
		existing, err := v.entitlements.FindActive(ctx, repository.NoTX, userID, c.ID, c.Category, now)
		if err == nil {
			outcome.AlreadyActive = append(outcome.AlreadyActive, existing)
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("find active entitlement: %w", err)
		}

		rec, err := model.NewCompletedEntitlement(
			uuid.NewString(), userID, c, req.Scope.Kind,
			amount, req.OrderRef, req.PaymentRef, now, retention,
		)
		if err != nil {
			return nil, err
		}

		err = v.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
			return v.entitlements.Create(ctx, tx, rec)
		})
		switch {
		case err == nil:
			outcome.Unlocked = append(outcome.Unlocked, rec)
		case errors.Is(err, domain.ErrDuplicate):
			winner, ferr := v.entitlements.FindActive(ctx, repository.NoTX, userID, c.ID, c.Category, now)
			if ferr == nil {
				outcome.AlreadyActive = append(outcome.AlreadyActive, winner)
				continue
			}
			if !errors.Is(ferr, domain.ErrNotFound) {
				return nil, fmt.Errorf("find active entitlement: %w", ferr)
			}
			// same order reference already consumed by an expired record
			log.Info().Str("course_id", c.ID).Msg("order reference already consumed")
			outcome.Consumed = append(outcome.Consumed, c.ID)
		default:
			return nil, fmt.Errorf("create entitlement: %w", err)
		}
	}

	if order.Status == model.EntitlementStatusPending {
		v.settle(ctx, order.Ref, model.EntitlementStatusCompleted, req.PaymentRef)
	}
	if outcome.Total() == 0 && len(outcome.Consumed) > 0 {
		log.Warn().Str("user_id", userID).Int("consumed", len(outcome.Consumed)).Msg("order already used up")
		return nil, domain.ErrOrderConsumed
	}

	log.Info().
		Str("user_id", userID).
		Str("scope", string(req.Scope.Kind)).
		Str("category", req.Scope.Category.String()).
		Int("unlocked", len(outcome.Unlocked)).
		Int("already_active", len(outcome.AlreadyActive)).
		Int("consumed", len(outcome.Consumed)).
		Str("payment_ref", logging.Redact(req.PaymentRef, false)).
		Msg("payment verified")
	return outcome, nil
}

// settle records the callback result on a pending order. A concurrent
// callback that settled it first wins.
func (v *verificationUC) settle(ctx context.Context, ref string, status model.EntitlementStatus, paymentRef string) {
	err := v.orders.Settle(context.WithoutCancel(ctx), repository.NoTX, ref, status, paymentRef, v.clock.Now())
	if err != nil && !errors.Is(err, domain.ErrOrderSettled) {
		logging.With(ctx, v.log).Warn().Err(err).Str("status", string(status)).Msg("order settle failed")
	}
}

func (v *verificationUC) resolveCourses(ctx context.Context, scope model.PurchaseScope) ([]*model.Course, error) {
	if scope.Kind == model.ScopeSingle {
		c, err := v.catalog.FindCourse(ctx, repository.NoTX, scope.Category, scope.CourseID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrCourseNotFound
			}
			return nil, fmt.Errorf("find course: %w", err)
		}
		return []*model.Course{c}, nil
	}

	courses, err := v.catalog.ListByCategory(ctx, repository.NoTX, scope.Category)
	if err != nil {
		return nil, fmt.Errorf("list category: %w", err)
	}
	if len(courses) == 0 {
		return nil, domain.ErrEmptyCategory
	}
	return courses, nil
}
