package model

import (
	"time"

	"course-access-platform/internal/domain"
)

// EntitlementStatus is the lifecycle of a purchase order and of the
// records written for it.
type EntitlementStatus string

const (
	EntitlementStatusPending   EntitlementStatus = "pending"   // order placed, callback not verified yet
	EntitlementStatusCompleted EntitlementStatus = "completed" // signature verified, access granted until ExpiresAt
	EntitlementStatusFailed    EntitlementStatus = "failed"    // verification failed
)

// Terminal reports whether no further transition is allowed. A pending order
// settles exactly once, to completed or failed.
func (s EntitlementStatus) Terminal() bool {
	return s == EntitlementStatusCompleted || s == EntitlementStatusFailed
}

// Entitlement is one ledger entry: the right of a user to a course of a
// category until ExpiresAt. Records are never deleted; access is derived
// from Status and ExpiresAt.
type Entitlement struct {
	ID                string
	UserID            string
	CourseID          string
	Category          Category
	Scope             ScopeKind
	PurchasedAt       time.Time
	ExpiresAt         time.Time
	Amount            int64 // whole currency units, >= 1
	GatewayOrderRef   string
	GatewayPaymentRef string
	Status            EntitlementStatus
	CreatedAt         time.Time
}

// ActiveAt is true when the record is completed and has not expired at now.
func (e *Entitlement) ActiveAt(now time.Time) bool {
	return e != nil && e.Status == EntitlementStatusCompleted && e.ExpiresAt.After(now)
}

// Key identifies the priced unit the uniqueness invariant is keyed on.
func (e *Entitlement) Key() string {
	return EntitlementKey(e.UserID, e.CourseID, e.Category)
}

func EntitlementKey(userID, courseID string, category Category) string {
	return userID + "|" + courseID + "|" + string(category)
}

// NewCompletedEntitlement builds a completed record for a verified payment.
func NewCompletedEntitlement(
	id, userID string, course *Course, scope ScopeKind,
	amount int64, orderRef, paymentRef string,
	purchasedAt time.Time, retention time.Duration,
) (*Entitlement, error) {
	if id == "" || userID == "" || course.IsZero() || !course.Category.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	if amount < 1 || orderRef == "" || paymentRef == "" || retention <= 0 || purchasedAt.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	return &Entitlement{
		ID:                id,
		UserID:            userID,
		CourseID:          course.ID,
		Category:          course.Category,
		Scope:             scope,
		PurchasedAt:       purchasedAt,
		ExpiresAt:         purchasedAt.Add(retention),
		Amount:            amount,
		GatewayOrderRef:   orderRef,
		GatewayPaymentRef: paymentRef,
		Status:            EntitlementStatusCompleted,
		CreatedAt:         purchasedAt,
	}, nil
}

// Validate checks the fields a store must refuse to persist without.
func (e *Entitlement) Validate() error {
	if e == nil || e.ID == "" || e.UserID == "" || e.CourseID == "" || !e.Category.Valid() {
		return domain.ErrInvalidArgument
	}
	if e.Amount < 1 || e.ExpiresAt.IsZero() {
		return domain.ErrInvalidArgument
	}
	switch e.Status {
	case EntitlementStatusPending, EntitlementStatusFailed:
	case EntitlementStatusCompleted:
		if e.GatewayOrderRef == "" || e.GatewayPaymentRef == "" {
			return domain.ErrInvalidArgument
		}
	default:
		return domain.ErrInvalidArgument
	}
	return nil
}

// EntitlementOutcome is what a verification reports back to the caller.
type EntitlementOutcome struct {
	Scope         PurchaseScope
	Unlocked      []*Entitlement // created by this call
	AlreadyActive []*Entitlement // existed before this call
	Consumed      []string       // course ids whose record for this order has expired
}

// Total is the number of courses the user now has access to from this call.
func (o *EntitlementOutcome) Total() int {
	if o == nil {
		return 0
	}
	return len(o.Unlocked) + len(o.AlreadyActive)
}
