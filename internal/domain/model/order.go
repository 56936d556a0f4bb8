package model

import (
	"time"

	"course-access-platform/internal/domain"
)

// MaxReceiptLength is the gateway's hard ceiling for receipt identifiers.
const MaxReceiptLength = 40

// OrderRequest is what we send to the payment gateway. Amount is in minor
// units (paise for INR).
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
}

// Quote is the resolved price for a scope plus the prepared gateway request.
type Quote struct {
	Scope       PurchaseScope
	AmountMinor int64
	Order       OrderRequest
}

// Order is the gateway's answer to an OrderRequest.
type Order struct {
	ID        string // opaque gateway order reference
	Amount    int64
	Currency  string
	Receipt   string
	Status    string
	Provider  string
	Scope     PurchaseScope
	CreatedAt time.Time
}

// PurchaseOrder is our own record of an order opened with the gateway. It
// pins the buyer, the scope and the charged amount so that a signed
// callback can only unlock what was paid for.
type PurchaseOrder struct {
	Ref         string
	UserID      string
	Scope       PurchaseScope
	AmountMinor int64
	Currency    string
	Receipt     string
	Provider    string
	Status      EntitlementStatus // pending until the callback settles it
	PaymentRef  string            // set once completed
	CreatedAt   time.Time
	SettledAt   time.Time
}

// NewPendingOrder records a gateway order for userID. amountMinor is the
// quoted price, not whatever the gateway echoed back.
func NewPendingOrder(o *Order, userID string, amountMinor int64) (*PurchaseOrder, error) {
	if o == nil || o.ID == "" || userID == "" || amountMinor < 100 {
		return nil, domain.ErrInvalidArgument
	}
	if err := o.Scope.Validate(); err != nil {
		return nil, err
	}
	return &PurchaseOrder{
		Ref:         o.ID,
		UserID:      userID,
		Scope:       o.Scope,
		AmountMinor: amountMinor,
		Currency:    o.Currency,
		Receipt:     o.Receipt,
		Provider:    o.Provider,
		Status:      EntitlementStatusPending,
		CreatedAt:   o.CreatedAt,
	}, nil
}

// Covers reports whether a callback from userID for scope belongs to this order.
func (o *PurchaseOrder) Covers(userID string, scope PurchaseScope) bool {
	return o != nil && o.UserID == userID && o.Scope == scope
}

// WholeAmount is the charged price in whole currency units.
func (o *PurchaseOrder) WholeAmount() int64 {
	return o.AmountMinor / 100
}
