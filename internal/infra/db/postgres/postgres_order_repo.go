package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-access-platform/internal/domain"
	"course-access-platform/internal/domain/model"
	"course-access-platform/internal/domain/ports/repository"
)

var _ repository.OrderRepository = (*orderRepo)(nil)

type orderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) *orderRepo {
	return &orderRepo{pool: pool}
}

const orderColumns = `order_ref, user_id, scope, course_id, category, amount_minor, currency, receipt,
       provider, status, payment_ref, created_at, settled_at`

func (r *orderRepo) CreatePending(ctx context.Context, tx repository.Tx, o *model.PurchaseOrder) error {
	if o == nil || o.Ref == "" || o.Status != model.EntitlementStatusPending {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO purchase_orders (
  order_ref, user_id, scope, course_id, category, amount_minor, currency, receipt, provider, status, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,'pending',$10
);`
	_, err := execSQL(ctx, r.pool, tx, q,
		o.Ref, o.UserID, string(o.Scope.Kind), o.Scope.CourseID, string(o.Scope.Category),
		o.AmountMinor, o.Currency, o.Receipt, o.Provider, o.CreatedAt)
	return storeErr("order_create", err)
}

func (r *orderRepo) FindByRef(ctx context.Context, tx repository.Tx, ref string) (*model.PurchaseOrder, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+orderColumns+` FROM purchase_orders WHERE order_ref=$1;`, ref)
	if err != nil {
		return nil, err
	}
	return scanOrder(row)
}

func (r *orderRepo) Settle(ctx context.Context, tx repository.Tx, ref string, status model.EntitlementStatus, paymentRef string, at time.Time) error {
	if !status.Terminal() {
		return domain.ErrInvalidArgument
	}
	const q = `
UPDATE purchase_orders
   SET status=$2, payment_ref=$3, settled_at=$4
 WHERE order_ref=$1 AND status='pending';`
	tag, err := execSQL(ctx, r.pool, tx, q, ref, string(status), paymentRef, at)
	if err != nil {
		return storeErr("order_settle", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if _, err := r.FindByRef(ctx, tx, ref); err != nil {
		return err
	}
	return domain.ErrOrderSettled
}

func scanOrder(row pgx.Row) (*model.PurchaseOrder, error) {
	var (
		o                      model.PurchaseOrder
		kind, category, status string
		settledAt              *time.Time
	)
	if err := row.Scan(
		&o.Ref, &o.UserID, &kind, &o.Scope.CourseID, &category, &o.AmountMinor, &o.Currency, &o.Receipt,
		&o.Provider, &status, &o.PaymentRef, &o.CreatedAt, &settledAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("order_find", err)
	}
	o.Scope.Kind = model.ScopeKind(kind)
	o.Scope.Category = model.Category(category)
	o.Status = model.EntitlementStatus(status)
	if settledAt != nil {
		o.SettledAt = *settledAt
	}
	return &o, nil
}
