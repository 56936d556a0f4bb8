package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-access-platform/internal/domain"
	"course-access-platform/internal/domain/model"
	"course-access-platform/internal/domain/ports/repository"
)

var _ repository.EntitlementRepository = (*entitlementRepo)(nil)

type entitlementRepo struct {
	pool *pgxpool.Pool
}

func NewEntitlementRepo(pool *pgxpool.Pool) *entitlementRepo {
	return &entitlementRepo{pool: pool}
}

const entitlementColumns = `id, user_id, course_id, category, scope, purchased_at, expires_at, amount,
       gateway_order_ref, gateway_payment_ref, status, created_at`

func (r *entitlementRepo) FindActive(ctx context.Context, tx repository.Tx, userID, courseID string, category model.Category, now time.Time) (*model.Entitlement, error) {
	const q = `
SELECT ` + entitlementColumns + `
  FROM entitlements
 WHERE user_id=$1 AND course_id=$2 AND category=$3
   AND status='completed' AND expires_at > $4
 ORDER BY expires_at DESC
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, courseID, string(category), now)
	if err != nil {
		return nil, err
	}
	e, err := scanEntitlement(row)
	if err != nil {
		return nil, storeErr("entitlement_find_active", err)
	}
	return e, nil
}

// Create serializes writers of one (user, course, category) with a
// transaction-scoped advisory lock, then inserts only when no active
// completed record exists. Losing writers get domain.ErrDuplicate.
func (r *entitlementRepo) Create(ctx context.Context, tx repository.Tx, e *model.Entitlement) error {
	if err := e.Validate(); err != nil {
		return err
	}
	switch tx.(type) {
	case pgx.Tx:
	case nil, *pgxpool.Pool:
		return r.createInOwnTx(ctx, e)
	default:
		return domain.ErrInvalidExecContext
	}

	const lockQ = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0));`
	if _, err := execSQL(ctx, r.pool, tx, lockQ, e.Key()); err != nil {
		return storeErr("entitlement_lock", err)
	}

	const q = `
INSERT INTO entitlements (` + entitlementColumns + `)
SELECT $1::text, $2::text, $3::text, $4::text, $5::text, $6::timestamptz, $7::timestamptz,
       $8::bigint, $9::text, $10::text, $11::text, $12::timestamptz
 WHERE $11::text <> 'completed' OR NOT EXISTS (
       SELECT 1 FROM entitlements
        WHERE user_id=$2 AND course_id=$3 AND category=$4
          AND status='completed' AND expires_at > $6::timestamptz)
ON CONFLICT (user_id, course_id, category, gateway_order_ref) DO NOTHING;`

	tag, err := execSQL(ctx, r.pool, tx, q,
		e.ID, e.UserID, e.CourseID, string(e.Category), string(e.Scope),
		e.PurchasedAt, e.ExpiresAt, e.Amount,
		e.GatewayOrderRef, e.GatewayPaymentRef, string(e.Status), e.CreatedAt,
	)
	if err != nil {
		return storeErr("entitlement_create", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicate
	}
	return nil
}

func (r *entitlementRepo) createInOwnTx(ctx context.Context, e *model.Entitlement) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return storeErr("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.Create(ctx, tx, e); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit", err)
	}
	return nil
}

func (r *entitlementRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Entitlement, error) {
	const q = `
SELECT ` + entitlementColumns + `
  FROM entitlements
 WHERE user_id=$1
 ORDER BY purchased_at DESC, course_id;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, storeErr("entitlement_list", err)
	}
	defer rows.Close()

	var out []*model.Entitlement
	for rows.Next() {
		e, err := scanEntitlement(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("entitlement_list", err)
	}
	return out, nil
}

func (r *entitlementRepo) CountActiveByCategory(ctx context.Context, tx repository.Tx, now time.Time) (map[model.Category]int, error) {
	const q = `
SELECT category, COUNT(*)
  FROM entitlements
 WHERE status='completed' AND expires_at > $1
 GROUP BY category;`
	rows, err := queryRows(ctx, r.pool, tx, q, now)
	if err != nil {
		return nil, storeErr("entitlement_count", err)
	}
	defer rows.Close()

	out := make(map[model.Category]int)
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out[model.Category(cat)] = n
	}
	return out, storeErr("entitlement_count", rows.Err())
}

func scanEntitlement(row pgx.Row) (*model.Entitlement, error) {
	var (
		e                     model.Entitlement
		category, scope, stat string
	)
	if err := row.Scan(
		&e.ID, &e.UserID, &e.CourseID, &category, &scope,
		&e.PurchasedAt, &e.ExpiresAt, &e.Amount,
		&e.GatewayOrderRef, &e.GatewayPaymentRef, &stat, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	e.Category = model.Category(category)
	e.Scope = model.ScopeKind(scope)
	e.Status = model.EntitlementStatus(stat)
	return &e, nil
}
