package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via `tx`.
//
// Repositories accept `tx Tx` and detect a live transaction on the
// implementation side (e.g. pgx.Tx) to take row or advisory locks.
// The concrete type of `tx` is infra-defined. Repositories MUST gracefully
// accept a nil tx (non-transactional path).
//
// USAGE
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
//		existing, err := entitlements.FindActive(ctx, tx, userID, courseID, category, now)
//		...
//		return entitlements.Create(ctx, tx, rec)
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
