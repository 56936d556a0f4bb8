package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-access-platform/internal/domain/model"
	"course-access-platform/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (
  id, provider_id, email, name, is_admin, is_profile_complete, created_at, last_login_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8
) ON CONFLICT (id) DO UPDATE SET
  provider_id=$2, email=$3, name=$4, is_admin=$5, is_profile_complete=$6, last_login_at=$8;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		u.ID, u.ProviderID, u.Email, u.Name, u.IsAdmin, u.IsProfileComplete, u.CreatedAt, u.LastLoginAt)
	return storeErr("user_save", err)
}

const userColumns = `id, provider_id, email, name, is_admin, is_profile_complete, created_at, last_login_at`

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+userColumns+` FROM users WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *PostgresUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+userColumns+` FROM users WHERE email=$1;`, model.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.ProviderID, &u.Email, &u.Name, &u.IsAdmin, &u.IsProfileComplete, &u.CreatedAt, &u.LastLoginAt); err != nil {
		return nil, storeErr("user_find", err)
	}
	return &u, nil
}
