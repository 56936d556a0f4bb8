package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-access-platform/internal/domain"
	"course-access-platform/internal/domain/model"
	"course-access-platform/internal/domain/ports/repository"
)

var (
	_ repository.CatalogRepository = (*catalogRepo)(nil)
	_ repository.CatalogWriter     = (*catalogRepo)(nil)
)

type catalogRepo struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) *catalogRepo {
	return &catalogRepo{pool: pool}
}

func (r *catalogRepo) FindCourse(ctx context.Context, tx repository.Tx, category model.Category, id string) (*model.Course, error) {
	if !category.Valid() {
		return nil, domain.ErrInvalidCategory
	}
	const q = `
SELECT id, category, name, description, price, created_at
  FROM courses
 WHERE category=$1 AND id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, string(category), id)
	if err != nil {
		return nil, err
	}
	c, err := scanCourse(row)
	if err != nil {
		return nil, storeErr("course_find", err)
	}
	return c, nil
}

func (r *catalogRepo) ListByCategory(ctx context.Context, tx repository.Tx, category model.Category) ([]*model.Course, error) {
	if !category.Valid() {
		return nil, domain.ErrInvalidCategory
	}
	const q = `
SELECT id, category, name, description, price, created_at
  FROM courses
 WHERE category=$1
 ORDER BY created_at, id;`
	rows, err := queryRows(ctx, r.pool, tx, q, string(category))
	if err != nil {
		return nil, storeErr("course_list", err)
	}
	defer rows.Close()

	out := make([]*model.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, c)
	}
	return out, storeErr("course_list", rows.Err())
}

func (r *catalogRepo) SaveCourse(ctx context.Context, tx repository.Tx, c *model.Course) error {
	const q = `
INSERT INTO courses (id, category, name, description, price, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (category, id) DO UPDATE SET
  name=$3, description=$4, price=$5;`
	_, err := execSQL(ctx, r.pool, tx, q, c.ID, string(c.Category), c.Name, c.Description, c.Price, c.CreatedAt)
	return storeErr("course_save", err)
}

func scanCourse(row pgx.Row) (*model.Course, error) {
	var c model.Course
	var cat string
	if err := row.Scan(&c.ID, &cat, &c.Name, &c.Description, &c.Price, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Category = model.Category(cat)
	return &c, nil
}
