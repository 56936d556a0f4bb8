package repository

import (
	"context"

	"course-access-platform/internal/domain/model"
)

// CatalogRepository is the read-only view of the course catalog.
type CatalogRepository interface {
	// FindCourse returns domain.ErrNotFound when the id does not exist in
	// that category.
	FindCourse(ctx context.Context, tx Tx, category model.Category, id string) (*model.Course, error)
	// ListByCategory returns the current snapshot of a category; an empty
	// slice (not an error) when it has no courses.
	ListByCategory(ctx context.Context, tx Tx, category model.Category) ([]*model.Course, error)
}

// CatalogWriter is used by the seed command only.
type CatalogWriter interface {
	SaveCourse(ctx context.Context, tx Tx, c *model.Course) error
}

type consistentReadKey struct{}

// WithConsistentRead marks ctx so that catalog reads go to the store and
// skip any cache in front of it.
func WithConsistentRead(ctx context.Context) context.Context {
	return context.WithValue(ctx, consistentReadKey{}, true)
}

// ConsistentRead reports whether ctx was marked by WithConsistentRead.
func ConsistentRead(ctx context.Context) bool {
	v, _ := ctx.Value(consistentReadKey{}).(bool)
	return v
}
