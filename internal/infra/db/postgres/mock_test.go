//go:build !integration

package postgres

import (
	"context"
	"time"

	"course-access-platform/internal/domain/model"
	"course-access-platform/internal/domain/ports/repository"
	red "course-access-platform/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerCatalogRepo mocks the database repository that the catalog decorator wraps.
type mockInnerCatalogRepo struct {
	FindCourseFunc     func(ctx context.Context, tx repository.Tx, category model.Category, id string) (*model.Course, error)
	ListByCategoryFunc func(ctx context.Context, tx repository.Tx, category model.Category) ([]*model.Course, error)
	SaveCourseFunc     func(ctx context.Context, tx repository.Tx, c *model.Course) error
}

func (m *mockInnerCatalogRepo) FindCourse(ctx context.Context, tx repository.Tx, category model.Category, id string) (*model.Course, error) {
	return m.FindCourseFunc(ctx, tx, category, id)
}
func (m *mockInnerCatalogRepo) ListByCategory(ctx context.Context, tx repository.Tx, category model.Category) ([]*model.Course, error) {
	return m.ListByCategoryFunc(ctx, tx, category)
}
func (m *mockInnerCatalogRepo) SaveCourse(ctx context.Context, tx repository.Tx, c *model.Course) error {
	return m.SaveCourseFunc(ctx, tx, c)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", red.Nil
	}
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
