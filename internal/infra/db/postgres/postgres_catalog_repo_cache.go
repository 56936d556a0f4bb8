package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"course-access-platform/internal/domain/model"
	"course-access-platform/internal/domain/ports/repository"
	"course-access-platform/internal/infra/metrics"
	red "course-access-platform/internal/infra/redis"

	"github.com/rs/zerolog"
)

// CatalogStore is the catalog read side plus the seed writer.
type CatalogStore interface {
	repository.CatalogRepository
	repository.CatalogWriter
}

var _ CatalogStore = (*catalogRepoCacheDecorator)(nil)

type catalogRepoCacheDecorator struct {
	inner CatalogStore
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewCatalogRepoCacheDecorator(inner CatalogStore, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) CatalogStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &catalogRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   logger,
	}
}

func courseKey(category model.Category, id string) string {
	return fmt.Sprintf("course:%s:%s", category, id)
}

func categoryKey(category model.Category) string {
	return fmt.Sprintf("courses:%s", category)
}

func (d *catalogRepoCacheDecorator) FindCourse(ctx context.Context, tx repository.Tx, category model.Category, id string) (*model.Course, error) {
	if repository.ConsistentRead(ctx) {
		metrics.IncCacheRequest("course", "bypass")
		return d.inner.FindCourse(ctx, tx, category, id)
	}
	key := courseKey(category, id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var c model.Course
		if json.Unmarshal([]byte(val), &c) == nil {
			metrics.IncCacheRequest("course", "hit")
			return &c, nil
		}
	} else if !errors.Is(err, red.Nil) {
		d.log.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	}

	metrics.IncCacheRequest("course", "miss")
	c, err := d.inner.FindCourse(ctx, tx, category, id)
	if err != nil {
		return nil, err
	}
	if b, merr := json.Marshal(c); merr == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return c, nil
}

// ListByCategory caches non-empty snapshots only, so a freshly seeded
// category is visible on the next read. Consistent reads always hit the store.
func (d *catalogRepoCacheDecorator) ListByCategory(ctx context.Context, tx repository.Tx, category model.Category) ([]*model.Course, error) {
	if repository.ConsistentRead(ctx) {
		metrics.IncCacheRequest("course_list", "bypass")
		return d.inner.ListByCategory(ctx, tx, category)
	}
	key := categoryKey(category)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var courses []*model.Course
		if json.Unmarshal([]byte(val), &courses) == nil {
			metrics.IncCacheRequest("course_list", "hit")
			return courses, nil
		}
	} else if !errors.Is(err, red.Nil) {
		d.log.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	}

	metrics.IncCacheRequest("course_list", "miss")
	courses, err := d.inner.ListByCategory(ctx, tx, category)
	if err != nil {
		return nil, err
	}
	if len(courses) > 0 {
		if b, merr := json.Marshal(courses); merr == nil {
			_ = d.cache.Set(ctx, key, b, d.ttl)
		}
	}
	return courses, nil
}

// SaveCourse writes through and invalidates both the course and its category list.
func (d *catalogRepoCacheDecorator) SaveCourse(ctx context.Context, tx repository.Tx, c *model.Course) error {
	if err := d.inner.SaveCourse(ctx, tx, c); err != nil {
		return err
	}
	if err := d.cache.Del(ctx, courseKey(c.Category, c.ID), categoryKey(c.Category)); err != nil {
		d.log.Warn().Err(err).Str("course_id", c.ID).Msg("catalog cache invalidation failed")
	}
	return nil
}
