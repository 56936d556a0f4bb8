//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"course-access-platform/internal/domain"
	"course-access-platform/internal/domain/model"
	"course-access-platform/internal/domain/ports/repository"
)

func newRecord(t *testing.T, user string, c *model.Course, order string, at time.Time) *model.Entitlement {
	t.Helper()
	e, err := model.NewCompletedEntitlement(uuid.NewString(), user, c, model.ScopeSingle, 499, order, "pay_"+order, at, 45*24*time.Hour)
	if err != nil {
		t.Fatalf("NewCompletedEntitlement: %v", err)
	}
	return e
}

func TestEntitlementRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	repo := NewEntitlementRepo(testPool)
	catalog := NewCatalogRepo(testPool)
	tm := NewTxManager(testPool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("create and find active", func(t *testing.T) {
		cleanup(t)
		c := seedCourse(t, catalog, "c1", model.CategoryAspirants, 499)
		rec := newRecord(t, "u1", c, "order_1", now)

		if err := repo.Create(ctx, nil, rec); err != nil {
			t.Fatalf("Create: %v", err)
		}
		got, err := repo.FindActive(ctx, nil, "u1", "c1", model.CategoryAspirants, now)
		if err != nil {
			t.Fatalf("FindActive: %v", err)
		}
		if got.ID != rec.ID || got.Amount != 499 || got.Status != model.EntitlementStatusCompleted {
			t.Errorf("unexpected record %+v", got)
		}
		if _, err := repo.FindActive(ctx, nil, "u1", "c1", model.CategoryAspirants, now.Add(46*24*time.Hour)); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected expiry after 45 days, got %v", err)
		}
	})

	t.Run("second active record is refused", func(t *testing.T) {
		cleanup(t)
		c := seedCourse(t, catalog, "c1", model.CategoryAspirants, 499)
		if err := repo.Create(ctx, nil, newRecord(t, "u1", c, "order_1", now)); err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(ctx, nil, newRecord(t, "u1", c, "order_2", now)); !errors.Is(err, domain.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for other order, got %v", err)
		}
		if err := repo.Create(ctx, nil, newRecord(t, "u1", c, "order_1", now.Add(50*24*time.Hour))); !errors.Is(err, domain.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for replayed order, got %v", err)
		}
		if err := repo.Create(ctx, nil, newRecord(t, "u1", c, "order_3", now.Add(50*24*time.Hour))); err != nil {
			t.Fatalf("repurchase after expiry should succeed: %v", err)
		}
		list, err := repo.ListByUser(ctx, nil, "u1")
		if err != nil || len(list) != 2 {
			t.Fatalf("expected 2 records, got %d %v", len(list), err)
		}
	})

	t.Run("concurrent creates inside transactions yield one record", func(t *testing.T) {
		cleanup(t)
		c := seedCourse(t, catalog, "c1", model.CategoryAspirants, 499)

		var wg sync.WaitGroup
		var mu sync.Mutex
		created, dups := 0, 0
		for i := 0; i < 10; i++ {
			rec := newRecord(t, "u1", c, fmt.Sprintf("order_%d", i), now)
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
					return repo.Create(ctx, tx, rec)
				})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					created++
				case errors.Is(err, domain.ErrDuplicate):
					dups++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()
		if created != 1 || dups != 9 {
			t.Fatalf("expected 1 created and 9 duplicates, got %d/%d", created, dups)
		}
	})

	t.Run("count active by category", func(t *testing.T) {
		cleanup(t)
		a := seedCourse(t, catalog, "a1", model.CategoryAspirants, 499)
		s := seedCourse(t, catalog, "s1", model.CategorySeniorCitizen, 499)
		_ = repo.Create(ctx, nil, newRecord(t, "u1", a, "o1", now))
		_ = repo.Create(ctx, nil, newRecord(t, "u2", a, "o2", now))
		_ = repo.Create(ctx, nil, newRecord(t, "u1", s, "o3", now.Add(-60*24*time.Hour)))

		counts, err := repo.CountActiveByCategory(ctx, nil, now)
		if err != nil {
			t.Fatal(err)
		}
		if counts[model.CategoryAspirants] != 2 || counts[model.CategorySeniorCitizen] != 0 {
			t.Errorf("unexpected counts %v", counts)
		}
	})
}
