package usecase

import (
	"fmt"
	"sync"
	"time"

	"course-access-platform/internal/clock"
	"course-access-platform/internal/domain/model"
)

// Policy carries the commercial constants the core needs. It is built once
// from configuration and passed to the use cases at construction time.
type Policy struct {
	Currency        string
	DefaultPrice    int64                    // whole units, used when a course has no valid price
	BundlePrices    map[model.Category]int64 // whole units, promotional price per category
	SingleRetention time.Duration
	BundleRetention time.Duration
	VerifyLockTTL   time.Duration
}

// DefaultPolicy mirrors the production defaults: 45 days for a course,
// 150 days for a category bundle.
func DefaultPolicy() Policy {
	return Policy{
		Currency:     "INR",
		DefaultPrice: 499,
		BundlePrices: map[model.Category]int64{
			model.CategoryAspirants:            1999,
			model.CategoryWorkingProfessionals: 1999,
			model.CategorySeniorCitizen:        1999,
		},
		SingleRetention: 45 * 24 * time.Hour,
		BundleRetention: 150 * 24 * time.Hour,
		VerifyLockTTL:   30 * time.Second,
	}
}

// CoursePrice is the catalog price or the default minimum when unset.
func (p Policy) CoursePrice(c *model.Course) int64 {
	if c == nil || c.Price <= 0 {
		return p.DefaultPrice
	}
	return c.Price
}

func (p Policy) BundlePrice(cat model.Category) int64 {
	if v, ok := p.BundlePrices[cat]; ok && v > 0 {
		return v
	}
	return p.DefaultPrice
}

func (p Policy) Retention(kind model.ScopeKind) time.Duration {
	if kind == model.ScopeBundle {
		return p.BundleRetention
	}
	return p.SingleRetention
}

const receiptModulo = 100_000_000 // 8 digits

// ReceiptGenerator builds short receipt ids from a truncated millisecond
// timestamp. Values are strictly increasing within a process so two orders
// in the same millisecond still get distinct receipts.
type ReceiptGenerator struct {
	clock clock.Clock
	mu    sync.Mutex
	last  int64
}

func NewReceiptGenerator(c clock.Clock) *ReceiptGenerator {
	return &ReceiptGenerator{clock: c, last: -1}
}

func (g *ReceiptGenerator) Next(scope model.PurchaseScope) string {
	seq := g.clock.Now().UnixMilli() % receiptModulo

	g.mu.Lock()
	if seq <= g.last {
		seq = (g.last + 1) % receiptModulo
	}
	g.last = seq
	g.mu.Unlock()

	if scope.Kind == model.ScopeBundle {
		return fmt.Sprintf("b_%s_%08d", scope.Category.BundleCode(), seq)
	}
	return fmt.Sprintf("s_%s_%08d", scope.Category.ReceiptCode(), seq)
}
