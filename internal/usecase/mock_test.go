//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-access-platform/internal/domain"
	"course-access-platform/internal/domain/model"
	"course-access-platform/internal/domain/ports/adapter"
	"course-access-platform/internal/domain/ports/repository"
)

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockPaymentGateway struct {
	NameVal string

	CreateOrderFunc func(ctx context.Context, req model.OrderRequest) (*model.Order, error)

	mu       sync.Mutex
	Requests []model.OrderRequest
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string {
	if m.NameVal == "" {
		return "mockpay"
	}
	return m.NameVal
}

func (m *MockPaymentGateway) CreateOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, req)
	}
	return &model.Order{
		ID:       "order_" + uuid.NewString()[:14],
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

// ---- In-memory Locker ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

var _ adapter.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, bad := l.ErrOn[key]; bad {
		return "", err
	}
	if tok, ok := l.held[key]; ok && tok != "" {
		return "", domain.ErrVerificationInProgress
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		return nil
	}
	return errors.New("unlock token mismatch")
}

func (l *MockLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

// =============================
// Repositories
// =============================

// ---- Mock CatalogRepository ----

type MockCatalogRepo struct {
	mu      sync.Mutex
	courses map[model.Category][]*model.Course

	FindCourseFunc     func(ctx context.Context, tx repository.Tx, category model.Category, id string) (*model.Course, error)
	ListByCategoryFunc func(ctx context.Context, tx repository.Tx, category model.Category) ([]*model.Course, error)
}

var _ repository.CatalogRepository = (*MockCatalogRepo)(nil)

func NewMockCatalogRepo(courses ...*model.Course) *MockCatalogRepo {
	r := &MockCatalogRepo{courses: map[model.Category][]*model.Course{}}
	for _, c := range courses {
		r.Add(c)
	}
	return r
}

func (r *MockCatalogRepo) Add(c *model.Course) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses[c.Category] = append(r.courses[c.Category], c)
}

func (r *MockCatalogRepo) FindCourse(ctx context.Context, tx repository.Tx, category model.Category, id string) (*model.Course, error) {
	if r.FindCourseFunc != nil {
		return r.FindCourseFunc(ctx, tx, category, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.courses[category] {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockCatalogRepo) ListByCategory(ctx context.Context, tx repository.Tx, category model.Category) ([]*model.Course, error) {
	if r.ListByCategoryFunc != nil {
		return r.ListByCategoryFunc(ctx, tx, category)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Course, 0, len(r.courses[category]))
	for _, c := range r.courses[category] {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// ---- Mock EntitlementRepository ----

// MockEntitlementRepo keeps the ledger in memory and enforces the same
// active-uniqueness rule as the Postgres store.
type MockEntitlementRepo struct {
	mu   sync.Mutex
	rows []*model.Entitlement

	CreateFunc     func(ctx context.Context, tx repository.Tx, e *model.Entitlement) error
	FindActiveFunc func(ctx context.Context, tx repository.Tx, userID, courseID string, category model.Category, now time.Time) (*model.Entitlement, error)

	CreateCalls int
}

var _ repository.EntitlementRepository = (*MockEntitlementRepo)(nil)

func NewMockEntitlementRepo() *MockEntitlementRepo {
	return &MockEntitlementRepo{}
}

func (r *MockEntitlementRepo) FindActive(ctx context.Context, tx repository.Tx, userID, courseID string, category model.Category, now time.Time) (*model.Entitlement, error) {
	if r.FindActiveFunc != nil {
		return r.FindActiveFunc(ctx, tx, userID, courseID, category, now)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findActiveLocked(userID, courseID, category, now)
}

func (r *MockEntitlementRepo) findActiveLocked(userID, courseID string, category model.Category, now time.Time) (*model.Entitlement, error) {
	for _, e := range r.rows {
		if e.UserID == userID && e.CourseID == courseID && e.Category == category && e.ActiveAt(now) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockEntitlementRepo) Create(ctx context.Context, tx repository.Tx, e *model.Entitlement) error {
	r.mu.Lock()
	r.CreateCalls++
	r.mu.Unlock()
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, e)
	}
	if err := e.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.rows {
		if x.Key() == e.Key() && x.GatewayOrderRef == e.GatewayOrderRef {
			return domain.ErrDuplicate
		}
	}
	if e.Status == model.EntitlementStatusCompleted {
		if _, err := r.findActiveLocked(e.UserID, e.CourseID, e.Category, e.PurchasedAt); err == nil {
			return domain.ErrDuplicate
		}
	}
	cp := *e
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *MockEntitlementRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Entitlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Entitlement
	for _, e := range r.rows {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchasedAt.After(out[j].PurchasedAt) })
	return out, nil
}

func (r *MockEntitlementRepo) CountActiveByCategory(ctx context.Context, tx repository.Tx, now time.Time) (map[model.Category]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[model.Category]int{}
	for _, e := range r.rows {
		if e.ActiveAt(now) {
			out[e.Category]++
		}
	}
	return out, nil
}

// Rows returns a snapshot of every stored record.
func (r *MockEntitlementRepo) Rows() []*model.Entitlement {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Entitlement, len(r.rows))
	copy(out, r.rows)
	return out
}

// ---- Mock OrderRepository ----

type MockOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*model.PurchaseOrder

	CreatePendingFunc func(ctx context.Context, tx repository.Tx, o *model.PurchaseOrder) error
}

var _ repository.OrderRepository = (*MockOrderRepo)(nil)

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{orders: map[string]*model.PurchaseOrder{}}
}

func (r *MockOrderRepo) CreatePending(ctx context.Context, tx repository.Tx, o *model.PurchaseOrder) error {
	if r.CreatePendingFunc != nil {
		return r.CreatePendingFunc(ctx, tx, o)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.Ref]; ok {
		return domain.ErrDuplicate
	}
	cp := *o
	r.orders[o.Ref] = &cp
	return nil
}

func (r *MockOrderRepo) FindByRef(ctx context.Context, tx repository.Tx, ref string) (*model.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *MockOrderRepo) Settle(ctx context.Context, tx repository.Tx, ref string, status model.EntitlementStatus, paymentRef string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[ref]
	if !ok {
		return domain.ErrNotFound
	}
	if o.Status.Terminal() {
		return domain.ErrOrderSettled
	}
	o.Status, o.PaymentRef, o.SettledAt = status, paymentRef, at
	return nil
}

// Get returns the stored order or nil.
func (r *MockOrderRepo) Get(ref string) *model.PurchaseOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[ref]; ok {
		cp := *o
		return &cp
	}
	return nil
}

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	byEmail map[string]*model.User

	SaveFunc        func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByEmailFunc func(ctx context.Context, tx repository.Tx, email string) (*model.User, error)

	SaveCalls int
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byID: map[string]*model.User{}, byEmail: map[string]*model.User{}}
}

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	r.mu.Lock()
	r.SaveCalls++
	r.mu.Unlock()
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.byID[cp.ID] = &cp
	r.byEmail[cp.Email] = &cp
	return nil
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	if r.FindByEmailFunc != nil {
		return r.FindByEmailFunc(ctx, tx, email)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

// =============================
// Transactions & logging
// =============================

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func mustCourse(id string, cat model.Category, price int64) *model.Course {
	c, err := model.NewCourse(id, cat, "Course "+id, price)
	if err != nil {
		panic(err)
	}
	return c
}
