package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/core/ports/external"
	portsrepo "github.com/SscSPs/property_fines_app/internal/core/ports/repositories"
)

// memStore is an in-memory stand-in for the pgsql repositories. It keeps the same version and
// uniqueness rules so services can be exercised end to end.
type memStore struct {
	mu         sync.Mutex
	categories map[string]domain.ViolationCategory
	violations map[string]domain.Violation
	fines      map[string]domain.Fine
	payments   map[string]domain.Payment
	history    map[string][]domain.FineStatusChange
	order      []string // payment ids in insertion order

	failUpdateFine      error // returned once by the next fine write
	concurrentFineWrite bool  // the next fine write finds the stored version already bumped by another writer
}

var (
	_ portsrepo.CategoryRepositoryFacade  = (*memStore)(nil)
	_ portsrepo.ViolationRepositoryFacade = (*memStore)(nil)
	_ portsrepo.FineRepositoryFacade      = (*memStore)(nil)
	_ portsrepo.PaymentRepositoryFacade   = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		categories: map[string]domain.ViolationCategory{},
		violations: map[string]domain.Violation{},
		fines:      map[string]domain.Fine{},
		payments:   map[string]domain.Payment{},
		history:    map[string][]domain.FineStatusChange{},
	}
}

func (m *memStore) repos() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{CategoryRepo: m, ViolationRepo: m, FineRepo: m, PaymentRepo: m}
}

// clone deep-copies through JSON so callers never share sub-records with the store.
func clone[T any](in T) T {
	raw, err := json.Marshal(in)
	if err != nil {
		panic(err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}

func cloneFine(f domain.Fine) domain.Fine {
	out := clone(f)
	out.AccrualPaused = f.AccrualPaused
	return out
}

// --- categories ---

func (m *memStore) FindCategoryByID(_ context.Context, id string) (*domain.ViolationCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, fmt.Errorf("%w: category %s", apperrors.ErrNotFound, id)
	}
	out := clone(c)
	return &out, nil
}

func (m *memStore) ListCategories(_ context.Context, includeInactive bool) ([]domain.ViolationCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ViolationCategory
	for _, c := range m.categories {
		if c.IsActive || includeInactive {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) GetCategoryStats(_ context.Context, id string) (*domain.CategoryStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := domain.CategoryStats{CategoryID: id, AverageFinePerViolation: decimal.Zero}
	total := decimal.Zero
	for _, v := range m.violations {
		if v.CategoryID != id {
			continue
		}
		stats.TotalViolations++
		for _, f := range m.fines {
			if f.ViolationID == v.ViolationID {
				total = total.Add(f.FineAmount)
			}
		}
	}
	if stats.TotalViolations > 0 {
		stats.AverageFinePerViolation = total.Div(decimal.NewFromInt(stats.TotalViolations)).Round(2)
	}
	return &stats, nil
}

func (m *memStore) SaveCategory(_ context.Context, c domain.ViolationCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.categories {
		if existing.Name == c.Name {
			return fmt.Errorf("%w: category %s", apperrors.ErrDuplicate, c.Name)
		}
	}
	m.categories[c.CategoryID] = clone(c)
	return nil
}

func (m *memStore) UpdateCategory(_ context.Context, c *domain.ViolationCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.categories[c.CategoryID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if stored.Version != c.Version {
		return apperrors.ErrConcurrentModification
	}
	c.Version++
	m.categories[c.CategoryID] = clone(*c)
	return nil
}

// --- violations ---

func (m *memStore) FindViolationByID(_ context.Context, id string) (*domain.Violation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.violations[id]
	if !ok {
		return nil, fmt.Errorf("%w: violation %s", apperrors.ErrNotFound, id)
	}
	out := clone(v)
	return &out, nil
}

func (m *memStore) ListViolations(_ context.Context, filter portsrepo.ViolationFilter, limit int, _ *string) ([]domain.Violation, *string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Violation
	for _, v := range m.violations {
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		if filter.CategoryID != "" && v.CategoryID != filter.CategoryID {
			continue
		}
		if filter.ResidentID != "" && v.ResidentID != filter.ResidentID {
			continue
		}
		out = append(out, clone(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil, nil
}

func (m *memStore) SaveViolation(_ context.Context, v domain.Violation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.violations[v.ViolationID] = clone(v)
	return nil
}

func (m *memStore) UpdateViolation(_ context.Context, v *domain.Violation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.violations[v.ViolationID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if stored.Version != v.Version {
		return apperrors.ErrConcurrentModification
	}
	v.Version++
	m.violations[v.ViolationID] = clone(*v)
	return nil
}

func (m *memStore) DeleteViolation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.fines {
		if f.ViolationID == id {
			return apperrors.ErrConflict
		}
	}
	delete(m.violations, id)
	return nil
}

// --- fines ---

func (m *memStore) FindFineByID(_ context.Context, id string) (*domain.Fine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fines[id]
	if !ok {
		return nil, fmt.Errorf("%w: fine %s", apperrors.ErrNotFound, id)
	}
	out := cloneFine(f)
	return &out, nil
}

func (m *memStore) FindFineByViolationID(_ context.Context, violationID string) (*domain.Fine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.fines {
		if f.ViolationID == violationID {
			out := cloneFine(f)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: fine for violation %s", apperrors.ErrNotFound, violationID)
}

func (m *memStore) ListFines(_ context.Context, filter portsrepo.FineFilter, limit int, _ *string) ([]domain.Fine, *string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Fine
	for _, f := range m.fines {
		status := f.Status
		if filter.StatusAsOf != nil {
			status = f.StatusAsOf(*filter.StatusAsOf)
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, status) {
			continue
		}
		if filter.ResidentID != "" && f.ResidentID != filter.ResidentID {
			continue
		}
		out = append(out, cloneFine(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedDate.After(out[j].IssuedDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil, nil
}

func containsStatus(statuses []domain.FineStatus, s domain.FineStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func (m *memStore) ListFinesIssuedBetween(_ context.Context, from, to time.Time) ([]domain.Fine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Fine
	for _, f := range m.fines {
		if !f.IssuedDate.Before(from) && f.IssuedDate.Before(to) {
			out = append(out, cloneFine(f))
		}
	}
	return out, nil
}

// ListOpenFinesDueBefore returns everything in one page; the sweep's paging is covered by the pgsql tests.
func (m *memStore) ListOpenFinesDueBefore(_ context.Context, cutoff time.Time, _ int, _ *string) ([]domain.Fine, *string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Fine
	for _, f := range m.fines {
		switch f.Status {
		case domain.FinePending, domain.FinePartiallyPaid, domain.FineOverdue:
		default:
			continue
		}
		if f.DueDate.Before(cutoff) {
			out = append(out, cloneFine(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil, nil
}

func (m *memStore) ListFineStatusChanges(_ context.Context, fineID string) ([]domain.FineStatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.FineStatusChange(nil), m.history[fineID]...), nil
}

func (m *memStore) SaveFine(_ context.Context, f domain.Fine, change domain.FineStatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.fines {
		if existing.ViolationID == f.ViolationID {
			return fmt.Errorf("%w: violation %s already fined", apperrors.ErrDuplicate, f.ViolationID)
		}
	}
	m.fines[f.FineID] = cloneFine(f)
	m.history[f.FineID] = append(m.history[f.FineID], change)
	return nil
}

func (m *memStore) UpdateFine(_ context.Context, f *domain.Fine, changes []domain.FineStatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateFineLocked(f, changes)
}

func (m *memStore) updateFineLocked(f *domain.Fine, changes []domain.FineStatusChange) error {
	if m.failUpdateFine != nil {
		err := m.failUpdateFine
		m.failUpdateFine = nil
		return err
	}
	stored, ok := m.fines[f.FineID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if m.concurrentFineWrite {
		m.concurrentFineWrite = false
		stored.Version++
		m.fines[f.FineID] = stored
	}
	if stored.Version != f.Version {
		return apperrors.ErrConcurrentModification
	}
	f.Version++
	m.fines[f.FineID] = cloneFine(*f)
	m.history[f.FineID] = append(m.history[f.FineID], changes...)

	if f.Status == domain.FinePaid || f.Status == domain.FineWaived {
		if v, ok := m.violations[f.ViolationID]; ok && v.Status == domain.ViolationApproved {
			if err := v.MarkResolved(f.LastUpdatedBy, f.LastUpdatedAt); err != nil {
				return err
			}
			v.Version++
			m.violations[v.ViolationID] = v
		}
	}
	return nil
}

// --- payments ---

func (m *memStore) FindPaymentByID(_ context.Context, id string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, fmt.Errorf("%w: payment %s", apperrors.ErrNotFound, id)
	}
	out := clone(p)
	return &out, nil
}

func (m *memStore) FindPaymentByGatewayOrderID(_ context.Context, orderID string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.GatewayOrderID != nil && *p.GatewayOrderID == orderID {
			out := clone(p)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: order %s", apperrors.ErrNotFound, orderID)
}

func (m *memStore) ListPaymentsByFineID(_ context.Context, fineID string) ([]domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Payment
	for _, id := range m.order {
		if p := m.payments[id]; p.FineID == fineID {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func (m *memStore) SavePayment(_ context.Context, p domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertPaymentLocked(p)
	return nil
}

func (m *memStore) insertPaymentLocked(p domain.Payment) {
	m.payments[p.PaymentID] = clone(p)
	m.order = append(m.order, p.PaymentID)
}

func (m *memStore) UpdatePayment(_ context.Context, p *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.payments[p.PaymentID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if stored.Version != p.Version {
		return apperrors.ErrConcurrentModification
	}
	p.Version++
	m.payments[p.PaymentID] = clone(*p)
	return nil
}

func (m *memStore) SavePaymentWithFine(_ context.Context, p domain.Payment, f *domain.Fine, changes []domain.FineStatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.updateFineLocked(f, changes); err != nil {
		return err
	}
	m.insertPaymentLocked(p)
	return nil
}

func (m *memStore) CompletePaymentWithFine(_ context.Context, p *domain.Payment, f *domain.Fine, changes []domain.FineStatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.payments {
		if other.PaymentID != p.PaymentID && other.GatewayPaymentID != nil && p.GatewayPaymentID != nil &&
			*other.GatewayPaymentID == *p.GatewayPaymentID {
			return apperrors.ErrDuplicate
		}
	}
	stored, ok := m.payments[p.PaymentID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if stored.Version != p.Version {
		return apperrors.ErrConcurrentModification
	}
	if err := m.updateFineLocked(f, changes); err != nil {
		return err
	}
	p.Version++
	m.payments[p.PaymentID] = clone(*p)
	return nil
}

// --- collaborator mocks ---

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, event external.NotificationEvent, recipient string, payload map[string]any) error {
	args := m.Called(ctx, event, recipient, payload)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currencyCode, receipt string) (*external.GatewayOrder, error) {
	args := m.Called(ctx, amount, currencyCode, receipt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*external.GatewayOrder), args.Error(1)
}

func (m *MockGateway) VerifyPayment(ctx context.Context, v external.GatewayVerification) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) CreateBillLineItem(ctx context.Context, item external.BillLineItem) (*external.BillReceipt, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*external.BillReceipt), args.Error(1)
}

var (
	_ external.Notifier       = (*MockNotifier)(nil)
	_ external.PaymentGateway = (*MockGateway)(nil)
	_ external.BillingLedger  = (*MockLedger)(nil)
)
