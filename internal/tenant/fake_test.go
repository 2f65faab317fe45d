package tenant

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/opentrusty/tenancy/internal/audit"
	"github.com/stretchr/testify/mock"
)

// fakeRepo keeps tenants in insertion order and enforces nothing
type fakeRepo struct {
	mu      sync.Mutex
	tenants []*Tenant
}

func (f *fakeRepo) Save(_ context.Context, t *Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	for i, existing := range f.tenants {
		if existing.ID == t.ID {
			f.tenants[i] = &cp
			return nil
		}
	}
	f.tenants = append(f.tenants, &cp)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tenants {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrTenantNotFound
}

func (f *fakeRepo) List(_ context.Context) ([]*Tenant, error) {
	return f.filter(func(*Tenant) bool { return true }), nil
}

func (f *fakeRepo) ListByParent(_ context.Context, parentID uuid.UUID) ([]*Tenant, error) {
	return f.filter(func(t *Tenant) bool {
		return t.ParentID != nil && *t.ParentID == parentID
	}), nil
}

func (f *fakeRepo) ListByParentAndType(_ context.Context, parentID uuid.UUID, tenantType Type) ([]*Tenant, error) {
	return f.filter(func(t *Tenant) bool {
		return t.ParentID != nil && *t.ParentID == parentID && t.Type == tenantType
	}), nil
}

func (f *fakeRepo) filter(keep func(*Tenant) bool) []*Tenant {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Tenant
	for _, t := range f.tenants {
		if keep(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

func (f *fakeRepo) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tenants)
}

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Save(ctx context.Context, t *Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *mockRepo) List(ctx context.Context) ([]*Tenant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Tenant), args.Error(1)
}

func (m *mockRepo) ListByParent(ctx context.Context, parentID uuid.UUID) ([]*Tenant, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Tenant), args.Error(1)
}

func (m *mockRepo) ListByParentAndType(ctx context.Context, parentID uuid.UUID, tenantType Type) ([]*Tenant, error) {
	args := m.Called(ctx, parentID, tenantType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Tenant), args.Error(1)
}

type mockAuditLogger struct {
	mock.Mock
}

func (m *mockAuditLogger) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}
