package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrTenantNotFound   = errors.New("tenant not found")
	ErrParentNotFound   = errors.New("parent tenant not found")
	ErrNameRequired     = errors.New("tenant name is required")
	ErrStoreUnavailable = errors.New("tenant store unavailable")
	ErrHierarchyCycle   = errors.New("tenant hierarchy contains a cycle")
)

// Repository defines the interface for tenant storage
type Repository interface {
	// Save creates the tenant or overwrites the record with the same ID
	Save(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	List(ctx context.Context) ([]*Tenant, error)
	ListByParent(ctx context.Context, parentID uuid.UUID) ([]*Tenant, error)
	ListByParentAndType(ctx context.Context, parentID uuid.UUID, tenantType Type) ([]*Tenant, error)
}
