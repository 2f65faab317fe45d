// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package memory provides an in-process tenant store for development and tests.
package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/btree"
	"github.com/google/uuid"
	"github.com/opentrusty/tenancy/internal/tenant"
)

const degree = 8

// childKey orders the parent index by parent, then type, then ID
type childKey struct {
	parent uuid.UUID
	typ    tenant.Type
	id     uuid.UUID
}

func lessTenant(a, b *tenant.Tenant) bool {
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

func lessChild(a, b childKey) bool {
	if c := bytes.Compare(a.parent[:], b.parent[:]); c != 0 {
		return c < 0
	}
	if a.typ != b.typ {
		return a.typ < b.typ
	}
	return bytes.Compare(a.id[:], b.id[:]) < 0
}

// TenantRepository implements tenant.Repository over B-trees. Its natural
// order is by tenant ID.
type TenantRepository struct {
	mu       sync.RWMutex
	byID     *btree.BTreeG[*tenant.Tenant]
	byParent *btree.BTreeG[childKey]
}

// NewTenantRepository creates an empty in-memory tenant repository
func NewTenantRepository() *TenantRepository {
	return &TenantRepository{
		byID:     btree.NewG(degree, lessTenant),
		byParent: btree.NewG(degree, lessChild),
	}
}

// Save creates the tenant or overwrites the record with the same ID
func (r *TenantRepository) Save(ctx context.Context, t *tenant.Tenant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := clone(t)

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byID.ReplaceOrInsert(stored); ok && old.ParentID != nil {
		r.byParent.Delete(childKey{parent: *old.ParentID, typ: old.Type, id: old.ID})
	}
	if stored.ParentID != nil {
		r.byParent.ReplaceOrInsert(childKey{parent: *stored.ParentID, typ: stored.Type, id: stored.ID})
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID.Get(&tenant.Tenant{ID: id})
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return clone(t), nil
}

// List returns every tenant ordered by ID
func (r *TenantRepository) List(ctx context.Context) ([]*tenant.Tenant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*tenant.Tenant, 0, r.byID.Len())
	r.byID.Ascend(func(t *tenant.Tenant) bool {
		out = append(out, clone(t))
		return true
	})
	return out, nil
}

// ListByParent returns the direct children of parentID
func (r *TenantRepository) ListByParent(ctx context.Context, parentID uuid.UUID) ([]*tenant.Tenant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*tenant.Tenant
	r.byParent.AscendGreaterOrEqual(childKey{parent: parentID}, func(k childKey) bool {
		if k.parent != parentID {
			return false
		}
		out = append(out, r.lookup(k.id))
		return true
	})
	return out, nil
}

// ListByParentAndType returns the direct children of parentID with the given type
func (r *TenantRepository) ListByParentAndType(ctx context.Context, parentID uuid.UUID, tenantType tenant.Type) ([]*tenant.Tenant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*tenant.Tenant
	r.byParent.AscendGreaterOrEqual(childKey{parent: parentID, typ: tenantType}, func(k childKey) bool {
		if k.parent != parentID || k.typ != tenantType {
			return false
		}
		out = append(out, r.lookup(k.id))
		return true
	})
	return out, nil
}

// lookup must be called with r.mu held
func (r *TenantRepository) lookup(id uuid.UUID) *tenant.Tenant {
	t, _ := r.byID.Get(&tenant.Tenant{ID: id})
	return clone(t)
}

func clone(t *tenant.Tenant) *tenant.Tenant {
	c := *t
	if t.ParentID != nil {
		parent := *t.ParentID
		c.ParentID = &parent
	}
	return &c
}
