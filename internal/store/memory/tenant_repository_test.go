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


package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opentrusty/tenancy/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTenant(name string, parent *uuid.UUID, typ tenant.Type) *tenant.Tenant {
	return &tenant.Tenant{
		ID:               uuid.New(),
		Name:             name,
		SubscriptionPlan: "standard",
		CreatedAt:        time.Now().UTC(),
		ParentID:         parent,
		Type:             typ,
		AccessLevel:      tenant.ClassifyAccessLevel(typ),
	}
}

func ids(tenants []*tenant.Tenant) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, t.ID)
	}
	return out
}

func TestTenantRepository_SaveAndGet(t *testing.T) {
	repo := NewTenantRepository()
	ctx := context.Background()

	org := newTenant("Org", nil, tenant.TypeOrganization)
	require.NoError(t, repo.Save(ctx, org))

	got, err := repo.GetByID(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, org, got)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
}

// TestPurpose: Validates that stored records cannot be changed through pointers held by callers.
// Scope: Unit Test
// Expected: Mutating the saved or returned tenant leaves the stored record intact.
func TestTenantRepository_IsolatesCopies(t *testing.T) {
	repo := NewTenantRepository()
	ctx := context.Background()

	org := newTenant("Org", nil, tenant.TypeOrganization)
	require.NoError(t, repo.Save(ctx, org))
	org.Name = "mutated"

	got, err := repo.GetByID(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Org", got.Name)

	got.Name = "mutated again"
	again, err := repo.GetByID(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Org", again.Name)
}

func TestTenantRepository_ListByParent(t *testing.T) {
	repo := NewTenantRepository()
	ctx := context.Background()

	org := newTenant("Org", nil, tenant.TypeOrganization)
	other := newTenant("Other", nil, tenant.TypeOrganization)
	c1 := newTenant("C1", &org.ID, tenant.TypeCompany)
	c2 := newTenant("C2", &org.ID, tenant.TypeCompany)
	u1 := newTenant("U1", &org.ID, tenant.TypeUser)
	u2 := newTenant("U2", &c1.ID, tenant.TypeUser)
	x := newTenant("X", &other.ID, tenant.TypeCompany)
	for _, tt := range []*tenant.Tenant{org, other, c1, c2, u1, u2, x} {
		require.NoError(t, repo.Save(ctx, tt))
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 7)

	children, err := repo.ListByParent(ctx, org.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{c1.ID, c2.ID, u1.ID}, ids(children))

	companies, err := repo.ListByParentAndType(ctx, org.ID, tenant.TypeCompany)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{c1.ID, c2.ID}, ids(companies))

	users, err := repo.ListByParentAndType(ctx, org.ID, tenant.TypeUser)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{u1.ID}, ids(users))

	none, err := repo.ListByParent(ctx, u1.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// TestPurpose: Validates that Save overwrites by ID and keeps the parent index consistent.
// Scope: Unit Test
// Expected: After re-saving under a new parent, the tenant is listed only under the new parent.
func TestTenantRepository_SaveOverwrites(t *testing.T) {
	repo := NewTenantRepository()
	ctx := context.Background()

	a := newTenant("A", nil, tenant.TypeOrganization)
	b := newTenant("B", nil, tenant.TypeOrganization)
	c := newTenant("C", &a.ID, tenant.TypeCompany)
	for _, tt := range []*tenant.Tenant{a, b, c} {
		require.NoError(t, repo.Save(ctx, tt))
	}

	moved := *c
	moved.ParentID = &b.ID
	require.NoError(t, repo.Save(ctx, &moved))

	underA, err := repo.ListByParent(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, underA)

	underB, err := repo.ListByParentAndType(ctx, b.ID, tenant.TypeCompany)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c.ID}, ids(underB))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTenantRepository_CancelledContext(t *testing.T) {
	repo := NewTenantRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, repo.Save(ctx, newTenant("A", nil, tenant.TypeUser)), context.Canceled)
}
