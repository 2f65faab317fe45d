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

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/opentrusty/tenancy/internal/tenant"
)

// PostgreSQL error code for foreign_key_violation
const codeForeignKeyViolation = "23503"

var errInvalidRow = errors.New("invalid tenant row")

const selectTenant = `
	SELECT id, name, subscription_plan, created_at, parent_id, tenant_type, access_level
	FROM tenants`

// TenantRepository implements tenant.Repository
type TenantRepository struct {
	db *sql.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db.sql}
}

// Save inserts the tenant or overwrites the row with the same ID
func (r *TenantRepository) Save(ctx context.Context, t *tenant.Tenant) error {
	var parentID sql.NullString
	if t.ParentID != nil {
		parentID = sql.NullString{String: t.ParentID.String(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, subscription_plan, created_at, parent_id, tenant_type, access_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			subscription_plan = EXCLUDED.subscription_plan,
			created_at = EXCLUDED.created_at,
			parent_id = EXCLUDED.parent_id,
			tenant_type = EXCLUDED.tenant_type,
			access_level = EXCLUDED.access_level
	`,
		t.ID.String(), t.Name, t.SubscriptionPlan, t.CreatedAt,
		parentID, string(t.Type), string(t.AccessLevel),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation {
			return fmt.Errorf("%w: %v", tenant.ErrParentNotFound, pgErr.Message)
		}
		return storeError("save tenant", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	row := r.db.QueryRowContext(ctx, selectTenant+` WHERE id = $1`, id.String())

	t, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, storeError("get tenant", err)
	}
	return t, nil
}

// List returns every tenant. Rows come back in the table's natural order.
func (r *TenantRepository) List(ctx context.Context) ([]*tenant.Tenant, error) {
	return r.query(ctx, "list tenants", selectTenant)
}

// ListByParent returns the direct children of parentID
func (r *TenantRepository) ListByParent(ctx context.Context, parentID uuid.UUID) ([]*tenant.Tenant, error) {
	return r.query(ctx, "list child tenants", selectTenant+` WHERE parent_id = $1`, parentID.String())
}

// ListByParentAndType returns the direct children of parentID with the given type
func (r *TenantRepository) ListByParentAndType(ctx context.Context, parentID uuid.UUID, tenantType tenant.Type) ([]*tenant.Tenant, error) {
	return r.query(ctx, "list child tenants by type",
		selectTenant+` WHERE parent_id = $1 AND tenant_type = $2`,
		parentID.String(), string(tenantType),
	)
}

func (r *TenantRepository) query(ctx context.Context, op, query string, args ...any) ([]*tenant.Tenant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(op, err)
	}
	defer rows.Close()

	tenants := []*tenant.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, storeError(op, err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(op, err)
	}
	return tenants, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTenant(s scanner) (*tenant.Tenant, error) {
	var (
		t           tenant.Tenant
		parentID    uuid.NullUUID
		tenantType  string
		accessLevel string
	)
	if err := s.Scan(&t.ID, &t.Name, &t.SubscriptionPlan, &t.CreatedAt, &parentID, &tenantType, &accessLevel); err != nil {
		return nil, err
	}
	if parentID.Valid {
		parent := parentID.UUID
		t.ParentID = &parent
	}
	t.Type = tenant.Type(tenantType)
	t.AccessLevel = tenant.AccessLevel(accessLevel)
	if !t.Type.Valid() || !t.AccessLevel.Valid() {
		return nil, fmt.Errorf("%w: tenant %s has classification %s/%s", errInvalidRow, t.ID, tenantType, accessLevel)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

// storeError wraps a driver failure. Errors reported by the server itself
// keep their identity; anything else (connection, transport) is marked
// tenant.ErrStoreUnavailable. Caller cancellation is passed through.
func storeError(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr),
		errors.Is(err, errInvalidRow),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("failed to %s: %w", op, err)
	default:
		return fmt.Errorf("failed to %s: %w: %w", op, tenant.ErrStoreUnavailable, err)
	}
}
