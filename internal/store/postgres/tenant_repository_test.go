package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/opentrusty/tenancy/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tenantCols = []string{"id", "name", "subscription_plan", "created_at", "parent_id", "tenant_type", "access_level"}

func newMockRepo(t *testing.T) (*TenantRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTenantRepository(&DB{sql: db}), mock
}

// TestPurpose: Validates that Save issues a single upsert carrying every tenant column.
// Scope: Unit Test
// Expected: One INSERT ... ON CONFLICT statement with the parent ID rendered as text.
func TestTenantRepository_Save(t *testing.T) {
	repo, mock := newMockRepo(t)
	parent := uuid.New()
	ten := &tenant.Tenant{
		ID:               uuid.New(),
		Name:             "Acme Corp",
		SubscriptionPlan: "gold",
		CreatedAt:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		ParentID:         &parent,
		Type:             tenant.TypeCompany,
		AccessLevel:      tenant.AccessAdmin,
	}

	mock.ExpectExec("INSERT INTO tenants .* ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs(ten.ID.String(), "Acme Corp", "gold", ten.CreatedAt, parent.String(), "COMPANY", "ADMIN").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), ten))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantRepository_Save_RootHasNullParent(t *testing.T) {
	repo, mock := newMockRepo(t)
	ten := &tenant.Tenant{
		ID:          uuid.New(),
		Name:        "Org",
		CreatedAt:   time.Now().UTC(),
		Type:        tenant.TypeOrganization,
		AccessLevel: tenant.AccessSuper,
	}

	mock.ExpectExec("INSERT INTO tenants").
		WithArgs(ten.ID.String(), "Org", "", ten.CreatedAt, nil, "ORGANIZATION", "SUPER").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), ten))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestPurpose: Validates that a foreign key violation on save surfaces as a missing parent.
// Scope: Unit Test
// Expected: ErrParentNotFound, not ErrStoreUnavailable.
func TestTenantRepository_Save_ForeignKeyViolation(t *testing.T) {
	repo, mock := newMockRepo(t)
	parent := uuid.New()

	mock.ExpectExec("INSERT INTO tenants").
		WillReturnError(&pgconn.PgError{Code: codeForeignKeyViolation, Message: "violates foreign key constraint"})

	err := repo.Save(context.Background(), &tenant.Tenant{
		ID: uuid.New(), Name: "C", ParentID: &parent,
		Type: tenant.TypeCompany, AccessLevel: tenant.AccessAdmin,
	})
	assert.ErrorIs(t, err, tenant.ErrParentNotFound)
	assert.NotErrorIs(t, err, tenant.ErrStoreUnavailable)
}

func TestTenantRepository_GetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	parent := uuid.New()
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .* FROM tenants WHERE id = \\$1").
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows(tenantCols).
			AddRow(id.String(), "C1", "basic", created, parent.String(), "COMPANY", "ADMIN"))

	got, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "C1", got.Name)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, parent, *got.ParentID)
	assert.Equal(t, tenant.TypeCompany, got.Type)
	assert.Equal(t, tenant.AccessAdmin, got.AccessLevel)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT .* FROM tenants WHERE id = \\$1").
		WithArgs(id.String()).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
}

func TestTenantRepository_GetByID_RejectsUnknownClassification(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT .* FROM tenants").
		WillReturnRows(sqlmock.NewRows(tenantCols).
			AddRow(id.String(), "X", "", time.Now(), nil, "PLATFORM", "SUPER"))

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, errInvalidRow)
	assert.NotErrorIs(t, err, tenant.ErrStoreUnavailable)
}

// TestPurpose: Validates that transport failures are reported as an unavailable store and passed up unchanged.
// Scope: Unit Test
// Expected: The error matches both ErrStoreUnavailable and the underlying driver error.
func TestTenantRepository_StoreUnavailable(t *testing.T) {
	repo, mock := newMockRepo(t)
	connErr := errors.New("dial tcp 127.0.0.1:5432: connection refused")

	mock.ExpectQuery("SELECT .* FROM tenants").WillReturnError(connErr)

	_, err := repo.List(context.Background())
	assert.ErrorIs(t, err, tenant.ErrStoreUnavailable)
	assert.ErrorIs(t, err, connErr)
}

func TestTenantRepository_List(t *testing.T) {
	repo, mock := newMockRepo(t)
	org, c1 := uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .* FROM tenants").
		WillReturnRows(sqlmock.NewRows(tenantCols).
			AddRow(org.String(), "Org", "gold", now, nil, "ORGANIZATION", "SUPER").
			AddRow(c1.String(), "C1", "gold", now, org.String(), "COMPANY", "ADMIN"))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].ParentID)
	assert.Equal(t, org, *got[1].ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantRepository_List_Empty(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT .* FROM tenants").WillReturnRows(sqlmock.NewRows(tenantCols))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTenantRepository_ListByParentAndType(t *testing.T) {
	repo, mock := newMockRepo(t)
	parent, u1 := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT .* FROM tenants WHERE parent_id = \\$1 AND tenant_type = \\$2").
		WithArgs(parent.String(), "USER").
		WillReturnRows(sqlmock.NewRows(tenantCols).
			AddRow(u1.String(), "U1", "", time.Now(), parent.String(), "USER", "READ_ONLY"))

	got, err := repo.ListByParentAndType(context.Background(), parent, tenant.TypeUser)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, u1, got[0].ID)
	assert.Equal(t, tenant.AccessReadOnly, got[0].AccessLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantRepository_ListByParent(t *testing.T) {
	repo, mock := newMockRepo(t)
	parent := uuid.New()

	mock.ExpectQuery("SELECT .* FROM tenants WHERE parent_id = \\$1$").
		WithArgs(parent.String()).
		WillReturnRows(sqlmock.NewRows(tenantCols))

	got, err := repo.ListByParent(context.Background(), parent)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{
		Host: "db", Port: "5432", User: "tenancy", Password: "pw", Database: "tenancy",
		SSLMode: "disable", MaxOpenConns: 10, MaxIdleConns: 2, ConnMaxLifetime: 5 * time.Minute,
	}
	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=db")
	assert.Contains(t, dsn, "pool_max_conns=10")
	assert.Contains(t, dsn, "pool_max_conn_lifetime=5m0s")
}
