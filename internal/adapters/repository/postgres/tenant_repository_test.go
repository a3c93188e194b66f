package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/hr-promotion-core/internal/core/tenant"
)

func TestTenantRepository_ListActive(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewTenantRepository(mock)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "name", "is_active", "created_at", "updated_at"}).
		AddRow("company-1", "Acme", true, now, now).
		AddRow("company-2", "Globex", true, now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE is_active`)).
		WillReturnRows(rows)

	tenants, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive returned error: %v", err)
	}

	if len(tenants) != 2 {
		t.Fatalf("expected 2 tenants, got %d", len(tenants))
	}
	if tenants[0].ID != "company-1" || !tenants[0].IsActive {
		t.Fatalf("unexpected tenant: %+v", tenants[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTenantRepository_FindByID_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewTenantRepository(mock)

	rows := pgxmock.NewRows([]string{"id", "name", "is_active", "created_at", "updated_at"})
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tenants`)).
		WithArgs("missing").
		WillReturnRows(rows)

	_, err = repo.FindByID(context.Background(), "missing")
	if !errors.Is(err, tenant.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
