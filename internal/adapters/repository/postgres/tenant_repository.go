package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/hr-promotion-core/internal/core/tenant"
	pgdb "github.com/ogurasousui/hr-promotion-core/internal/platform/db/postgres"
)

// TenantRepository は PostgreSQL を利用したテナントディレクトリ参照の実装です。
type TenantRepository struct {
	pool pgdb.Queryer
}

// NewTenantRepository は TenantRepository を生成します。
func NewTenantRepository(pool pgdb.Queryer) *TenantRepository {
	return &TenantRepository{pool: pool}
}

// FindByID は ID でテナントを取得します。
func (r *TenantRepository) FindByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, name, is_active, created_at, updated_at
          FROM tenants
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanTenant(row)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ListActive は有効なテナントを作成順で返します。
func (r *TenantRepository) ListActive(ctx context.Context) ([]*tenant.Tenant, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, name, is_active, created_at, updated_at
          FROM tenants
         WHERE is_active
         ORDER BY created_at ASC, id ASC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := make([]*tenant.Tenant, 0)
	for rows.Next() {
		found, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, found)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tenants, nil
}

func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var (
		id        string
		name      string
		isActive  bool
		createdAt time.Time
		updatedAt time.Time
	)

	if err := row.Scan(&id, &name, &isActive, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, err
	}

	return &tenant.Tenant{
		ID:        id,
		Name:      name,
		IsActive:  isActive,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
