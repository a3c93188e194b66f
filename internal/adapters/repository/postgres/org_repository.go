package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/hr-promotion-core/internal/core/org"
	pgdb "github.com/ogurasousui/hr-promotion-core/internal/platform/db/postgres"
)

// OrgRepository は PostgreSQL を利用した部署・役職マスタ参照の実装です。
type OrgRepository struct {
	pool pgdb.Queryer
}

// NewOrgRepository は OrgRepository を生成します。
func NewOrgRepository(pool pgdb.Queryer) *OrgRepository {
	return &OrgRepository{pool: pool}
}

// FindDepartmentByID は ID で部署を取得します。
func (r *OrgRepository) FindDepartmentByID(ctx context.Context, companyID, id string) (*org.Department, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, company_id, name, created_at
          FROM departments
         WHERE company_id = $1 AND id = $2
         LIMIT 1
    `, companyID, id)

	var (
		deptID    string
		deptCo    string
		name      string
		createdAt time.Time
	)
	if err := row.Scan(&deptID, &deptCo, &name, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, org.ErrDepartmentNotFound
		}
		return nil, err
	}

	return &org.Department{ID: deptID, CompanyID: deptCo, Name: name, CreatedAt: createdAt}, nil
}

// FindDesignationByID は ID で役職を取得します。
func (r *OrgRepository) FindDesignationByID(ctx context.Context, companyID, id string) (*org.Designation, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, company_id, name, created_at
          FROM designations
         WHERE company_id = $1 AND id = $2
         LIMIT 1
    `, companyID, id)

	var (
		desigID   string
		desigCo   string
		name      string
		createdAt time.Time
	)
	if err := row.Scan(&desigID, &desigCo, &name, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, org.ErrDesignationNotFound
		}
		return nil, err
	}

	return &org.Designation{ID: desigID, CompanyID: desigCo, Name: name, CreatedAt: createdAt}, nil
}
