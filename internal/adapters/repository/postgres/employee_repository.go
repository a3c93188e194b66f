package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/hr-promotion-core/internal/core/employee"
	pgdb "github.com/ogurasousui/hr-promotion-core/internal/platform/db/postgres"
)

const employeeColumns = `
        id,
        company_id,
        employee_code,
        name,
        department_id,
        department,
        designation_id,
        designation,
        status,
        joined_at,
        is_deleted,
        created_at,
        updated_at`

// EmployeeRepository は PostgreSQL を利用した社員参照・所属更新の実装です。
// 社員の作成・削除は採用サブシステム側が行うため、ここでは提供しません。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, companyID, id string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT`+employeeColumns+`
          FROM employees
         WHERE company_id = $1 AND id = $2 AND NOT is_deleted
         LIMIT 1
    `, companyID, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// UpdateAssignment は昇格適用による所属変更を書き込みます。
func (r *EmployeeRepository) UpdateAssignment(ctx context.Context, companyID, id string, change employee.AssignmentChange) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET department_id = $1,
               department = $2,
               designation_id = $3,
               designation = $4,
               updated_at = $5
         WHERE company_id = $6 AND id = $7 AND NOT is_deleted
        RETURNING`+employeeColumns,
		change.DepartmentID,
		change.Department,
		change.DesignationID,
		change.Designation,
		change.UpdatedAt,
		companyID,
		id,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		id            string
		companyID     string
		code          string
		name          string
		departmentID  string
		department    string
		designationID string
		designation   string
		status        string
		joinedAt      sql.NullTime
		isDeleted     bool
		createdAt     time.Time
		updatedAt     time.Time
	)

	if err := row.Scan(
		&id,
		&companyID,
		&code,
		&name,
		&departmentID,
		&department,
		&designationID,
		&designation,
		&status,
		&joinedAt,
		&isDeleted,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	var joinedPtr *time.Time
	if joinedAt.Valid {
		date := dateValue(joinedAt.Time.UTC())
		joinedPtr = &date
	}

	return &employee.Employee{
		ID:            id,
		CompanyID:     companyID,
		EmployeeCode:  code,
		Name:          name,
		DepartmentID:  departmentID,
		Department:    department,
		DesignationID: designationID,
		Designation:   designation,
		Status:        employee.Status(status),
		JoinedAt:      joinedPtr,
		IsDeleted:     isDeleted,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}
