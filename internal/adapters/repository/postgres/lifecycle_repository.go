package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	pgdb "github.com/ogurasousui/hr-promotion-core/internal/platform/db/postgres"
)

// ResignationSource は退職コレクションに対する進行中レコード検索の実装です。
// 退職自体の管理は退職サブシステムが担い、ここでは競合検査に必要な読み取りのみを提供します。
type ResignationSource struct {
	pool pgdb.Queryer
}

// NewResignationSource は ResignationSource を生成します。
func NewResignationSource(pool pgdb.Queryer) *ResignationSource {
	return &ResignationSource{pool: pool}
}

// FindInFlightByEmployee は処理前の退職レコードの ID を返します。該当がなければ空文字列を返します。
func (s *ResignationSource) FindInFlightByEmployee(ctx context.Context, companyID, employeeID, excludeID string) (string, error) {
	exec := pgdb.QueryerFromContext(ctx, s.pool)
	row := exec.QueryRow(ctx, `
        SELECT id
          FROM resignations
         WHERE company_id = $1
           AND employee_id = $2
           AND status IN ('pending', 'approved')
           AND NOT is_processed
           AND NOT is_deleted
           AND id <> $3
         ORDER BY created_at ASC, id ASC
         LIMIT 1
    `, companyID, employeeID, excludeID)

	return scanInFlightID(row)
}

// TerminationSource は解雇コレクションに対する進行中レコード検索の実装です。
type TerminationSource struct {
	pool pgdb.Queryer
}

// NewTerminationSource は TerminationSource を生成します。
func NewTerminationSource(pool pgdb.Queryer) *TerminationSource {
	return &TerminationSource{pool: pool}
}

// FindInFlightByEmployee は処理前の解雇レコードの ID を返します。該当がなければ空文字列を返します。
func (s *TerminationSource) FindInFlightByEmployee(ctx context.Context, companyID, employeeID, excludeID string) (string, error) {
	exec := pgdb.QueryerFromContext(ctx, s.pool)
	row := exec.QueryRow(ctx, `
        SELECT id
          FROM terminations
         WHERE company_id = $1
           AND employee_id = $2
           AND status = 'pending'
           AND NOT is_processed
           AND NOT is_deleted
           AND id <> $3
         ORDER BY created_at ASC, id ASC
         LIMIT 1
    `, companyID, employeeID, excludeID)

	return scanInFlightID(row)
}

func scanInFlightID(row pgx.Row) (string, error) {
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return id, nil
}
