package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ogurasousui/hr-promotion-core/internal/core/promotion"
	pgdb "github.com/ogurasousui/hr-promotion-core/internal/platform/db/postgres"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"

	// singlePendingIndexName は「社員1人につき pending の昇格は1件まで」を強制する部分一意インデックスです。
	singlePendingIndexName = "promotions_single_pending_idx"
)

const promotionColumns = `
        id,
        company_id,
        employee_id,
        to_department_id,
        to_designation_id,
        promotion_date,
        promotion_type,
        previous_salary::text,
        new_salary::text,
        increment::text,
        increment_percentage::text,
        reason,
        notes,
        status,
        applied_at,
        created_by,
        updated_by,
        is_deleted,
        created_at,
        updated_at`

// PromotionRepository は PostgreSQL を利用した昇格レコード永続化の実装です。
type PromotionRepository struct {
	pool pgdb.Queryer
}

// NewPromotionRepository は PromotionRepository を生成します。
func NewPromotionRepository(pool pgdb.Queryer) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

// Create は昇格レコードを新規作成します。ID はリポジトリ側で採番します。
func (r *PromotionRepository) Create(ctx context.Context, p *promotion.Promotion) (*promotion.Promotion, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO promotions (
            id, company_id, employee_id, to_department_id, to_designation_id,
            promotion_date, promotion_type,
            previous_salary, new_salary, increment, increment_percentage,
            reason, notes, status, applied_at, created_by, updated_by,
            is_deleted, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9::numeric, $10::numeric, $11::numeric,
                $12, $13, $14, $15, $16, $17, $18, $19, $20)
        RETURNING`+promotionColumns,
		uuid.NewString(),
		p.CompanyID,
		p.EmployeeID,
		p.To.DepartmentID,
		p.To.DesignationID,
		dateValue(p.PromotionDate),
		p.PromotionType,
		p.Salary.PreviousSalary.String(),
		p.Salary.NewSalary.String(),
		p.Salary.Increment.String(),
		p.Salary.IncrementPercentage.String(),
		p.Reason,
		p.Notes,
		string(p.Status),
		nullableTime(p.AppliedAt),
		p.CreatedBy,
		p.UpdatedBy,
		p.IsDeleted,
		p.CreatedAt,
		p.UpdatedAt,
	)

	created, err := scanPromotion(row)
	if err != nil {
		return nil, translatePromotionPgError(err)
	}
	return created, nil
}

// Update は昇格レコードを更新します。論理削除済みレコードは更新できません。
func (r *PromotionRepository) Update(ctx context.Context, p *promotion.Promotion) (*promotion.Promotion, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE promotions
           SET to_department_id = $1,
               to_designation_id = $2,
               promotion_date = $3,
               promotion_type = $4,
               previous_salary = $5::numeric,
               new_salary = $6::numeric,
               increment = $7::numeric,
               increment_percentage = $8::numeric,
               reason = $9,
               notes = $10,
               status = $11,
               applied_at = $12,
               updated_by = $13,
               updated_at = $14
         WHERE company_id = $15 AND id = $16 AND NOT is_deleted
        RETURNING`+promotionColumns,
		p.To.DepartmentID,
		p.To.DesignationID,
		dateValue(p.PromotionDate),
		p.PromotionType,
		p.Salary.PreviousSalary.String(),
		p.Salary.NewSalary.String(),
		p.Salary.Increment.String(),
		p.Salary.IncrementPercentage.String(),
		p.Reason,
		p.Notes,
		string(p.Status),
		nullableTime(p.AppliedAt),
		p.UpdatedBy,
		p.UpdatedAt,
		p.CompanyID,
		p.ID,
	)

	updated, err := scanPromotion(row)
	if err != nil {
		return nil, translatePromotionPgError(err)
	}
	return updated, nil
}

// SoftDelete は is_deleted フラグを立てます。該当行がなければ ErrPromotionNotFound を返します。
func (r *PromotionRepository) SoftDelete(ctx context.Context, companyID, id, deletedBy string, at time.Time) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE promotions
           SET is_deleted = TRUE,
               updated_by = $1,
               updated_at = $2
         WHERE company_id = $3 AND id = $4 AND NOT is_deleted
    `, deletedBy, at, companyID, id)
	if err != nil {
		return translatePromotionPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return promotion.ErrPromotionNotFound
	}
	return nil
}

// FindByID は ID で昇格レコードを取得します。
func (r *PromotionRepository) FindByID(ctx context.Context, companyID, id string) (*promotion.Promotion, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT`+promotionColumns+`
          FROM promotions
         WHERE company_id = $1 AND id = $2 AND NOT is_deleted
         LIMIT 1
    `, companyID, id)

	found, err := scanPromotion(row)
	if err != nil {
		return nil, translatePromotionPgError(err)
	}
	return found, nil
}

// FindPendingByEmployee は excludeID 以外で pending の昇格を1件返します。
func (r *PromotionRepository) FindPendingByEmployee(ctx context.Context, companyID, employeeID, excludeID string) (*promotion.Promotion, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT`+promotionColumns+`
          FROM promotions
         WHERE company_id = $1
           AND employee_id = $2
           AND status = $3
           AND id <> $4
           AND NOT is_deleted
         ORDER BY created_at ASC, id ASC
         LIMIT 1
    `, companyID, employeeID, string(promotion.StatusPending), excludeID)

	found, err := scanPromotion(row)
	if err != nil {
		return nil, translatePromotionPgError(err)
	}
	return found, nil
}

// ListDue は pending かつ適用日が dueOn 以前の昇格を作成順で返します。
func (r *PromotionRepository) ListDue(ctx context.Context, companyID string, dueOn time.Time) ([]*promotion.Promotion, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT`+promotionColumns+`
          FROM promotions
         WHERE company_id = $1
           AND status = $2
           AND promotion_date <= $3
           AND NOT is_deleted
         ORDER BY created_at ASC, id ASC
    `, companyID, string(promotion.StatusPending), dateValue(dueOn))
	if err != nil {
		return nil, translatePromotionPgError(err)
	}
	defer rows.Close()

	due := make([]*promotion.Promotion, 0)
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, translatePromotionPgError(err)
		}
		due = append(due, p)
	}

	if err := rows.Err(); err != nil {
		return nil, translatePromotionPgError(err)
	}

	return due, nil
}

// List は昇格レコードの一覧を取得します。
func (r *PromotionRepository) List(ctx context.Context, filter promotion.ListPromotionsFilter) ([]*promotion.Promotion, string, error) {
	if strings.TrimSpace(filter.CompanyID) == "" {
		return nil, "", promotion.ErrInvalidCompanyID
	}
	if filter.Limit <= 0 {
		return nil, "", promotion.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", promotion.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 5)
	conditions := make([]string, 0, 3)

	companyPlaceholder := "$" + strconv.Itoa(len(args)+1)
	conditions = append(conditions, "company_id = "+companyPlaceholder)
	args = append(args, filter.CompanyID)

	conditions = append(conditions, "NOT is_deleted")

	if strings.TrimSpace(filter.EmployeeID) != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "employee_id = "+placeholder)
		args = append(args, filter.EmployeeID)
	}

	if filter.Status != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "status = "+placeholder)
		args = append(args, string(*filter.Status))
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, limitWithBuffer)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	query := `
        SELECT` + promotionColumns + `
          FROM promotions` + whereClause + `
         ORDER BY created_at DESC, id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translatePromotionPgError(err)
	}
	defer rows.Close()

	promotions := make([]*promotion.Promotion, 0, filter.Limit)
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, "", translatePromotionPgError(err)
		}
		promotions = append(promotions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translatePromotionPgError(err)
	}

	var nextToken string
	if len(promotions) == limitWithBuffer {
		promotions = promotions[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return promotions, nextToken, nil
}

func scanPromotion(row pgx.Row) (*promotion.Promotion, error) {
	var (
		id            string
		companyID     string
		employeeID    string
		departmentID  string
		designationID string
		promotionDate time.Time
		promotionType string
		prevSalary    string
		newSalary     string
		increment     string
		incrementPct  string
		reason        string
		notes         string
		status        string
		appliedAt     sql.NullTime
		createdBy     string
		updatedBy     string
		isDeleted     bool
		createdAt     time.Time
		updatedAt     time.Time
	)

	if err := row.Scan(
		&id,
		&companyID,
		&employeeID,
		&departmentID,
		&designationID,
		&promotionDate,
		&promotionType,
		&prevSalary,
		&newSalary,
		&increment,
		&incrementPct,
		&reason,
		&notes,
		&status,
		&appliedAt,
		&createdBy,
		&updatedBy,
		&isDeleted,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promotion.ErrPromotionNotFound
		}
		return nil, err
	}

	salary, err := parseSalaryChange(prevSalary, newSalary, increment, incrementPct)
	if err != nil {
		return nil, err
	}

	var appliedPtr *time.Time
	if appliedAt.Valid {
		t := appliedAt.Time.UTC()
		appliedPtr = &t
	}

	return &promotion.Promotion{
		ID:         id,
		CompanyID:  companyID,
		EmployeeID: employeeID,
		To: promotion.Target{
			DepartmentID:  departmentID,
			DesignationID: designationID,
		},
		PromotionDate: dateValue(promotionDate.UTC()),
		PromotionType: promotionType,
		Salary:        salary,
		Reason:        reason,
		Notes:         notes,
		Status:        promotion.Status(status),
		AppliedAt:     appliedPtr,
		CreatedBy:     createdBy,
		UpdatedBy:     updatedBy,
		IsDeleted:     isDeleted,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func parseSalaryChange(prev, next, increment, pct string) (promotion.SalaryChange, error) {
	var change promotion.SalaryChange

	prevDec, err := decimal.NewFromString(prev)
	if err != nil {
		return change, err
	}
	nextDec, err := decimal.NewFromString(next)
	if err != nil {
		return change, err
	}
	incDec, err := decimal.NewFromString(increment)
	if err != nil {
		return change, err
	}
	pctDec, err := decimal.NewFromString(pct)
	if err != nil {
		return change, err
	}

	change.PreviousSalary = prevDec
	change.NewSalary = nextDec
	change.Increment = incDec
	change.IncrementPercentage = pctDec
	return change, nil
}

func translatePromotionPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return promotion.ErrPromotionNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			if pgErr.ConstraintName == singlePendingIndexName {
				return promotion.ErrPendingAlreadyExists
			}
			return err
		case foreignKeyViolationCode:
			switch pgErr.ConstraintName {
			case "promotions_employee_id_fkey":
				return promotion.ErrEmployeeNotFound
			case "promotions_to_department_id_fkey":
				return promotion.ErrDepartmentNotFound
			case "promotions_to_designation_id_fkey":
				return promotion.ErrDesignationNotFound
			default:
				return err
			}
		case checkViolationCode:
			return promotion.ErrInvalidStatus
		}
	}

	return err
}

func dateValue(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}
