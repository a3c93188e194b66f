package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/hr-promotion-core/internal/core/promotion"
)

type stubRow struct {
	scanFn func(dest ...interface{}) error
}

func (s stubRow) Scan(dest ...interface{}) error {
	return s.scanFn(dest...)
}

func TestScanPromotion_Success(t *testing.T) {
	t.Parallel()

	promotionDate := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	appliedAt := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	createdAt := time.Now().UTC()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		if len(dest) != 20 {
			return errors.New("unexpected dest length")
		}
		*(dest[0].(*string)) = "promo-1"
		*(dest[1].(*string)) = "company-1"
		*(dest[2].(*string)) = "emp-1"
		*(dest[3].(*string)) = "dept-2"
		*(dest[4].(*string)) = "desig-2"
		*(dest[5].(*time.Time)) = promotionDate
		*(dest[6].(*string)) = "regular"
		*(dest[7].(*string)) = "1000"
		*(dest[8].(*string)) = "1200"
		*(dest[9].(*string)) = "200"
		*(dest[10].(*string)) = "20"
		*(dest[11].(*string)) = "annual review"
		*(dest[12].(*string)) = ""
		*(dest[13].(*string)) = string(promotion.StatusApplied)

		appliedDest := dest[14].(*sql.NullTime)
		appliedDest.Time = appliedAt
		appliedDest.Valid = true

		*(dest[15].(*string)) = "user-1"
		*(dest[16].(*string)) = "user-1"
		*(dest[17].(*bool)) = false
		*(dest[18].(*time.Time)) = createdAt
		*(dest[19].(*time.Time)) = createdAt
		return nil
	}}

	p, err := scanPromotion(row)
	if err != nil {
		t.Fatalf("scanPromotion returned error: %v", err)
	}

	if p.ID != "promo-1" || p.To.DesignationID != "desig-2" {
		t.Fatalf("unexpected promotion: %+v", p)
	}
	if !p.PromotionDate.Equal(promotionDate) {
		t.Fatalf("expected promotion date %v, got %v", promotionDate, p.PromotionDate)
	}
	if p.Salary.Increment.String() != "200" {
		t.Fatalf("expected increment 200, got %s", p.Salary.Increment)
	}
	if p.Salary.IncrementPercentage.String() != "20" {
		t.Fatalf("expected increment percentage 20, got %s", p.Salary.IncrementPercentage)
	}
	if p.AppliedAt == nil || !p.AppliedAt.Equal(appliedAt) {
		t.Fatalf("expected applied at, got %+v", p.AppliedAt)
	}
}

func TestScanPromotion_NoRows(t *testing.T) {
	t.Parallel()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		return pgx.ErrNoRows
	}}

	_, err := scanPromotion(row)
	if !errors.Is(err, promotion.ErrPromotionNotFound) {
		t.Fatalf("expected ErrPromotionNotFound, got %v", err)
	}
}

func TestTranslatePromotionPgError(t *testing.T) {
	t.Parallel()

	pendingErr := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: singlePendingIndexName}
	if !errors.Is(translatePromotionPgError(pendingErr), promotion.ErrPendingAlreadyExists) {
		t.Fatalf("expected single pending violation to map to ErrPendingAlreadyExists")
	}

	otherUnique := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "promotions_pkey"}
	if errors.Is(translatePromotionPgError(otherUnique), promotion.ErrPendingAlreadyExists) {
		t.Fatalf("unexpected mapping for unrelated unique violation")
	}

	empFk := &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "promotions_employee_id_fkey"}
	if !errors.Is(translatePromotionPgError(empFk), promotion.ErrEmployeeNotFound) {
		t.Fatalf("expected employee fk violation to map to ErrEmployeeNotFound")
	}

	desigFk := &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "promotions_to_designation_id_fkey"}
	if !errors.Is(translatePromotionPgError(desigFk), promotion.ErrDesignationNotFound) {
		t.Fatalf("expected designation fk violation to map to ErrDesignationNotFound")
	}

	if !errors.Is(translatePromotionPgError(pgx.ErrNoRows), promotion.ErrPromotionNotFound) {
		t.Fatalf("expected no rows to map to ErrPromotionNotFound")
	}

	other := errors.New("other")
	if translatePromotionPgError(other) != other {
		t.Fatalf("unexpected translation for generic error")
	}
}

func promotionMockColumns() []string {
	return []string{
		"id", "company_id", "employee_id", "to_department_id", "to_designation_id",
		"promotion_date", "promotion_type",
		"previous_salary", "new_salary", "increment", "increment_percentage",
		"reason", "notes", "status", "applied_at", "created_by", "updated_by",
		"is_deleted", "created_at", "updated_at",
	}
}

func addPromotionRow(rows *pgxmock.Rows, id, status string, date, createdAt time.Time) *pgxmock.Rows {
	return rows.AddRow(
		id, "company-1", "emp-1", "dept-2", "desig-2",
		date, "regular",
		"1000", "1200", "200", "20",
		"annual review", "", status, nil, "user-1", "user-1",
		false, createdAt, createdAt,
	)
}

func TestPromotionRepository_List_WithFilters(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPromotionRepository(mock)
	status := promotion.StatusPending

	query := regexp.QuoteMeta(`FROM promotions WHERE company_id = $1 AND NOT is_deleted AND status = $2`)

	now := time.Now().UTC()
	date := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(promotionMockColumns())
	rows = addPromotionRow(rows, "promo-1", string(promotion.StatusPending), date, now)
	rows = addPromotionRow(rows, "promo-2", string(promotion.StatusPending), date, now)
	rows = addPromotionRow(rows, "promo-3", string(promotion.StatusPending), date, now)

	mock.ExpectQuery(query).
		WithArgs("company-1", string(status), 3, 0).
		WillReturnRows(rows)

	promotions, nextToken, err := repo.List(context.Background(), promotion.ListPromotionsFilter{
		CompanyID: "company-1",
		Status:    &status,
		Limit:     2,
		Offset:    0,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if len(promotions) != 2 {
		t.Fatalf("expected 2 promotions, got %d", len(promotions))
	}
	if nextToken != "2" {
		t.Fatalf("expected next token '2', got %s", nextToken)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPromotionRepository_ListDue(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPromotionRepository(mock)

	query := regexp.QuoteMeta(`AND promotion_date <= $3`)

	now := time.Now().UTC()
	dueOn := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(promotionMockColumns())
	rows = addPromotionRow(rows, "promo-1", string(promotion.StatusPending), dueOn.AddDate(0, 0, -1), now)

	mock.ExpectQuery(query).
		WithArgs("company-1", string(promotion.StatusPending), dueOn).
		WillReturnRows(rows)

	due, err := repo.ListDue(context.Background(), "company-1", dueOn)
	if err != nil {
		t.Fatalf("ListDue returned error: %v", err)
	}

	if len(due) != 1 || due[0].ID != "promo-1" {
		t.Fatalf("unexpected due promotions: %+v", due)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPromotionRepository_SoftDelete_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPromotionRepository(mock)

	query := regexp.QuoteMeta(`SET is_deleted = TRUE`)
	mock.ExpectExec(query).
		WithArgs("user-1", pgxmock.AnyArg(), "company-1", "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.SoftDelete(context.Background(), "company-1", "missing", "user-1", time.Now().UTC())
	if !errors.Is(err, promotion.ErrPromotionNotFound) {
		t.Fatalf("expected ErrPromotionNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
