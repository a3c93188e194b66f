package promotion

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/hr-promotion-core/internal/core/employee"
	"github.com/ogurasousui/hr-promotion-core/internal/core/lifecycle"
	"github.com/ogurasousui/hr-promotion-core/internal/core/org"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// ConflictChecker はライフサイクルレコードの相互排他検査の抽象です。
type ConflictChecker interface {
	Check(ctx context.Context, companyID, employeeID string, action lifecycle.Action, excludeID string) (*lifecycle.Conflict, error)
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// Service は昇格レコードに関するユースケースをまとめます。
type Service struct {
	repo      Repository
	employees employee.Repository
	orgs      org.Repository
	checker   ConflictChecker
	clock     Clock
	tx        TransactionManager
	log       logrus.FieldLogger
}

// UseCase は昇格ユースケースの公開インターフェースです。
type UseCase interface {
	CreatePromotion(ctx context.Context, in CreatePromotionInput) (*Promotion, error)
	UpdatePromotion(ctx context.Context, in UpdatePromotionInput) (*Promotion, error)
	CancelPromotion(ctx context.Context, in CancelPromotionInput) (*Promotion, error)
	DeletePromotion(ctx context.Context, in DeletePromotionInput) error
	GetPromotion(ctx context.Context, in GetPromotionInput) (*Promotion, error)
	ListPromotions(ctx context.Context, in ListPromotionsInput) (*ListPromotionsResult, error)
	Apply(ctx context.Context, companyID, id string) (*Promotion, error)
	SweepTenant(ctx context.Context, companyID string) SweepResult
}

// NewService は Service を生成します。
func NewService(repo Repository, employees employee.Repository, orgs org.Repository, checker ConflictChecker, clock Clock, tx TransactionManager, log logrus.FieldLogger) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		repo:      repo,
		employees: employees,
		orgs:      orgs,
		checker:   checker,
		clock:     clock,
		tx:        tx,
		log:       log,
	}
}

// CreatePromotionInput は昇格作成時の入力です。
type CreatePromotionInput struct {
	CompanyID       string
	EmployeeID      string
	ToDepartmentID  string
	ToDesignationID string
	PromotionDate   time.Time
	PromotionType   string
	PreviousSalary  decimal.Decimal
	NewSalary       decimal.Decimal
	Reason          string
	Notes           string
	CreatedBy       string
}

// UpdatePromotionInput は昇格更新時の入力です。nil のフィールドは変更されません。
type UpdatePromotionInput struct {
	CompanyID       string
	ID              string
	ToDepartmentID  *string
	ToDesignationID *string
	PromotionDate   *time.Time
	PromotionType   *string
	PreviousSalary  *decimal.Decimal
	NewSalary       *decimal.Decimal
	Reason          *string
	Notes           *string
	UpdatedBy       string
}

// CancelPromotionInput は昇格取り消し時の入力です。
type CancelPromotionInput struct {
	CompanyID   string
	ID          string
	CancelledBy string
}

// DeletePromotionInput は昇格削除時の入力です。
type DeletePromotionInput struct {
	CompanyID string
	ID        string
	DeletedBy string
}

// GetPromotionInput は昇格取得時の入力です。
type GetPromotionInput struct {
	CompanyID string
	ID        string
}

// ListPromotionsInput は一覧取得時の入力です。
type ListPromotionsInput struct {
	CompanyID  string
	EmployeeID string
	Status     *Status
	PageSize   int
	PageToken  string
}

// ListPromotionsResult は一覧取得結果を表します。
type ListPromotionsResult struct {
	Promotions    []*Promotion
	NextPageToken string
}

// CreatePromotion は新しい昇格レコードを pending 状態で作成します。
// 適用日が当日以前の場合はその場で適用を試みます。適用の失敗は作成の失敗にはならず、
// レコードは pending のまま残り、次回のスイープで再試行されます。
func (s *Service) CreatePromotion(ctx context.Context, in CreatePromotionInput) (*Promotion, error) {
	companyID, err := normalizeCompanyID(in.CompanyID)
	if err != nil {
		return nil, err
	}

	employeeID, err := normalizeEmployeeID(in.EmployeeID)
	if err != nil {
		return nil, err
	}

	target, err := normalizeTarget(in.ToDepartmentID, in.ToDesignationID)
	if err != nil {
		return nil, err
	}

	date, err := normalizePromotionDate(in.PromotionDate)
	if err != nil {
		return nil, err
	}

	var created *Promotion
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.findActiveEmployee(txCtx, companyID, employeeID)
		if err != nil {
			return err
		}

		// 昇格先の役職は、キャッシュではなく社員レコードの現在値と比較する。
		if emp.DesignationID == target.DesignationID {
			return ErrSameDesignation
		}

		if err := s.ensureNoLifecycleConflict(txCtx, companyID, employeeID, ""); err != nil {
			return err
		}

		if err := validateAgainstJoiningDate(date, emp.JoinedAt); err != nil {
			return err
		}

		now := s.clock.Now()
		record := &Promotion{
			CompanyID:     companyID,
			EmployeeID:    employeeID,
			To:            target,
			PromotionDate: date,
			PromotionType: strings.TrimSpace(in.PromotionType),
			Salary:        buildSalaryChange(in.PreviousSalary, in.NewSalary),
			Reason:        strings.TrimSpace(in.Reason),
			Notes:         strings.TrimSpace(in.Notes),
			Status:        StatusPending,
			CreatedBy:     strings.TrimSpace(in.CreatedBy),
			UpdatedBy:     strings.TrimSpace(in.CreatedBy),
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		result, err := s.repo.Create(txCtx, record)
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	if created.DueOn(s.clock.Now()) {
		applied, err := s.Apply(ctx, companyID, created.ID)
		if err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"company_id":   companyID,
				"promotion_id": created.ID,
			}).Warn("immediate promotion apply failed, record remains pending")
			return created, nil
		}
		return applied, nil
	}

	return created, nil
}

// UpdatePromotion は既存の昇格レコードへ指定されたフィールドをマージします。
// 適用日または昇格先が変わる場合のみ再検証を行い、保存後に状態を整合させます:
// 適用済みレコードの適用日が未来日になった場合は pending へ差し戻し、
// pending レコードが適用日を迎えた場合はその場で適用し、
// 適用済みレコードの昇格先が変わった場合は社員レコードへ再適用します。
func (s *Service) UpdatePromotion(ctx context.Context, in UpdatePromotionInput) (*Promotion, error) {
	companyID, err := normalizeCompanyID(in.CompanyID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var (
		updated       *Promotion
		wasApplied    bool
		targetChanged bool
	)

	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, companyID, in.ID)
		if err != nil {
			return err
		}

		if existing.Status == StatusCancelled {
			return ErrCancelled
		}

		wasApplied = existing.Status == StatusApplied
		dateChanged := false

		if in.PromotionDate != nil {
			date, err := normalizePromotionDate(*in.PromotionDate)
			if err != nil {
				return err
			}
			if !date.Equal(existing.PromotionDate) {
				existing.PromotionDate = date
				dateChanged = true
			}
		}

		if in.ToDepartmentID != nil {
			id := strings.TrimSpace(*in.ToDepartmentID)
			if id == "" {
				return ErrInvalidTarget
			}
			if id != existing.To.DepartmentID {
				existing.To.DepartmentID = id
				targetChanged = true
			}
		}

		designationChanged := false
		if in.ToDesignationID != nil {
			id := strings.TrimSpace(*in.ToDesignationID)
			if id == "" {
				return ErrInvalidTarget
			}
			if id != existing.To.DesignationID {
				existing.To.DesignationID = id
				targetChanged = true
				designationChanged = true
			}
		}

		if in.PromotionType != nil {
			existing.PromotionType = strings.TrimSpace(*in.PromotionType)
		}
		if in.Reason != nil {
			existing.Reason = strings.TrimSpace(*in.Reason)
		}
		if in.Notes != nil {
			existing.Notes = strings.TrimSpace(*in.Notes)
		}
		if in.PreviousSalary != nil || in.NewSalary != nil {
			prev := existing.Salary.PreviousSalary
			next := existing.Salary.NewSalary
			if in.PreviousSalary != nil {
				prev = *in.PreviousSalary
			}
			if in.NewSalary != nil {
				next = *in.NewSalary
			}
			existing.Salary = buildSalaryChange(prev, next)
		}

		if dateChanged || designationChanged {
			emp, err := s.findActiveEmployee(txCtx, companyID, existing.EmployeeID)
			if err != nil {
				return err
			}
			// 適用済みレコードの日付のみの編集では社員が既に昇格先の役職を持っているため、
			// 役職の同一性検査は昇格先が変わった場合に限る。
			if designationChanged && emp.DesignationID == existing.To.DesignationID {
				return ErrSameDesignation
			}
			if err := s.ensureNoLifecycleConflict(txCtx, companyID, existing.EmployeeID, existing.ID); err != nil {
				return err
			}
			if err := validateAgainstJoiningDate(existing.PromotionDate, emp.JoinedAt); err != nil {
				return err
			}
		}

		// 適用済みレコードの適用日が未来日へ動いた場合は pending へ差し戻す。
		if wasApplied && !existing.DueOn(s.clock.Now()) {
			existing.Status = StatusPending
			existing.AppliedAt = nil
		}

		existing.UpdatedBy = strings.TrimSpace(in.UpdatedBy)
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	switch {
	case updated.Status == StatusPending && updated.DueOn(s.clock.Now()):
		applied, err := s.Apply(ctx, companyID, updated.ID)
		if err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"company_id":   companyID,
				"promotion_id": updated.ID,
			}).Warn("promotion apply after update failed, record remains pending")
			return updated, nil
		}
		return applied, nil
	case wasApplied && updated.Status == StatusApplied && targetChanged:
		// 昇格先の訂正を社員レコードへ押し直す。
		reapplied, err := s.apply(ctx, companyID, updated.ID, true)
		if err != nil {
			return nil, err
		}
		return reapplied, nil
	default:
		return updated, nil
	}
}

// CancelPromotion は pending の昇格を取り消します。cancelled は終端状態です。
func (s *Service) CancelPromotion(ctx context.Context, in CancelPromotionInput) (*Promotion, error) {
	companyID, err := normalizeCompanyID(in.CompanyID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var cancelled *Promotion
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, companyID, in.ID)
		if err != nil {
			return err
		}

		if !CanTransition(existing.Status, StatusCancelled) {
			return ErrNotPending
		}

		existing.Status = StatusCancelled
		existing.UpdatedBy = strings.TrimSpace(in.CancelledBy)
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		cancelled = result
		return nil
	}); err != nil {
		return nil, err
	}

	return cancelled, nil
}

// DeletePromotion は昇格レコードを論理削除します。
// 適用済みの昇格を削除しても社員レコードの所属は巻き戻しません。適用済みの昇格は履歴として不変です。
func (s *Service) DeletePromotion(ctx context.Context, in DeletePromotionInput) error {
	companyID, err := normalizeCompanyID(in.CompanyID)
	if err != nil {
		return err
	}

	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByID(txCtx, companyID, in.ID); err != nil {
			return err
		}
		return s.repo.SoftDelete(txCtx, companyID, in.ID, strings.TrimSpace(in.DeletedBy), s.clock.Now())
	})
}

// GetPromotion は昇格レコードを取得します。
func (s *Service) GetPromotion(ctx context.Context, in GetPromotionInput) (*Promotion, error) {
	companyID, err := normalizeCompanyID(in.CompanyID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Promotion
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, companyID, in.ID)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListPromotions は昇格レコードの一覧を取得します。
func (s *Service) ListPromotions(ctx context.Context, in ListPromotionsInput) (*ListPromotionsResult, error) {
	companyID, err := normalizeCompanyID(in.CompanyID)
	if err != nil {
		return nil, err
	}

	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var statusPtr *Status
	if in.Status != nil {
		if !IsValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		status := *in.Status
		statusPtr = &status
	}

	var (
		promotions []*Promotion
		nextToken  string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, token, err := s.repo.List(txCtx, ListPromotionsFilter{
			CompanyID:  companyID,
			EmployeeID: strings.TrimSpace(in.EmployeeID),
			Status:     statusPtr,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return err
		}
		promotions = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListPromotionsResult{Promotions: promotions, NextPageToken: nextToken}, nil
}

func (s *Service) findActiveEmployee(ctx context.Context, companyID, employeeID string) (*employee.Employee, error) {
	emp, err := s.employees.FindByID(ctx, companyID, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	if emp.IsDeleted {
		return nil, ErrEmployeeNotFound
	}
	return emp, nil
}

func (s *Service) ensureNoLifecycleConflict(ctx context.Context, companyID, employeeID, excludeID string) error {
	conflict, err := s.checker.Check(ctx, companyID, employeeID, lifecycle.ActionPromotion, excludeID)
	if err != nil {
		return err
	}
	if conflict == nil {
		return nil
	}
	if conflict.Action == lifecycle.ActionPromotion {
		return fmt.Errorf("record %s: %w", conflict.RecordID, ErrPendingAlreadyExists)
	}
	return fmt.Errorf("%s record %s: %w", conflict.Action, conflict.RecordID, ErrLifecycleConflict)
}

func normalizeCompanyID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidCompanyID
	}
	return trimmed, nil
}

func normalizeEmployeeID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmployeeID
	}
	return trimmed, nil
}

func normalizeTarget(departmentID, designationID string) (Target, error) {
	target := Target{
		DepartmentID:  strings.TrimSpace(departmentID),
		DesignationID: strings.TrimSpace(designationID),
	}
	if target.DepartmentID == "" || target.DesignationID == "" {
		return Target{}, ErrInvalidTarget
	}
	return target, nil
}

func normalizePromotionDate(raw time.Time) (time.Time, error) {
	if raw.IsZero() {
		return time.Time{}, ErrInvalidDate
	}
	return dateOnly(raw), nil
}

func validateAgainstJoiningDate(date time.Time, joinedAt *time.Time) error {
	if joinedAt == nil {
		return nil
	}
	if date.Before(dateOnly(*joinedAt)) {
		return ErrDateBeforeJoining
	}
	return nil
}

func buildSalaryChange(previous, next decimal.Decimal) SalaryChange {
	change := SalaryChange{
		PreviousSalary: previous,
		NewSalary:      next,
		Increment:      next.Sub(previous),
	}
	if previous.IsPositive() {
		change.IncrementPercentage = change.Increment.Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return change
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
