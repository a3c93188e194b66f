package promotion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/hr-promotion-core/internal/core/employee"
	"github.com/ogurasousui/hr-promotion-core/internal/core/org"
)

// Apply は昇格を社員レコードへ適用し、レコードを applied にします。
// 適用済みレコードへの呼び出しは何もせず成功を返します(冪等)。
// 社員側と昇格側の書き込みは同一トランザクション内で行われますが、
// 冪等性はトランザクションの有無に依存せず保たれるため、失敗したスイープの再試行は常に安全です。
func (s *Service) Apply(ctx context.Context, companyID, id string) (*Promotion, error) {
	return s.apply(ctx, companyID, id, false)
}

// apply は reapply が真の場合のみ適用済みレコードの短絡を行わず、
// 訂正された昇格先を社員レコードへ押し直します。
func (s *Service) apply(ctx context.Context, companyID, id string, reapply bool) (*Promotion, error) {
	companyID, err := normalizeCompanyID(companyID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var applied *Promotion
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		record, err := s.repo.FindByID(txCtx, companyID, id)
		if err != nil {
			return err
		}

		if record.Status == StatusCancelled {
			return ErrCancelled
		}

		if record.Status == StatusApplied && !reapply {
			applied = record
			return nil
		}

		// スケジューラと作成・更新経路が先に日付を絞り込むが、ここでも独立に再確認する。
		if !record.DueOn(s.clock.Now()) {
			return ErrNotYetDue
		}

		dept, err := s.orgs.FindDepartmentByID(txCtx, companyID, record.To.DepartmentID)
		if err != nil {
			if errors.Is(err, org.ErrDepartmentNotFound) {
				return fmt.Errorf("department %s: %w", record.To.DepartmentID, ErrDepartmentNotFound)
			}
			return err
		}

		desig, err := s.orgs.FindDesignationByID(txCtx, companyID, record.To.DesignationID)
		if err != nil {
			if errors.Is(err, org.ErrDesignationNotFound) {
				return fmt.Errorf("designation %s: %w", record.To.DesignationID, ErrDesignationNotFound)
			}
			return err
		}

		emp, err := s.findActiveEmployee(txCtx, companyID, record.EmployeeID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if _, err := s.employees.UpdateAssignment(txCtx, companyID, emp.ID, employee.AssignmentChange{
			DepartmentID:  dept.ID,
			Department:    dept.Name,
			DesignationID: desig.ID,
			Designation:   desig.Name,
			UpdatedAt:     now,
		}); err != nil {
			return err
		}

		record.Status = StatusApplied
		record.AppliedAt = &now
		record.UpdatedAt = now

		result, err := s.repo.Update(txCtx, record)
		if err != nil {
			return err
		}

		applied = result
		return nil
	}); err != nil {
		return nil, err
	}

	return applied, nil
}

// SweepResult は1テナント分のスイープの集計です。
type SweepResult struct {
	Applied int
	Failed  int
}

// SweepTenant は適用日を迎えた pending の昇格を順に適用します。
// 個々の失敗はログへ記録して続行し、集計のみを返します。エラーは返しません。
func (s *Service) SweepTenant(ctx context.Context, companyID string) SweepResult {
	var result SweepResult

	companyID, err := normalizeCompanyID(companyID)
	if err != nil {
		s.log.WithError(err).Error("promotion sweep skipped: company id is required")
		return result
	}

	due, err := s.repo.ListDue(ctx, companyID, s.clock.Now())
	if err != nil {
		s.log.WithError(err).WithField("company_id", companyID).Error("failed to list due promotions")
		return result
	}

	for _, record := range due {
		if _, err := s.Apply(ctx, companyID, record.ID); err != nil {
			result.Failed++
			s.log.WithError(err).WithFields(logrus.Fields{
				"company_id":   companyID,
				"promotion_id": record.ID,
				"employee_id":  record.EmployeeID,
			}).Warn("failed to apply due promotion")
			continue
		}
		result.Applied++
	}

	return result
}
