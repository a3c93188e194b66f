package promotion

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status は昇格レコードの状態を表します。
type Status string

const (
	StatusPending   Status = "pending"
	StatusApplied   Status = "applied"
	StatusCancelled Status = "cancelled"
)

// validTransitions は許可された状態遷移の一覧です。
// applied → pending は適用日を未来日へ編集した場合の差し戻しにのみ使われます。
// cancelled は終端状態で、出ていく遷移はありません。
var validTransitions = map[Status][]Status{
	StatusPending: {StatusApplied, StatusCancelled},
	StatusApplied: {StatusPending},
}

// CanTransition は from から to への状態遷移が許可されているかを返します。
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsValidStatus は既知の状態値かどうかを返します。
func IsValidStatus(status Status) bool {
	switch status {
	case StatusPending, StatusApplied, StatusCancelled:
		return true
	default:
		return false
	}
}

// Target は昇格先の部署・役職の参照です。
// 昇格元は保存せず、検証時に社員レコードから都度読み取ります。
type Target struct {
	DepartmentID  string
	DesignationID string
}

// SalaryChange は昇格に伴う給与変更を表します。
type SalaryChange struct {
	PreviousSalary      decimal.Decimal
	NewSalary           decimal.Decimal
	Increment           decimal.Decimal
	IncrementPercentage decimal.Decimal
}

// Promotion は昇格レコードです。テナント(CompanyID)単位で分離されます。
type Promotion struct {
	ID            string
	CompanyID     string
	EmployeeID    string
	To            Target
	PromotionDate time.Time
	PromotionType string
	Salary        SalaryChange
	Reason        string
	Notes         string
	Status        Status
	AppliedAt     *time.Time
	CreatedBy     string
	UpdatedBy     string
	IsDeleted     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DueOn は now の時点で適用日を迎えているかを返します。比較は日付単位で、時刻は無視します。
func (p *Promotion) DueOn(now time.Time) bool {
	return !dateOnly(p.PromotionDate).After(dateOnly(now))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
