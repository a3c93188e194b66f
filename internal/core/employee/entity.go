package employee

import "time"

// Status は社員の在籍状態を表します。退職・解雇・昇格の各サブシステムで共有されます。
type Status string

const (
	StatusActive     Status = "active"
	StatusOnNotice   Status = "on_notice"
	StatusResigned   Status = "resigned"
	StatusTerminated Status = "terminated"
)

// Employee は社員エンティティです。
// 部署・役職の ID と表示名は昇格の適用によって書き換えられます。
type Employee struct {
	ID            string
	CompanyID     string
	EmployeeCode  string
	Name          string
	DepartmentID  string
	Department    string
	DesignationID string
	Designation   string
	Status        Status
	JoinedAt      *time.Time
	IsDeleted     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
