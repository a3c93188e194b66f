package employee

import (
	"context"
	"time"
)

// Repository は社員永続化の抽象です。
// 社員コレクションは他サブシステムと共有されるため、昇格コアは参照と所属の書き換えのみを行います。
type Repository interface {
	FindByID(ctx context.Context, companyID, id string) (*Employee, error)
	// UpdateAssignment は昇格適用による所属変更を書き込み、更新後の社員を返します。
	UpdateAssignment(ctx context.Context, companyID, id string, change AssignmentChange) (*Employee, error)
}

// AssignmentChange は昇格適用で社員レコードへ反映する所属変更の内容です。
type AssignmentChange struct {
	DepartmentID  string
	Department    string
	DesignationID string
	Designation   string
	UpdatedAt     time.Time
}
