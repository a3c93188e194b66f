package promotion

import (
	"context"
	"time"
)

// Repository は昇格レコード永続化の抽象です。
// すべての操作はテナント(companyID)単位にスコープされ、論理削除済みレコードは対象外です。
type Repository interface {
	Create(ctx context.Context, p *Promotion) (*Promotion, error)
	Update(ctx context.Context, p *Promotion) (*Promotion, error)
	// SoftDelete は is_deleted フラグを立てます。物理削除は行いません。
	SoftDelete(ctx context.Context, companyID, id, deletedBy string, at time.Time) error
	FindByID(ctx context.Context, companyID, id string) (*Promotion, error)
	// FindPendingByEmployee は excludeID 以外で pending の昇格を返します。該当がなければ ErrPromotionNotFound を返します。
	FindPendingByEmployee(ctx context.Context, companyID, employeeID, excludeID string) (*Promotion, error)
	// ListDue は pending かつ適用日が dueOn(日付単位)以前の昇格を作成順で返します。
	ListDue(ctx context.Context, companyID string, dueOn time.Time) ([]*Promotion, error)
	List(ctx context.Context, filter ListPromotionsFilter) ([]*Promotion, string, error)
}

// ListPromotionsFilter は一覧取得用フィルタです。
type ListPromotionsFilter struct {
	CompanyID  string
	EmployeeID string
	Status     *Status
	Limit      int
	Offset     int
}
