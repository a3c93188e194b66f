package promotion

import (
	"context"
	"errors"
)

// InFlightSource は昇格リポジトリをライフサイクル相互排他検査の検索元として公開します。
// pending の昇格が「進行中」とみなされます。
type InFlightSource struct {
	repo Repository
}

// NewInFlightSource は InFlightSource を生成します。
func NewInFlightSource(repo Repository) *InFlightSource {
	return &InFlightSource{repo: repo}
}

// FindInFlightByEmployee は excludeID 以外で pending の昇格の ID を返します。
// 該当がなければ空文字列を返します。
func (s *InFlightSource) FindInFlightByEmployee(ctx context.Context, companyID, employeeID, excludeID string) (string, error) {
	record, err := s.repo.FindPendingByEmployee(ctx, companyID, employeeID, excludeID)
	if err != nil {
		if errors.Is(err, ErrPromotionNotFound) {
			return "", nil
		}
		return "", err
	}
	return record.ID, nil
}
