package lifecycle

import (
	"context"
	"fmt"
	"strings"
)

// Action は社員のライフサイクルを変更する操作種別です。
type Action string

const (
	ActionPromotion   Action = "promotion"
	ActionResignation Action = "resignation"
	ActionTermination Action = "termination"
)

// checkOrder は検査の巡回順を固定し、結果を決定的にします。
var checkOrder = []Action{ActionPromotion, ActionResignation, ActionTermination}

// Conflict は競合として見つかった進行中レコードを表します。
type Conflict struct {
	Action   Action
	RecordID string
}

// InFlightSource は1種類のライフサイクルレコードについて、
// 終端状態に達していないレコードの検索を抽象化します。
type InFlightSource interface {
	// FindInFlightByEmployee は excludeID 以外で進行中のレコードの ID を返します。
	// 該当がなければ空文字列を返します。
	FindInFlightByEmployee(ctx context.Context, companyID, employeeID, excludeID string) (string, error)
}

// Validator は昇格・退職・解雇の相互排他を検査します。
// ある社員に対して進行中のライフサイクルレコードは高々1件しか存在できません。
type Validator struct {
	sources map[Action]InFlightSource
}

// NewValidator は Validator を生成します。
func NewValidator(promotions, resignations, terminations InFlightSource) *Validator {
	return &Validator{sources: map[Action]InFlightSource{
		ActionPromotion:   promotions,
		ActionResignation: resignations,
		ActionTermination: terminations,
	}}
}

// Check は employeeID に対して action を新たに開始できるか検査します。
// 別種の進行中レコード、または昇格同士の重複が見つかった場合に Conflict を返します。
// excludeID は更新操作が自分自身のレコードを競合から除外するために使います。
// 副作用はありません。
func (v *Validator) Check(ctx context.Context, companyID, employeeID string, action Action, excludeID string) (*Conflict, error) {
	if strings.TrimSpace(companyID) == "" || strings.TrimSpace(employeeID) == "" {
		return nil, fmt.Errorf("lifecycle: company id and employee id are required")
	}

	for _, a := range checkOrder {
		src := v.sources[a]
		if src == nil {
			continue
		}

		// 同種レコードの重複検査は昇格のみが対象。退職・解雇の重複は各サービス側で検査される。
		if a == action && a != ActionPromotion {
			continue
		}

		exclude := ""
		if a == action {
			exclude = excludeID
		}

		id, err := src.FindInFlightByEmployee(ctx, companyID, employeeID, exclude)
		if err != nil {
			return nil, fmt.Errorf("lifecycle: scan %s records: %w", a, err)
		}
		if id != "" {
			return &Conflict{Action: a, RecordID: id}, nil
		}
	}

	return nil, nil
}
