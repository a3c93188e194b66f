package org

import "time"

// Department は部署のマスタ参照情報です。
type Department struct {
	ID        string
	CompanyID string
	Name      string
	CreatedAt time.Time
}

// Designation は役職のマスタ参照情報です。
type Designation struct {
	ID        string
	CompanyID string
	Name      string
	CreatedAt time.Time
}
