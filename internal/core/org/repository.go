package org

import "context"

// Repository は部署・役職マスタの参照の抽象です。スキーマの管理は別サブシステムが担います。
type Repository interface {
	FindDepartmentByID(ctx context.Context, companyID, id string) (*Department, error)
	FindDesignationByID(ctx context.Context, companyID, id string) (*Designation, error)
}
