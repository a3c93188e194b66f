package tenant

import "context"

// Repository はテナントディレクトリへの読み取りアクセスの抽象です。
// ディレクトリ自体の管理は別サブシステムが担い、このコアは参照のみを行います。
type Repository interface {
	FindByID(ctx context.Context, id string) (*Tenant, error)
	// ListActive は isActive なテナントを返します。0件の場合は空スライスを返します。
	ListActive(ctx context.Context) ([]*Tenant, error)
}
