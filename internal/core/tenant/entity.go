package tenant

import "time"

// Tenant は1社分の契約主体を表します。全てのHRレコードは Tenant の ID で分離されます。
type Tenant struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
