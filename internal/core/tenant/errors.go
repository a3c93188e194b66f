package tenant

import "errors"

var (
	ErrInvalidID      = errors.New("tenant: invalid id")
	ErrTenantNotFound = errors.New("tenant: not found")
)
