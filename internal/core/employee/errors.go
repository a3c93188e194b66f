package employee

import "errors"

var (
	ErrInvalidID        = errors.New("employee: invalid id")
	ErrInvalidCompanyID = errors.New("employee: invalid company id")
	ErrEmployeeNotFound = errors.New("employee: not found")
)
