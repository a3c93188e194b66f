package org

import "errors"

var (
	ErrInvalidID           = errors.New("org: invalid id")
	ErrDepartmentNotFound  = errors.New("org: department not found")
	ErrDesignationNotFound = errors.New("org: designation not found")
)
