package promotion

import "errors"

var (
	ErrInvalidID            = errors.New("promotion: invalid id")
	ErrInvalidCompanyID     = errors.New("promotion: invalid company id")
	ErrInvalidEmployeeID    = errors.New("promotion: invalid employee id")
	ErrInvalidTarget        = errors.New("promotion: target department and designation are required")
	ErrInvalidDate          = errors.New("promotion: invalid promotion date")
	ErrInvalidStatus        = errors.New("promotion: invalid status")
	ErrInvalidPageSize      = errors.New("promotion: invalid page size")
	ErrInvalidPageToken     = errors.New("promotion: invalid page token")
	ErrSameDesignation      = errors.New("promotion: target designation equals the employee's current designation")
	ErrDateBeforeJoining    = errors.New("promotion: promotion date is before the employee's joining date")
	ErrPromotionNotFound    = errors.New("promotion: not found")
	ErrEmployeeNotFound     = errors.New("promotion: employee not found")
	ErrDepartmentNotFound   = errors.New("promotion: target department not found")
	ErrDesignationNotFound  = errors.New("promotion: target designation not found")
	ErrLifecycleConflict    = errors.New("promotion: employee has another lifecycle record in flight")
	ErrPendingAlreadyExists = errors.New("promotion: a pending promotion already exists for the employee")
	ErrCancelled            = errors.New("promotion: promotion is cancelled")
	ErrNotPending           = errors.New("promotion: only a pending promotion can be cancelled")
	ErrNotYetDue            = errors.New("promotion: promotion date not yet reached")
)

// Kind は呼び出し側(コントローラ層)がレスポンスへ変換するためのエラー分類です。
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

// KindOf は err を Kind に分類します。未知のエラーは KindInternal になります。
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrInvalidCompanyID),
		errors.Is(err, ErrInvalidEmployeeID),
		errors.Is(err, ErrInvalidTarget),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidPageSize),
		errors.Is(err, ErrInvalidPageToken),
		errors.Is(err, ErrSameDesignation),
		errors.Is(err, ErrDateBeforeJoining),
		errors.Is(err, ErrCancelled),
		errors.Is(err, ErrNotPending),
		errors.Is(err, ErrNotYetDue):
		return KindValidation
	case errors.Is(err, ErrPromotionNotFound),
		errors.Is(err, ErrEmployeeNotFound),
		errors.Is(err, ErrDepartmentNotFound),
		errors.Is(err, ErrDesignationNotFound):
		return KindNotFound
	case errors.Is(err, ErrLifecycleConflict),
		errors.Is(err, ErrPendingAlreadyExists):
		return KindConflict
	default:
		return KindInternal
	}
}
