package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument   = 1000
	ErrCodeInvalidJSON       = 1001
	ErrCodeRequestTooLarge   = 1002
	ErrCodeInvalidQuery      = 1003
	ErrCodeInvalidID         = 1004
	ErrCodeInvalidStatus     = 1005
	ErrCodeInvalidPriority   = 1007
	ErrCodeMissingRequired   = 1009
	ErrCodeInvalidDate       = 1010
	ErrCodeInvalidDependency = 1012
	ErrCodeInvalidParentID   = 1013
	ErrCodeInvalidVerdict    = 1015
	ErrCodeInvalidProgress   = 1016

	// Domain state (2xxx)
	ErrCodeTaskNotFound      = 2001
	ErrCodeInvalidTransition = 2010
	ErrCodeOpenSubtasks      = 2011
	ErrCodeDependencyCycle   = 2012
	ErrCodeHierarchyDepth    = 2013
	ErrCodeCorruptData       = 2020
	ErrCodeConflict          = 2102

	// Limits (3xxx)
	ErrCodeResourceExhausted = 3003

	// Internal/system (4xxx)
	ErrCodeInternal     = 4001
	ErrCodeStoreFailure = 4002
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 404:
		return ErrCodeTaskNotFound
	case 409:
		return ErrCodeConflict
	case 422:
		return ErrCodeCorruptData
	case 429:
		return ErrCodeResourceExhausted
	case 500:
		return ErrCodeInternal
	default:
		return 0
	}
}
