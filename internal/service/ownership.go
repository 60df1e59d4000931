package service

import "github.com/Dan9191/finance-service/internal/apperrors"

type owned interface {
	comparable
	OwnerID() string
}

// authorize returns record when it exists and belongs to userID. An absent
// record is NotFound; another user's record is Forbidden.
func authorize[R owned](record R, userID, kind string) (R, error) {
	var zero R
	if record == zero {
		return zero, apperrors.New(apperrors.ErrNotFound, "%s not found", kind)
	}
	if record.OwnerID() != userID {
		return zero, apperrors.New(apperrors.ErrForbidden, "no permission to access this %s", kind)
	}
	return record, nil
}
