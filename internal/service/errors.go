package service

import (
	"errors"

	"github.com/commonapp/common-backend/internal/pkg/apperror"
	"github.com/commonapp/common-backend/internal/repository"
)

// mapStorageErr translates repository sentinels into coded app errors
// at the service boundary. Anything else passes through unchanged.
func mapStorageErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrPostNotFound):
		return apperror.ErrPostNotFound
	case errors.Is(err, repository.ErrThreadNotFound):
		return apperror.ErrThreadNotFound
	case errors.Is(err, repository.ErrReportNotFound):
		return apperror.ErrReportNotFound
	case errors.Is(err, repository.ErrUserNotFound):
		return apperror.ErrUserNotFound
	case errors.Is(err, repository.ErrNotificationNotFound):
		return apperror.ErrNotificationNotFound
	default:
		return err
	}
}
