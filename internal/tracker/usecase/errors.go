package usecase

import (
	"errors"
	"net/http"

	"github.com/blankon/sitetrack/internal/tracker/entity"
)

type UsecaseError struct {
	Code    int
	Message string
}

func (e UsecaseError) Error() string {
	return e.Message
}

// ErrExportDisabled is returned by the async export calls when no queue is configured.
var ErrExportDisabled = UsecaseError{Code: http.StatusServiceUnavailable, Message: "async export is not configured"}

// StatusCode maps an error from this package to an HTTP status.
func StatusCode(err error) int {
	var useErr UsecaseError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &useErr):
		return useErr.Code
	case errors.Is(err, entity.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrNotAuthorized):
		return http.StatusUnauthorized
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrUpload):
		return http.StatusBadGateway
	case errors.Is(err, entity.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
