package httpx

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	apperrors "github.com/jobscout/jobscout/internal/errors"
)

// WriteAppError maps a service error onto an HTTP response. Structured
// application errors carry their code in the body; everything else renders as
// an opaque 500 so repository internals never leak to clients.
func WriteAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal", Err: errors.New("internal server error")})
		return
	}

	status := statusForCode(appErr.Code)
	if appErr.Code == apperrors.ErrCodeRateLimited && appErr.RetryAfter > 0 {
		seconds := int(math.Ceil(appErr.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	WriteError(w, ErrorParams{Code: status, ErrCode: string(appErr.Code), Err: appErr})
}

func statusForCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict, apperrors.ErrCodeJobNotSaved:
		return http.StatusConflict
	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case apperrors.ErrCodeSourceUnavailable, apperrors.ErrCodeAllSourcesFailed:
		return http.StatusBadGateway
	case apperrors.ErrCodeSourceTimeout, apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
