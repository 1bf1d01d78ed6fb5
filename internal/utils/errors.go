package utils

import "net/http"

type AppError struct {
	Code    string
	Message string
	Origin  error // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

// Standard error codes for the client engine
const (
	// The user action was attempted without a signed-in session. Raised
	// before any network call is made.
	ErrUnauthenticated = "UNAUTHENTICATED"

	// A backend request threw or returned a non-2xx status.
	ErrNetworkFailure = "NETWORK_FAILURE"

	// Local validation rejected the action (e.g. a thread draft without a
	// mandatory tag). No request is issued.
	ErrValidationFailure = "VALIDATION_FAILURE"

	// The favorite/follow/thread target was absent where it was expected
	// present. Treated as a no-op by mutation paths, not a hard error.
	ErrNotFound = "NOT_FOUND"

	// Input could not be parsed at the bridge boundary.
	ErrInvalidInput = "INVALID_INPUT"

	// A duplicate mutation for the same key was already in flight.
	ErrInFlight = "IN_FLIGHT"

	// Actor communication errors
	ErrActorTimeout = "ACTOR_TIMEOUT"
)

// Error creation helper functions
func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

func NewUnauthenticatedError(action string) *AppError {
	return &AppError{
		Code:    ErrUnauthenticated,
		Message: "Sign in required: " + action,
	}
}

func NewNetworkFailureError(message string, originalErr error) *AppError {
	return &AppError{
		Code:    ErrNetworkFailure,
		Message: message,
		Origin:  originalErr,
	}
}

func NewValidationFailureError(reason string) *AppError {
	return &AppError{
		Code:    ErrValidationFailure,
		Message: reason,
	}
}

// Helper method to check if an error is of a specific type
func IsErrorCode(err error, code string) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code for
// the bridge responses.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrInvalidInput, ErrValidationFailure:
		return http.StatusBadRequest
	case ErrUnauthenticated:
		return http.StatusUnauthorized
	case ErrInFlight:
		return http.StatusConflict
	case ErrNetworkFailure:
		return http.StatusBadGateway
	case ErrActorTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
