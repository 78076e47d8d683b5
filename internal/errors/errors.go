package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinels used with Mark. Every error leaving the service layer carries exactly one of them.
var (
	ErrValidation      = new(ErrCodeValidation, "validation error")
	ErrInvalidPrice    = new(ErrCodeInvalidPrice, "invalid price")
	ErrNotFound        = new(ErrCodeNotFound, "resource not found")
	ErrExternalService = new(ErrCodeExternalService, "external service error")
	ErrAssetDecode     = new(ErrCodeAssetDecode, "asset could not be decoded")
	ErrSystem          = new(ErrCodeSystemError, "system error")

	// ordered from most to least specific; ErrInvalidPrice must be checked before ErrValidation
	sentinels = []*InternalError{
		ErrInvalidPrice,
		ErrValidation,
		ErrNotFound,
		ErrAssetDecode,
		ErrExternalService,
		ErrSystem,
	}

	statusCodeMap = map[string]int{
		ErrCodeValidation:      http.StatusBadRequest,
		ErrCodeInvalidPrice:    http.StatusBadRequest,
		ErrCodeNotFound:        http.StatusNotFound,
		ErrCodeAssetDecode:     http.StatusUnprocessableEntity,
		ErrCodeExternalService: http.StatusBadGateway,
		ErrCodeSystemError:     http.StatusInternalServerError,
	}
)

const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeInvalidPrice    = "INVALID_PRICE"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeExternalService = "EXTERNAL_SERVICE_ERROR"
	ErrCodeAssetDecode     = "ASSET_DECODE_ERROR"
	ErrCodeSystemError     = "INTERNAL_ERROR"
)

// InternalError represents a domain error class.
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsValidation reports whether err should be answered as a client input problem.
// Invalid prices are validation errors too.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidPrice)
}

func IsInvalidPrice(err error) bool {
	return errors.Is(err, ErrInvalidPrice)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService)
}

func IsAssetDecode(err error) bool {
	return errors.Is(err, ErrAssetDecode)
}

// Code returns the machine-readable code of the first sentinel err is marked with.
func Code(err error) string {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Code
		}
	}
	return ErrCodeSystemError
}

// HTTPStatusFromErr maps err to the status code of its sentinel, 500 when unmarked.
func HTTPStatusFromErr(err error) int {
	if status, ok := statusCodeMap[Code(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DisplayMessage returns the hints attached to err, safe to show to a client.
// Unmarked or hint-less errors fall back to the sentinel's generic message.
func DisplayMessage(err error) string {
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		return strings.Join(hints, "; ")
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Message
		}
	}
	return "internal server error"
}
