package dto

import (
	"net/http"
	"strings"
)

// General error codes
const (
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Input error codes
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// Resource error codes
const (
	ErrCodeNotFound               = "NOT_FOUND"
	ErrCodeAlreadyExists          = "ALREADY_EXISTS"
	ErrCodeConflict               = "CONFLICT"
	ErrCodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// Business rule error codes
const (
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeAlreadyPaid         = "ALREADY_PAID"
	ErrCodeInstallmentPaidOff  = "INSTALLMENT_PAID_OFF"
	ErrCodeNotATemplate        = "NOT_A_TEMPLATE"
	ErrCodeInsufficientPayment = "INSUFFICIENT_PAYMENT"
	ErrCodeInsufficientCredit  = "INSUFFICIENT_CREDIT"
	ErrCodeNoInvoices          = "NO_INVOICES"
)

// Job error codes
const (
	ErrCodeJobQueueFull      = "JOB_QUEUE_FULL"
	ErrCodeSchedulerDisabled = "SCHEDULER_DISABLED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeNoInvoices:      http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Resource errors
	ErrCodeNotFound:               http.StatusNotFound,
	ErrCodeAlreadyExists:          http.StatusConflict,
	ErrCodeConflict:               http.StatusConflict,
	ErrCodeConcurrentModification: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeAlreadyPaid:         http.StatusUnprocessableEntity,
	ErrCodeInstallmentPaidOff:  http.StatusUnprocessableEntity,
	ErrCodeNotATemplate:        http.StatusUnprocessableEntity,
	ErrCodeInsufficientPayment: http.StatusUnprocessableEntity,
	ErrCodeInsufficientCredit:  http.StatusUnprocessableEntity,

	ErrCodeJobQueueFull:      http.StatusServiceUnavailable,
	ErrCodeSchedulerDisabled: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unlisted INVALID_* codes are input errors; anything else is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
