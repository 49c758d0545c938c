package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError      ErrorCode = "DATABASE_ERROR"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"
	ErrCodeInvalidState       ErrorCode = "INVALID_STATE"
	ErrCodeAlreadyMatched     ErrorCode = "ALREADY_MATCHED"
	ErrCodeInsufficientFunds  ErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodeInvalidAmount      ErrorCode = "INVALID_AMOUNT"
	ErrCodePaymentFailed      ErrorCode = "PAYMENT_FAILED"
	ErrCodeDuplicateOperation ErrorCode = "DUPLICATE_OPERATION"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInvalidAmount:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeAlreadyMatched, ErrCodeInvalidTransition, ErrCodeInvalidState, ErrCodeDuplicateOperation:
		return http.StatusConflict
	case ErrCodeInsufficientFunds:
		return http.StatusUnprocessableEntity
	case ErrCodePaymentFailed:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или пустую строку, если это не AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Is проверяет, что в цепочке ошибок есть AppError с указанным кодом.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return Is(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return Is(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return Is(err, ErrCodeValidation)
}

func IsConflict(err error) bool {
	return Is(err, ErrCodeConflict)
}

func IsDuplicate(err error) bool {
	return Is(err, ErrCodeDuplicateOperation)
}

var (
	ErrBookingNotFound     = New(ErrCodeNotFound, "заявка на перевозку не найдена")
	ErrQuoteNotFound       = New(ErrCodeNotFound, "предложение перевозчика не найдено")
	ErrWalletNotFound      = New(ErrCodeNotFound, "кошелёк не найден")
	ErrWithdrawalNotFound  = New(ErrCodeNotFound, "заявка на вывод не найдена")
	ErrBankAccountNotFound = New(ErrCodeNotFound, "банковский счёт не найден")
	ErrPaymentNotFound     = New(ErrCodeNotFound, "платёж не найден")
	ErrTransactionNotFound = New(ErrCodeNotFound, "транзакция не найдена")
	ErrUnauthorized        = New(ErrCodeUnauthorized, "недостаточно прав для операции")
	ErrForbidden           = New(ErrCodeForbidden, "недостаточно прав")
	ErrAlreadyMatched      = New(ErrCodeAlreadyMatched, "по этой заявке уже выбран перевозчик")
	ErrMatchConflict       = New(ErrCodeConflict, "заявка была изменена параллельно, обновите данные")
	ErrInsufficientFunds   = New(ErrCodeInsufficientFunds, "недостаточно доступных средств")
	ErrInvalidAmount       = New(ErrCodeInvalidAmount, "сумма должна быть положительной")
	ErrPaymentFailed       = New(ErrCodePaymentFailed, "платёж отклонён платёжным провайдером")
	ErrDuplicateOperation  = New(ErrCodeDuplicateOperation, "операция уже была выполнена")
)
