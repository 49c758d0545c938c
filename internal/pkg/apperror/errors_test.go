package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_HTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrCodeNotFound:           http.StatusNotFound,
		ErrCodeUnauthorized:       http.StatusUnauthorized,
		ErrCodeValidation:         http.StatusBadRequest,
		ErrCodeInvalidAmount:      http.StatusBadRequest,
		ErrCodeConflict:           http.StatusConflict,
		ErrCodeAlreadyMatched:     http.StatusConflict,
		ErrCodeInvalidTransition:  http.StatusConflict,
		ErrCodeInsufficientFunds:  http.StatusUnprocessableEntity,
		ErrCodePaymentFailed:      http.StatusPaymentRequired,
		ErrCodeDatabaseError:      http.StatusInternalServerError,
		ErrCodeDuplicateOperation: http.StatusConflict,
	}
	for code, status := range cases {
		assert.Equal(t, status, New(code, "x").HTTPStatus, code)
	}
}

func TestAppError_WrapKeepsCode(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("ledger: %w", Wrap(cause, ErrCodeDatabaseError, "не удалось"))

	assert.Equal(t, ErrCodeDatabaseError, CodeOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}

func TestAppError_Predicates(t *testing.T) {
	assert.True(t, IsNotFound(ErrBookingNotFound))
	assert.True(t, IsConflict(ErrMatchConflict))
	assert.False(t, IsConflict(ErrAlreadyMatched))
	assert.True(t, IsDuplicate(ErrDuplicateOperation))
	assert.False(t, Is(nil, ErrCodeNotFound))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}
