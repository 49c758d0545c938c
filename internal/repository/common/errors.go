package common

import (
	"errors"

	"github.com/lib/pq"

	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"
)

// DBError переводит ошибку драйвера в AppError: нарушение уникальности становится
// DUPLICATE_OPERATION, остальное DATABASE_ERROR. AppError пропускается как есть.
func DBError(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return apperror.Wrap(err, apperror.ErrCodeDuplicateOperation, "операция уже была выполнена")
		case pqCheckViolation:
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "баланс кошелька не может стать отрицательным")
		}
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
}

// IsUniqueViolation: нарушение уникального индекса.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
