package db

import (
	"errors"
	"fmt"
)

// ErrNoPaymentHistory — ни один месяц не отмечен как оплаченный
var ErrNoPaymentHistory = errors.New("no month is marked as paid")

// ValidationError — новое показание не прошло проверку
type ValidationError struct {
	Kind   Kind
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s value %q: %s", e.Kind, e.Value, e.Reason)
}

// IsValidationError проверяет, что ошибка вызвана некорректным показанием
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
