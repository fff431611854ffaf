package service

import "fmt"

// BusinessError - ошибка бизнес-логики, на границе HTTP
// превращается в статус-код по своему коду.
type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func NewNotFound(resource, id string) *BusinessError {
	return &BusinessError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %s не найден(а)", resource, id),
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

func NewWrongStatus(current, next string) *BusinessError {
	return &BusinessError{
		Code:    "WRONG_STATUS",
		Message: fmt.Sprintf("недопустимый переход статуса: %s -> %s", current, next),
		Details: map[string]any{
			"current": current,
			"new":     next,
		},
	}
}

func NewUnauthorized(message string) *BusinessError {
	return &BusinessError{
		Code:    "UNAUTHORIZED",
		Message: message,
	}
}

func NewForbidden(message string) *BusinessError {
	return &BusinessError{
		Code:    "FORBIDDEN",
		Message: message,
	}
}

func NewEmailTaken(email string) *BusinessError {
	return &BusinessError{
		Code:    "EMAIL_TAKEN",
		Message: fmt.Sprintf("Email %s уже зарегистрирован", email),
		Details: map[string]any{
			"email": email,
		},
	}
}
