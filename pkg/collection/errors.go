package collection

import (
	"errors"
	"fmt"
)

// Domain-level error values surfaced by the collection service.
var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrSlotOverfilled       = errors.New("slot overfilled")
	ErrReservedRowInTrash   = errors.New("reserved row in trash")
	ErrDeckHasReservations  = errors.New("deck has reservations")
	ErrConflict             = errors.New("conflict")
	ErrInvalidOwnerID       = errors.New("invalid owner id")
	ErrInvalidCardName      = errors.New("invalid card name")
	ErrInvalidFolder        = errors.New("invalid folder")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidPrice         = errors.New("invalid price")
	ErrInvalidDeckName      = errors.New("invalid deck name")
	ErrInvalidFillMode      = errors.New("invalid fill mode")
	ErrInvalidServiceConfig = errors.New("invalid service config")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
