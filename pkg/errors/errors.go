package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrScheduleNotFound     = errors.New("schedule not found")
	ErrFeeStructureNotFound = errors.New("fee structure not found")
	ErrFeeStructureExists   = errors.New("fee structure already exists")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrTransactionReviewed  = errors.New("transaction already reviewed")
)

// ValidationError reports an out-of-range or malformed input value. The field
// name and offending value carry through to the user-facing message.
type ValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v (%s)", e.Field, e.Value, e.Reason)
}

func NewValidationError(field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// ConfigurationError reports an invalid or absent plan selection.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func NewConfigurationError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// ArithmeticConsistencyError reports an internal reconciliation breach:
// installment amounts that do not sum back to the total payable. Correct code
// never produces one.
type ArithmeticConsistencyError struct {
	Message string
}

func (e *ArithmeticConsistencyError) Error() string {
	return e.Message
}

func NewArithmeticConsistencyError(format string, args ...interface{}) *ArithmeticConsistencyError {
	return &ArithmeticConsistencyError{Message: fmt.Sprintf(format, args...)}
}

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeConfiguration         = "CONFIGURATION_ERROR"
	ErrCodeArithmeticConsistency = "ARITHMETIC_CONSISTENCY_ERROR"
	ErrCodeScheduleNotFound      = "SCHEDULE_NOT_FOUND"
	ErrCodeFeeStructureNotFound  = "FEE_STRUCTURE_NOT_FOUND"
	ErrCodeFeeStructureExists    = "FEE_STRUCTURE_ALREADY_EXISTS"
	ErrCodeTransactionNotFound   = "TRANSACTION_NOT_FOUND"
	ErrCodeTransactionReviewed   = "TRANSACTION_ALREADY_REVIEWED"
	ErrCodeInvalidInstallment    = "INVALID_INSTALLMENT_NUMBER"
	ErrCodeDatabaseError         = "DATABASE_ERROR"
	ErrCodeCacheError            = "CACHE_ERROR"
)

// Wrap common errors with business context
func WrapScheduleNotFound(studentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeScheduleNotFound,
		fmt.Sprintf("No payment schedule found for student %s", studentID),
		ErrScheduleNotFound,
	)
}

func WrapFeeStructureNotFound(cohortID string) *BusinessError {
	return NewBusinessError(
		ErrCodeFeeStructureNotFound,
		fmt.Sprintf("No fee structure found for cohort %s", cohortID),
		ErrFeeStructureNotFound,
	)
}

func WrapFeeStructureExists(cohortID string) *BusinessError {
	return NewBusinessError(
		ErrCodeFeeStructureExists,
		fmt.Sprintf("Fee structure for cohort %s already exists", cohortID),
		ErrFeeStructureExists,
	)
}

func WrapTransactionNotFound(transactionID string) *BusinessError {
	return NewBusinessError(
		ErrCodeTransactionNotFound,
		fmt.Sprintf("Transaction %s not found", transactionID),
		ErrTransactionNotFound,
	)
}

func WrapTransactionReviewed(transactionID, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeTransactionReviewed,
		fmt.Sprintf("Transaction %s was already %s", transactionID, status),
		ErrTransactionReviewed,
	)
}

func WrapInvalidInstallment(installmentNumber, total int) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidInstallment,
		fmt.Sprintf("Installment %d does not exist in a schedule of %d installments", installmentNumber, total),
		nil,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
