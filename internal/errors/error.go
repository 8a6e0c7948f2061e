// Package errors provides custom error types for catalog operations.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProductNotFound       = errors.New("product not found")
	ErrMissingProductID      = errors.New("productId is required")
	ErrInvalidQuantity       = errors.New("quantity must be a number greater than 0")
	ErrMissingKeyword        = errors.New("keyword is required")
	ErrInvalidUpdatesPayload = errors.New("updates must be a non-empty array")
)

// ValidationError carries the ordered list of field-level messages produced
// by product validation. The list is reported to the caller in full, never
// truncated.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// InsufficientStockError is returned by the sell operation when the requested
// quantity exceeds the available stock. It reports the stock level observed
// at the time of the check.
type InsufficientStockError struct {
	Available float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock (only %v left)", e.Available)
}

// InvalidCategoryError is returned when a category filter value is not a
// member of the fixed category set. The message names the legal values.
type InvalidCategoryError struct {
	Allowed []string
}

func (e *InvalidCategoryError) Error() string {
	return "category must be one of: " + strings.Join(e.Allowed, ", ")
}
