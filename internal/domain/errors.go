package domain

import "fmt"

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", e.ProductName, e.Available, e.Requested)
}

// ConflictError covers invoice allocation exhaustion and lost stock races.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Reason }

// CompensationError means a stock restore failed and the enclosing
// cancel/delete/update was rolled back.
type CompensationError struct {
	SaleID    string
	ProductID string
	Err       error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("restore stock for product %s of sale %s: %v", e.ProductID, e.SaleID, e.Err)
}

func (e *CompensationError) Unwrap() error { return e.Err }

// ForbiddenError is returned when the caller's role does not allow the operation.
type ForbiddenError struct {
	Action string
}

func (e *ForbiddenError) Error() string { return "forbidden: " + e.Action }
