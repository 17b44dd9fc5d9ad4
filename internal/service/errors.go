package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Validation errors: rejected before any transaction opens.
var (
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidOperationMode = errors.New("invalid operation_mode")
	ErrInvalidPaymentMode   = errors.New("invalid payment_mode")
	ErrInvalidDiscount      = errors.New("invalid discount_type")
	ErrInvalidDiscountValue = errors.New("invalid discount_value")
	ErrInvalidProductID     = errors.New("invalid product_id")
	ErrInvalidTableID       = errors.New("invalid table_id")
	ErrInvalidMemberID      = errors.New("invalid member_id")
)

// Not-found errors.
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrItemNotFound    = errors.New("item not found in order")
	ErrProductNotFound = errors.New("product not found in store")
)

// Guard violations: the state machine forbids the attempted transition.
var (
	ErrOrderNotModifiable  = errors.New("order can no longer be modified")
	ErrAlreadyCancelled    = errors.New("order is already cancelled")
	ErrAlreadyCompleted    = errors.New("order is already completed")
	ErrEmptyOrder          = errors.New("order has no items")
	ErrHasCompletedPayment = errors.New("order has a completed payment")
	ErrTableUnavailable    = errors.New("table is not available")
)

// ErrInsufficientStock is the errors.Is target for InsufficientStockError.
var ErrInsufficientStock = errors.New("insufficient stock")

// InsufficientStockError reports exactly which product could not be deducted
// and by how much, so callers can present an actionable message.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int32
	Available   int32
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID.String()
	}
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", name, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
