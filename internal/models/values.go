package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	// MaxProductNameLength is the longest accepted product name, in characters, after trimming.
	MaxProductNameLength = 255
)

// MaxPrice is the highest accepted product price.
var MaxPrice = decimal.RequireFromString("999999.99")

// ErrInsufficientStock is returned when a stock decrease exceeds the available quantity.
var ErrInsufficientStock = errors.New("insufficient stock available")

// ValidationError reports a raw input that violates a value object invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ProductID is the storage-assigned identity of a product.
// The zero value means the product has not been persisted yet.
type ProductID struct {
	value int64
}

// NewProductID validates a raw identifier.
func NewProductID(value int64) (ProductID, error) {
	if value <= 0 {
		return ProductID{}, invalid("product id", "must be a positive integer")
	}
	return ProductID{value: value}, nil
}

func (id ProductID) Value() int64 { return id.value }

// IsZero reports whether the id is unassigned.
func (id ProductID) IsZero() bool { return id.value == 0 }

func (id ProductID) Equal(other ProductID) bool { return id.value == other.value }

func (id ProductID) String() string { return fmt.Sprintf("%d", id.value) }

// ProductName is a trimmed, non-empty product name.
type ProductName struct {
	value string
}

// NewProductName trims the raw name and checks it is non-empty and within MaxProductNameLength.
func NewProductName(raw string) (ProductName, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ProductName{}, invalid("product name", "cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > MaxProductNameLength {
		return ProductName{}, invalid("product name", fmt.Sprintf("cannot exceed %d characters", MaxProductNameLength))
	}
	return ProductName{value: trimmed}, nil
}

func (n ProductName) Value() string { return n.value }

func (n ProductName) Equal(other ProductName) bool { return n.value == other.value }

func (n ProductName) String() string { return n.value }

// Money is a non-negative price. Full precision is kept; String renders two decimals.
type Money struct {
	amount decimal.Decimal
}

// NewMoney validates a decimal amount.
func NewMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, invalid("price", "cannot be negative")
	}
	if amount.GreaterThan(MaxPrice) {
		return Money{}, invalid("price", "cannot exceed "+MaxPrice.StringFixed(2))
	}
	return Money{amount: amount}, nil
}

// NewMoneyFromFloat validates a float amount as received from JSON or form input.
func NewMoneyFromFloat(amount float64) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, invalid("price", "must be a finite number")
	}
	return NewMoney(decimal.NewFromFloat(amount))
}

func (m Money) Decimal() decimal.Decimal { return m.amount }

// Float64 returns the nearest float, used for the REAL storage column and JSON output.
func (m Money) Float64() float64 { return m.amount.InexactFloat64() }

func (m Money) Equal(other Money) bool { return m.amount.Equal(other.amount) }

func (m Money) String() string { return m.amount.StringFixed(2) }

// StockQuantity is a non-negative count of units on hand.
type StockQuantity struct {
	value int
}

// NewStockQuantity validates a raw stock count.
func NewStockQuantity(value int) (StockQuantity, error) {
	if value < 0 {
		return StockQuantity{}, invalid("stock", "cannot be negative")
	}
	return StockQuantity{value: value}, nil
}

func (s StockQuantity) Value() int { return s.value }

func (s StockQuantity) Equal(other StockQuantity) bool { return s.value == other.value }

// IsAvailable reports whether at least one unit is on hand.
func (s StockQuantity) IsAvailable() bool { return s.value > 0 }

// Increase returns a new quantity with amount units added.
func (s StockQuantity) Increase(amount int) (StockQuantity, error) {
	if amount < 0 {
		return s, invalid("stock", "increase amount cannot be negative")
	}
	if amount > math.MaxInt-s.value {
		return s, invalid("stock", "increase overflows quantity")
	}
	return StockQuantity{value: s.value + amount}, nil
}

// Decrease returns a new quantity with amount units removed.
func (s StockQuantity) Decrease(amount int) (StockQuantity, error) {
	if amount < 0 {
		return s, invalid("stock", "decrease amount cannot be negative")
	}
	if amount > s.value {
		return s, ErrInsufficientStock
	}
	return StockQuantity{value: s.value - amount}, nil
}
