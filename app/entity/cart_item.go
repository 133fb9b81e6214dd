package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is a checked-out store item waiting to be provisioned once its
// payment is credited.
type CartItem struct {
	ID uint64

	AccountID   string
	Description string
	Amount      decimal.Decimal

	Purchased   bool
	PaymentRef  *string
	PurchasedAt *time.Time

	CreatedAt time.Time
}
