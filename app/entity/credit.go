package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ServiceCredit     = "credit"
	ServiceAutoCredit = "auto-credit"
)

// LineItem is one human-readable row of a credit description. Amount is in
// US dollars, already normalized from the provider's integer cents.
type LineItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Tax         bool            `json:"tax,omitempty"`
}

type CreditDescription struct {
	LineItems   []LineItem `json:"line_items"`
	Description string     `json:"description,omitempty"`
	Purpose     string     `json:"purpose,omitempty"`
}

// Credit is an internal ledger entry increasing an account's balance.
// InvoiceID carries the provider payment intent id and is unique across all
// credits; that unique index is the sole idempotency mechanism for
// reconciliation.
type Credit struct {
	ID uint64

	AccountID string
	InvoiceID string

	Amount      decimal.Decimal
	Description CreditDescription
	Service     string

	CreatedAt time.Time
}
