package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CoursePayment records a student-pay purchase applied toward a course
// project. PaymentRef (the provider payment intent id) is unique, which makes
// re-applying the same payment a no-op.
type CoursePayment struct {
	ID uint64

	AccountID  string
	ProjectID  string
	PaymentRef string

	Amount         decimal.Decimal
	PaidByNonOwner bool

	CreatedAt time.Time
}
