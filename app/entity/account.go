package entity

import "time"

type Account struct {
	ID string

	Email     string
	FirstName string
	LastName  string

	StripeCustomerID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
