package entity

import "time"

type CreditEvent struct {
	ID uint64

	CreditID uint64

	EventType string

	IntentID    *string
	PayloadJSON *string

	CreatedAt time.Time
}
