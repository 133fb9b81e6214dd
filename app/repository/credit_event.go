package repository

import (
	"context"

	"github.com/vibast-solutions/ms-go-purchases/app/entity"
)

type CreditEventRepository struct {
	db DBTX
}

func NewCreditEventRepository(db DBTX) *CreditEventRepository {
	return &CreditEventRepository{db: db}
}

func (r *CreditEventRepository) Create(ctx context.Context, event *entity.CreditEvent) error {
	query := `
		INSERT INTO credit_events (
			credit_id, event_type, intent_id, payload_json, created_at
		)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		event.CreditID,
		event.EventType,
		nullableStringValue(event.IntentID),
		nullableStringValue(event.PayloadJSON),
		event.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	event.ID = uint64(id)

	return nil
}
