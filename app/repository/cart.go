package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-purchases/app/entity"
)

type CartRepository struct {
	db DBTX
}

func NewCartRepository(db DBTX) *CartRepository {
	return &CartRepository{db: db}
}

// ListCheckedOut returns the account's unpurchased cart items, optionally
// restricted to the given ids.
func (r *CartRepository) ListCheckedOut(ctx context.Context, accountID string, ids []uint64) ([]*entity.CartItem, error) {
	query := `
		SELECT id, account_id, description, amount, purchased, payment_ref, purchased_at, created_at
		FROM cart_items
		WHERE account_id = ? AND purchased = 0
	`
	args := []interface{}{accountID}

	if len(ids) > 0 {
		placeholders := make([]string, len(ids))
		for i, id := range ids {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += " AND id IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.CartItem, 0)
	for rows.Next() {
		var (
			item        entity.CartItem
			amountRaw   string
			paymentRef  sql.NullString
			purchasedAt sql.NullTime
		)
		if err := rows.Scan(
			&item.ID,
			&item.AccountID,
			&item.Description,
			&amountRaw,
			&item.Purchased,
			&paymentRef,
			&purchasedAt,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(amountRaw)
		if err != nil {
			return nil, err
		}
		item.Amount = amount
		item.PaymentRef = stringPtrFromNull(paymentRef)
		item.PurchasedAt = timePtrFromNull(purchasedAt)
		items = append(items, &item)
	}
	return items, rows.Err()
}

// MarkPurchased flags items as purchased with the payment reference. Already
// purchased rows are left untouched, so re-running fulfillment for the same
// payment is a no-op.
func (r *CartRepository) MarkPurchased(ctx context.Context, ids []uint64, paymentRef string, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := []interface{}{paymentRef, now}
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := `
		UPDATE cart_items
		SET purchased = 1, payment_ref = ?, purchased_at = ?
		WHERE purchased = 0 AND id IN (` + strings.Join(placeholders, ", ") + `)
	`

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
