package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-purchases/app/entity"
)

var ErrAccountNotFound = errors.New("account not found")

type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) FindByID(ctx context.Context, accountID string) (*entity.Account, error) {
	query := `
		SELECT id, email, first_name, last_name, stripe_customer_id, created_at, updated_at
		FROM accounts
		WHERE id = ?
	`

	return scanAccount(r.db.QueryRowContext(ctx, query, accountID))
}

func (r *AccountRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*entity.Account, error) {
	query := `
		SELECT id, email, first_name, last_name, stripe_customer_id, created_at, updated_at
		FROM accounts
		WHERE stripe_customer_id = ?
	`

	return scanAccount(r.db.QueryRowContext(ctx, query, customerID))
}

func (r *AccountRepository) SetStripeCustomerID(ctx context.Context, accountID, customerID string) error {
	query := `UPDATE accounts SET stripe_customer_id = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, customerID, time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func scanAccount(row *sql.Row) (*entity.Account, error) {
	var (
		account          entity.Account
		stripeCustomerID sql.NullString
	)
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.FirstName,
		&account.LastName,
		&stripeCustomerID,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	account.StripeCustomerID = stringPtrFromNull(stripeCustomerID)
	return &account, nil
}
