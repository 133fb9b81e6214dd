package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-purchases/app/entity"
)

var (
	ErrCreditNotFound = errors.New("credit not found")

	// ErrCreditAlreadyExists means the unique index on invoice_id rejected
	// the insert: some other run of the processor already credited this
	// payment. Callers treat the existing row as the canonical result.
	ErrCreditAlreadyExists = errors.New("credit already exists for invoice")
)

type CreditRepository struct {
	db DBTX
}

func NewCreditRepository(db DBTX) *CreditRepository {
	return &CreditRepository{db: db}
}

func (r *CreditRepository) Create(ctx context.Context, credit *entity.Credit) error {
	descriptionJSON, err := serializeDescription(credit.Description)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO credits (
			account_id, invoice_id, amount, description_json, service, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		credit.AccountID,
		credit.InvoiceID,
		credit.Amount.StringFixed(2),
		descriptionJSON,
		credit.Service,
		credit.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrCreditAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	credit.ID = uint64(id)

	return nil
}

func (r *CreditRepository) FindByInvoiceID(ctx context.Context, invoiceID string) (*entity.Credit, error) {
	query := `
		SELECT id, account_id, invoice_id, amount, description_json, service, created_at
		FROM credits
		WHERE invoice_id = ?
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, invoiceID))
}

func (r *CreditRepository) FindByID(ctx context.Context, id uint64) (*entity.Credit, error) {
	query := `
		SELECT id, account_id, invoice_id, amount, description_json, service, created_at
		FROM credits
		WHERE id = ?
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *CreditRepository) ListForAccount(ctx context.Context, accountID string, limit int32) ([]*entity.Credit, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, account_id, invoice_id, amount, description_json, service, created_at
		FROM credits
		WHERE account_id = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	credits := make([]*entity.Credit, 0)
	for rows.Next() {
		credit, err := scanCredit(rows)
		if err != nil {
			return nil, err
		}
		credits = append(credits, credit)
	}
	return credits, rows.Err()
}

func (r *CreditRepository) scanOne(row *sql.Row) (*entity.Credit, error) {
	credit, err := scanCredit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return credit, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCredit(row rowScanner) (*entity.Credit, error) {
	var (
		credit          entity.Credit
		amountRaw       string
		descriptionJSON string
	)
	if err := row.Scan(
		&credit.ID,
		&credit.AccountID,
		&credit.InvoiceID,
		&amountRaw,
		&descriptionJSON,
		&credit.Service,
		&credit.CreatedAt,
	); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(amountRaw)
	if err != nil {
		return nil, err
	}
	credit.Amount = amount

	description, err := parseDescription(descriptionJSON)
	if err != nil {
		return nil, err
	}
	credit.Description = description

	return &credit, nil
}
