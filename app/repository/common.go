package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/vibast-solutions/ms-go-purchases/app/entity"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func isDuplicateEntryError(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

func nullableStringValue(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func stringPtrFromNull(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func timePtrFromNull(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func serializeDescription(description entity.CreditDescription) (string, error) {
	if description.LineItems == nil {
		description.LineItems = []entity.LineItem{}
	}
	payload, err := json.Marshal(description)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func parseDescription(raw string) (entity.CreditDescription, error) {
	var description entity.CreditDescription
	if raw == "" {
		return description, nil
	}
	if err := json.Unmarshal([]byte(raw), &description); err != nil {
		return entity.CreditDescription{}, err
	}
	return description, nil
}
