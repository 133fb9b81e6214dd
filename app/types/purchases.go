package types

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CheckoutLineItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type CreateCheckoutSessionRequest struct {
	AccountID   string             `json:"account_id"`
	Purpose     string             `json:"purpose"`
	Description string             `json:"description"`
	LineItems   []CheckoutLineItem `json:"line_items"`
	Metadata    map[string]string  `json:"metadata"`
}

func NewCreateCheckoutSessionRequestFromContext(ctx echo.Context) (*CreateCheckoutSessionRequest, error) {
	var body CreateCheckoutSessionRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.AccountID = strings.TrimSpace(body.AccountID)
	body.Purpose = strings.TrimSpace(body.Purpose)
	body.Description = strings.TrimSpace(body.Description)
	for i := range body.LineItems {
		body.LineItems[i].Description = strings.TrimSpace(body.LineItems[i].Description)
	}

	return &body, nil
}

func (r *CreateCheckoutSessionRequest) Validate() error {
	if r.AccountID == "" {
		return errors.New("account_id is required")
	}
	if r.Purpose == "" {
		return errors.New("purpose is required")
	}
	if len(r.LineItems) == 0 {
		return errors.New("line_items must not be empty")
	}
	for _, item := range r.LineItems {
		if item.Description == "" {
			return errors.New("line item description is required")
		}
		if !item.Amount.IsPositive() {
			return errors.New("line item amount must be > 0")
		}
	}
	return nil
}

type CheckoutSessionResponse struct {
	ClientSecret string `json:"client_secret"`
}

type ProcessAccountPaymentsRequest struct {
	AccountID string
}

func NewProcessAccountPaymentsRequestFromContext(ctx echo.Context) (*ProcessAccountPaymentsRequest, error) {
	return &ProcessAccountPaymentsRequest{
		AccountID: strings.TrimSpace(ctx.Param("account_id")),
	}, nil
}

func (r *ProcessAccountPaymentsRequest) Validate() error {
	if r.AccountID == "" {
		return errors.New("account_id is required")
	}
	return nil
}

type ProcessPaymentsResponse struct {
	Processed int `json:"processed"`
}

type ListCreditsRequest struct {
	AccountID string
	Limit     int32
}

func NewListCreditsRequestFromContext(ctx echo.Context) (*ListCreditsRequest, error) {
	req := &ListCreditsRequest{
		AccountID: strings.TrimSpace(ctx.Param("account_id")),
		Limit:     100,
	}

	if limitRaw := strings.TrimSpace(ctx.QueryParam("limit")); limitRaw != "" {
		limit, err := strconv.ParseInt(limitRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Limit = int32(limit)
	}

	return req, nil
}

func (r *ListCreditsRequest) Validate() error {
	if r.AccountID == "" {
		return errors.New("account_id is required")
	}
	if r.Limit <= 0 || r.Limit > 500 {
		return errors.New("limit must be between 1 and 500")
	}
	return nil
}

type CreditLineItem struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Tax         bool   `json:"tax,omitempty"`
}

type Credit struct {
	Id          uint64           `json:"id"`
	AccountId   string           `json:"account_id"`
	InvoiceId   string           `json:"invoice_id"`
	Amount      string           `json:"amount"`
	Purpose     string           `json:"purpose,omitempty"`
	Description string           `json:"description,omitempty"`
	LineItems   []CreditLineItem `json:"line_items"`
	Service     string           `json:"service"`
	CreatedAt   string           `json:"created_at"`
}

type ListCreditsResponse struct {
	Credits []*Credit `json:"credits"`
}
