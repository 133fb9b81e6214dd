package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-purchases/app/entity"
	"github.com/vibast-solutions/ms-go-purchases/app/money"
	"github.com/vibast-solutions/ms-go-purchases/app/provider"
)

// providerMinimumUSD is the provider's own floor for a card transaction.
var providerMinimumUSD = decimal.RequireFromString("0.50")

type CheckoutSessionRequest struct {
	AccountID   string
	Purpose     string
	Description string
	LineItems   []entity.LineItem
	ReturnURL   string

	// Metadata is extra caller metadata; reserved keys are rejected.
	Metadata map[string]string
}

type CheckoutSessionSecret struct {
	ClientSecret string
}

// GetOrCreateCheckoutSession returns a client secret for collecting the
// requested payment. An open session with the same purpose and line items is
// reused verbatim; an open session with the same purpose but different line
// items is expired first, so a stale payment UI can never keep charging the
// old amount. A session is a proposal: nothing touches the ledger here.
func (s *PurchaseService) GetOrCreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSessionSecret, error) {
	purpose := strings.TrimSpace(req.Purpose)
	if purpose == "" {
		return nil, ErrPurposeRequired
	}
	for key := range req.Metadata {
		if isReservedMetadataKey(key) {
			return nil, fmt.Errorf("%w: %q", ErrReservedMetadataKey, key)
		}
	}

	total := money.Total(req.LineItems)
	if err := s.sanityCheckAmount(ctx, total); err != nil {
		return nil, err
	}

	// Concurrent identical requests (page reload, double click) share one
	// provider call instead of racing to create duplicate sessions.
	key := req.AccountID + "|" + purpose
	clientSecret, err := s.sessionCalls.do(key, func() (string, error) {
		return s.resolveSession(ctx, req, purpose, total)
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutSessionSecret{ClientSecret: clientSecret}, nil
}

func (s *PurchaseService) resolveSession(ctx context.Context, req CheckoutSessionRequest, purpose string, total decimal.Decimal) (string, error) {
	customerID, err := s.stripeCustomerID(ctx, req.AccountID, true)
	if err != nil {
		return "", err
	}

	fingerprint, err := lineItemFingerprint(req.LineItems)
	if err != nil {
		return "", err
	}

	openSessions, err := s.providerClient.ListOpenCheckoutSessions(ctx, customerID)
	if err != nil {
		return "", err
	}
	for _, session := range openSessions {
		if session.Metadata[MetadataPurpose] != purpose || session.ClientSecret == "" {
			continue
		}
		if session.Metadata[MetadataLineItems] == fingerprint {
			return session.ClientSecret, nil
		}
		// Same purpose, different line items: the old session reflects a
		// price the user is no longer looking at.
		if err := s.providerClient.ExpireCheckoutSession(ctx, session.ID); err != nil {
			return "", err
		}
	}

	metadata := make(map[string]string, len(req.Metadata)+4)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata[MetadataPurpose] = purpose
	metadata[MetadataAccountID] = req.AccountID
	metadata[MetadataLineItems] = fingerprint
	// The session's own currency and tax math can diverge from the dollar
	// amounts priced here, so the USD total rides along in metadata as the
	// only amount reconciliation will trust.
	metadata[MetadataTotalExcludingTaxUSD] = strconv.FormatInt(money.DecimalToCents(total), 10)

	lineItems := make([]provider.SessionLineItem, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		lineItems = append(lineItems, provider.SessionLineItem{
			Description: item.Description,
			AmountCents: money.DecimalToCents(item.Amount),
		})
	}

	returnURL := strings.TrimSpace(req.ReturnURL)
	if returnURL == "" {
		returnURL = s.purchasesCfg.ReturnURL
	}

	session, err := s.providerClient.CreateCheckoutSession(ctx, provider.CheckoutSessionParams{
		CustomerID:     customerID,
		Description:    req.Description,
		LineItems:      lineItems,
		ReturnURL:      returnURL,
		Metadata:       metadata,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return "", err
	}
	return session.ClientSecret, nil
}

func (s *PurchaseService) sanityCheckAmount(ctx context.Context, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be nonzero", ErrInvalidAmount)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}

	minAllowed := providerMinimumUSD
	if settings.MinPayment.GreaterThan(minAllowed) {
		minAllowed = settings.MinPayment
	}
	if amount.LessThan(minAllowed) {
		return fmt.Errorf("%w: amount %s must be at least %s", ErrInvalidAmount, money.FormatUSD(amount), money.FormatUSD(minAllowed))
	}

	maxAllowed := decimal.NewFromFloat(s.purchasesCfg.MaxPaymentUSD)
	if maxAllowed.IsPositive() && amount.GreaterThan(maxAllowed) {
		return fmt.Errorf("%w: amount %s exceeds the maximum allowed amount of %s", ErrInvalidAmount, money.FormatUSD(amount), money.FormatUSD(maxAllowed))
	}

	return nil
}

// lineItemFingerprint is the canonical JSON the session stores to recognize
// "same purchase" on a later request.
func lineItemFingerprint(lineItems []entity.LineItem) (string, error) {
	if lineItems == nil {
		lineItems = []entity.LineItem{}
	}
	payload, err := json.Marshal(lineItems)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}
