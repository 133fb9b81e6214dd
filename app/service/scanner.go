package service

import (
	"context"
	"strings"

	"github.com/vibast-solutions/ms-go-purchases/app/provider"
)

// ScanForAccount enumerates candidate completed-but-unprocessed payment
// intents for one account. Two provider result sets are merged: the live
// listing (complete, but entries rotate out) and the metadata search (covers
// older intents, but its index lags real time by a minute or two). First
// occurrence wins on duplicate ids.
func (s *PurchaseService) ScanForAccount(ctx context.Context, accountID string) ([]*provider.PaymentIntent, error) {
	customerID, err := s.stripeCustomerID(ctx, accountID, false)
	if err != nil {
		return nil, err
	}
	if customerID == "" {
		return nil, nil
	}

	recent, err := s.providerClient.ListPaymentIntents(ctx, customerID)
	if err != nil {
		return nil, err
	}

	older, err := s.providerClient.SearchPaymentIntents(ctx, provider.CustomerUnprocessedQuery(customerID), s.customerSearchLimit())
	if err != nil {
		return nil, err
	}

	return dedupeIntents(append(recent, older...)), nil
}

// ScanGlobally is the maintenance sweep's bounded look across all customers.
// The steady-state result is empty; a small limit keeps an idle sweep cheap,
// and anything beyond it is simply picked up next interval.
func (s *PurchaseService) ScanGlobally(ctx context.Context, limit int32) ([]*provider.PaymentIntent, error) {
	if limit <= 0 {
		limit = s.globalScanLimit()
	}
	return s.providerClient.SearchPaymentIntents(ctx, provider.UnprocessedQuery(), limit)
}

// IsReadyToProcess reports whether an intent can be converted into a credit
// right now. A succeeded intent with no invoice attached yet is "not yet",
// not an error; a later pass will see it ready.
func IsReadyToProcess(intent *provider.PaymentIntent) bool {
	if intent == nil {
		return false
	}
	return intent.Status == provider.IntentStatusSucceeded &&
		intent.Metadata[MetadataProcessed] != "true" &&
		strings.TrimSpace(intent.Metadata[MetadataPurpose]) != "" &&
		intent.InvoiceID != ""
}

func dedupeIntents(intents []*provider.PaymentIntent) []*provider.PaymentIntent {
	seen := make(map[string]struct{}, len(intents))
	result := make([]*provider.PaymentIntent, 0, len(intents))
	for _, intent := range intents {
		if intent == nil {
			continue
		}
		if _, ok := seen[intent.ID]; ok {
			continue
		}
		seen[intent.ID] = struct{}{}
		result = append(result, intent)
	}
	return result
}
