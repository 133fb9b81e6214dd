package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-purchases/app/entity"
	"github.com/vibast-solutions/ms-go-purchases/app/money"
	"github.com/vibast-solutions/ms-go-purchases/app/provider"
)

// Process converts one succeeded payment intent into a ledger credit and
// dispatches its fulfillment. Returns the credit id, or 0 when the intent
// was skipped (unresolvable account, or not originated by our session flow).
//
// Any number of processes may run this concurrently for the same intent: the
// ledger's unique invoice_id index lets exactly one creation win, and every
// run converges on the same credit id. A failure after the credit exists
// (metadata update, fulfillment) leaves a valid, resumable state for the
// next scan.
func (s *PurchaseService) Process(ctx context.Context, intent *provider.PaymentIntent) (uint64, error) {
	accountID := strings.TrimSpace(intent.Metadata[MetadataAccountID])
	if accountID == "" {
		// Should not happen for sessions we created; fall back to the
		// customer mapping in our own database.
		account, err := s.accountRepo.FindByStripeCustomerID(ctx, intent.CustomerID)
		if err != nil {
			return 0, err
		}
		if account == nil {
			s.logger.WithFields(logrus.Fields{
				"intent_id": intent.ID,
				"customer":  intent.CustomerID,
			}).Warn("No account for payment intent customer")
			return 0, nil
		}
		accountID = account.ID
	}

	totalRaw := intent.Metadata[MetadataTotalExcludingTaxUSD]
	if totalRaw == "" {
		// Not set by our session flow, so this intent is not ours to
		// process.
		return 0, nil
	}
	cents, err := strconv.ParseInt(totalRaw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("intent %s has malformed %s: %w", intent.ID, MetadataTotalExcludingTaxUSD, err)
	}
	// The invoice's own total may be in another currency or rounded by the
	// provider's tax math; the metadata cents are the only trusted amount.
	amount := money.CentsToDecimal(cents)

	invoice, err := s.providerClient.RetrieveInvoice(ctx, intent.InvoiceID)
	if err != nil {
		// The invoice may not be fully created yet; the next pass retries.
		return 0, err
	}

	purpose := intent.Metadata[MetadataPurpose]
	serviceTag := entity.ServiceCredit
	if purpose == PurposeAutoCredit {
		serviceTag = entity.ServiceAutoCredit
	}

	creditID, err := s.ledger.CreateCredit(ctx, accountID, intent.ID, amount, entity.CreditDescription{
		LineItems:   invoiceLineItems(invoice),
		Description: intent.Description,
		Purpose:     purpose,
	}, serviceTag)
	if err != nil {
		return 0, err
	}

	// Mark the intent so scans stop considering it. If this update is lost,
	// the next scan retries: crediting no-ops on the unique index and the
	// update gets another chance.
	if err := s.providerClient.UpdatePaymentIntentMetadata(ctx, intent.ID, map[string]string{
		MetadataProcessed: "true",
		MetadataCreditID:  strconv.FormatUint(creditID, 10),
	}); err != nil {
		s.logger.WithError(err).WithField("intent_id", intent.ID).Warn("Credit recorded but intent metadata update failed")
	}

	switch purpose {
	case PurposeShoppingCartCheckout:
		itemIDs, err := parseCartIDs(intent.Metadata[MetadataCartIDs])
		if err != nil {
			return creditID, err
		}
		if err := s.ledger.FulfillCartItems(ctx, accountID, intent.ID, amount, itemIDs); err != nil {
			return creditID, err
		}
	case PurposeStudentPay:
		projectID := strings.TrimSpace(intent.Metadata[MetadataProjectID])
		if err := s.ledger.ApplyCoursePayment(ctx, accountID, projectID, intent.ID, amount, true); err != nil {
			return creditID, err
		}
	}

	return creditID, nil
}

// ProcessBatch runs Process over a batch, de-duplicated by intent id and
// gated on readiness. A failing intent is logged and never stops the rest;
// the count is the number of distinct credits produced cleanly this pass.
func (s *PurchaseService) ProcessBatch(ctx context.Context, intents []*provider.PaymentIntent) int {
	seen := make(map[string]struct{}, len(intents))
	creditIDs := make(map[uint64]struct{})
	for _, intent := range intents {
		if intent == nil {
			continue
		}
		if _, ok := seen[intent.ID]; ok {
			continue
		}
		seen[intent.ID] = struct{}{}
		if !IsReadyToProcess(intent) {
			continue
		}

		creditID, err := s.Process(ctx, intent)
		if err != nil {
			// Expected to be ephemeral: an invoice still being created, a
			// cart item that sold out. The credit (if any) stands and the
			// user can retry their purchase.
			s.logger.WithError(err).WithField("intent_id", intent.ID).Warn("Issue processing payment intent")
			continue
		}
		if creditID != 0 {
			creditIDs[creditID] = struct{}{}
		}
	}
	return len(creditIDs)
}

// ProcessAccountPayments is the user-facing poll: scan one account and
// process whatever is ready.
func (s *PurchaseService) ProcessAccountPayments(ctx context.Context, accountID string) (int, error) {
	intents, err := s.ScanForAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return s.ProcessBatch(ctx, intents), nil
}

func invoiceLineItems(invoice *provider.Invoice) []entity.LineItem {
	if invoice == nil {
		return []entity.LineItem{}
	}
	items := make([]entity.LineItem, 0, len(invoice.Lines)+1)
	for _, line := range invoice.Lines {
		items = append(items, entity.LineItem{
			Description: line.Description,
			Amount:      money.CentsToDecimal(line.AmountCents),
		})
	}
	if invoice.TaxCents != 0 {
		items = append(items, entity.LineItem{
			Description: "Tax",
			Amount:      money.CentsToDecimal(invoice.TaxCents),
			Tax:         true,
		})
	}
	return items
}

func parseCartIDs(raw string) ([]uint64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []uint64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("malformed %s metadata: %w", MetadataCartIDs, err)
	}
	return ids, nil
}
