package service

// Payment intent metadata keys owned by this service. The values stored
// under these keys are the wire contract between session creation and
// reconciliation; callers may never set them through the public API.
const (
	MetadataPurpose              = "purpose"
	MetadataAccountID            = "account_id"
	MetadataConfirm              = "confirm"
	MetadataProcessed            = "processed"
	MetadataCreditID             = "credit_id"
	MetadataTotalExcludingTaxUSD = "total_excluding_tax_usd"
	MetadataCartIDs              = "cart_ids"
	MetadataLineItems            = "line_items"

	// MetadataProjectID is set by the student-pay flow alongside its
	// purpose; it is caller data, not reserved.
	MetadataProjectID = "project_id"
)

// Purpose tags dispatched by the intent processor. Any other purpose results
// in a bare credit with no further fulfillment.
const (
	PurposeShoppingCartCheckout = "shopping-cart-checkout"
	PurposeStudentPay           = "student-pay"
	PurposeAutoCredit           = "auto-credit"
)

var reservedMetadataKeys = map[string]struct{}{
	MetadataPurpose:              {},
	MetadataAccountID:            {},
	MetadataConfirm:              {},
	MetadataProcessed:            {},
	MetadataCreditID:             {},
	MetadataTotalExcludingTaxUSD: {},
	MetadataCartIDs:              {},
	MetadataLineItems:            {},
}

func isReservedMetadataKey(key string) bool {
	_, ok := reservedMetadataKeys[key]
	return ok
}
