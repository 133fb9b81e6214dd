package mapper

import (
	"time"

	"github.com/vibast-solutions/ms-go-purchases/app/entity"
	"github.com/vibast-solutions/ms-go-purchases/app/types"
)

func CreditToAPI(item *entity.Credit) *types.Credit {
	if item == nil {
		return nil
	}

	lineItems := make([]types.CreditLineItem, 0, len(item.Description.LineItems))
	for _, line := range item.Description.LineItems {
		lineItems = append(lineItems, types.CreditLineItem{
			Description: line.Description,
			Amount:      line.Amount.StringFixed(2),
			Tax:         line.Tax,
		})
	}

	return &types.Credit{
		Id:          item.ID,
		AccountId:   item.AccountID,
		InvoiceId:   item.InvoiceID,
		Amount:      item.Amount.StringFixed(2),
		Purpose:     item.Description.Purpose,
		Description: item.Description.Description,
		LineItems:   lineItems,
		Service:     item.Service,
		CreatedAt:   item.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func CreditsToAPI(items []*entity.Credit) []*types.Credit {
	result := make([]*types.Credit, 0, len(items))
	for _, item := range items {
		result = append(result, CreditToAPI(item))
	}
	return result
}
