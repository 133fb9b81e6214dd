package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-purchases/app/entity"
	"github.com/vibast-solutions/ms-go-purchases/app/factory"
	"github.com/vibast-solutions/ms-go-purchases/app/mapper"
	"github.com/vibast-solutions/ms-go-purchases/app/service"
	"github.com/vibast-solutions/ms-go-purchases/app/types"
)

type PurchaseController struct {
	purchaseService *service.PurchaseService
	logger          logrus.FieldLogger
}

func NewPurchaseController(purchaseService *service.PurchaseService) *PurchaseController {
	return &PurchaseController{
		purchaseService: purchaseService,
		logger:          factory.NewModuleLogger("purchases-controller"),
	}
}

func (c *PurchaseController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *PurchaseController) CreateCheckoutSession(ctx echo.Context) error {
	req, err := types.NewCreateCheckoutSessionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	lineItems := make([]entity.LineItem, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		lineItems = append(lineItems, entity.LineItem{
			Description: item.Description,
			Amount:      item.Amount,
		})
	}

	secret, err := c.purchaseService.GetOrCreateCheckoutSession(ctx.Request().Context(), service.CheckoutSessionRequest{
		AccountID:   req.AccountID,
		Purpose:     req.Purpose,
		Description: req.Description,
		LineItems:   lineItems,
		Metadata:    req.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			return c.writeError(ctx, http.StatusNotFound, "account not found")
		case errors.Is(err, service.ErrInvalidRequest),
			errors.Is(err, service.ErrPurposeRequired),
			errors.Is(err, service.ErrReservedMetadataKey),
			errors.Is(err, service.ErrInvalidAmount):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Create checkout session failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.CheckoutSessionResponse{ClientSecret: secret.ClientSecret})
}

func (c *PurchaseController) ProcessAccountPayments(ctx echo.Context) error {
	req, err := types.NewProcessAccountPaymentsRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	processed, err := c.purchaseService.ProcessAccountPayments(ctx.Request().Context(), req.AccountID)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "account not found")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Process account payments failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.ProcessPaymentsResponse{Processed: processed})
}

func (c *PurchaseController) ListCredits(ctx echo.Context) error {
	req, err := types.NewListCreditsRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.purchaseService.ListCredits(ctx.Request().Context(), req.AccountID, req.Limit)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "account not found")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("List credits failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.ListCreditsResponse{Credits: mapper.CreditsToAPI(items)})
}

func (c *PurchaseController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
