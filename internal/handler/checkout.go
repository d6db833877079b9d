package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"paypal-checkout-relay/internal/client"
	"paypal-checkout-relay/internal/dto"
	"paypal-checkout-relay/internal/service"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	logger          *zap.Logger
}

func NewCheckoutHandler(checkoutService service.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// errorResponse maps the error taxonomy onto status codes: validation
// failures are the caller's fault (400), token exchange and processor
// failures are upstream (502), anything else (persistence after a
// successful processor call) is 500.
func (h *CheckoutHandler) errorResponse(c echo.Context, operation string, err error) error {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: validationErr.Error()})
	}

	var authErr *client.AuthError
	if errors.As(err, &authErr) {
		h.logger.Error("token exchange failed", zap.String("operation", operation), zap.Error(err))
		return c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "payment processor authentication failed"})
	}

	var upstreamErr *client.UpstreamError
	if errors.As(err, &upstreamErr) {
		return c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: upstreamErr.Error()})
	}

	h.logger.Error("operation failed", zap.String("operation", operation), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
}

func (h *CheckoutHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	body, err := h.checkoutService.CreateOrder(ctx, &req)
	if err != nil {
		return h.errorResponse(c, "create-order", err)
	}

	return c.JSONBlob(http.StatusOK, body)
}

func (h *CheckoutHandler) AuthorizeOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AuthorizeOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	body, err := h.checkoutService.AuthorizeOrder(ctx, req.OrderID)
	if err != nil {
		return h.errorResponse(c, "authorize-order", err)
	}

	return c.JSONBlob(http.StatusOK, body)
}

// Capture ignores any amount/currency in the request: the relay runs in
// final-capture mode, settling the full remaining authorized balance.
func (h *CheckoutHandler) Capture(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CaptureRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	body, err := h.checkoutService.Capture(ctx, req.AuthorizationID)
	if err != nil {
		return h.errorResponse(c, "capture", err)
	}

	return c.JSONBlob(http.StatusOK, body)
}

func (h *CheckoutHandler) Void(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.VoidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	outcome, err := h.checkoutService.Void(ctx, req.AuthorizationID)
	if err != nil {
		return h.errorResponse(c, "void", err)
	}

	if outcome.Voided {
		return c.JSON(http.StatusOK, dto.MessageResponse{Message: outcome.Message})
	}

	// Paypal returned a JSON error body; relay it with its status.
	return c.JSONBlob(outcome.StatusCode, outcome.Body)
}
