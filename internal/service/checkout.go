package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"paypal-checkout-relay/internal/client"
	"paypal-checkout-relay/internal/dto"
	"paypal-checkout-relay/internal/model"
	"paypal-checkout-relay/internal/repository"
)

const (
	defaultAmount   = "10.00"
	defaultCurrency = "USD"

	voidedMessage = "Authorization voided successfully"
)

// ValidationError means the inbound request is malformed: no outbound
// call is made for it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// VoidOutcome carries either the synthetic confirmation (Voided true) or
// the processor's error body and status for relaying.
type VoidOutcome struct {
	Voided     bool
	Message    string
	StatusCode int
	Body       json.RawMessage
}

type CheckoutService interface {
	CreateOrder(ctx context.Context, req *dto.CreateOrderRequest) (json.RawMessage, error)
	AuthorizeOrder(ctx context.Context, orderID string) (json.RawMessage, error)
	Capture(ctx context.Context, authorizationID string) (json.RawMessage, error)
	Void(ctx context.Context, authorizationID string) (*VoidOutcome, error)
}

type checkoutServiceImpl struct {
	paypalClient client.PaypalClient
	txRepo       repository.TransactionRepository
	logger       *zap.Logger
}

func NewCheckoutService(
	paypalClient client.PaypalClient,
	txRepo repository.TransactionRepository,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		paypalClient: paypalClient,
		txRepo:       txRepo,
		logger:       logger,
	}
}

// CreateOrder sends an AUTHORIZE-intent order and mirrors it locally when
// paypal returns an order id. Amount defaults to "10.00", currency to
// "USD" when absent.
func (s *checkoutServiceImpl) CreateOrder(ctx context.Context, req *dto.CreateOrderRequest) (json.RawMessage, error) {
	amount := req.Amount
	if amount == "" {
		amount = defaultAmount
	}
	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, &ValidationError{Field: "amount", Reason: "not a decimal value"}
	}
	if !value.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if len(currency) != 3 {
		return nil, &ValidationError{Field: "currency", Reason: "must be a 3-letter ISO code"}
	}
	currency = strings.ToUpper(currency)

	resp, err := s.paypalClient.CreateOrder(ctx, value.StringFixed(2), currency)
	if err != nil {
		s.logger.Error("create order failed", zap.Error(err))
		return nil, err
	}

	// No id means nothing to mirror; relay the body untouched.
	if resp.Order.ID == "" {
		s.logger.Warn("create order response carried no id, skipping persistence")
		return resp.Body, nil
	}

	status := resp.Order.Status
	if status == "" {
		status = model.StatusCreated
	}

	if err := s.txRepo.Create(ctx, &model.Transaction{
		OrderID:  resp.Order.ID,
		Status:   status,
		Amount:   value.StringFixed(2),
		Currency: currency,
	}); err != nil {
		s.logger.Error("store transaction failed",
			zap.String("order_id", resp.Order.ID), zap.Error(err))
		return nil, fmt.Errorf("store transaction for order %s: %w", resp.Order.ID, err)
	}

	return resp.Body, nil
}

func (s *checkoutServiceImpl) AuthorizeOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	if orderID == "" {
		return nil, &ValidationError{Field: "orderId", Reason: "required"}
	}

	resp, err := s.paypalClient.AuthorizeOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("authorize order failed",
			zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	authorizationID := resp.Order.FirstAuthorizationID()
	if authorizationID == "" {
		return resp.Body, nil
	}

	err = s.txRepo.SetAuthorized(ctx, orderID, authorizationID, resp.Order.Status, resp.Order.Payer.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Order was not created through this relay; paypal state wins.
		s.logger.Warn("no local transaction for authorized order",
			zap.String("order_id", orderID),
			zap.String("authorization_id", authorizationID))
		return resp.Body, nil
	}
	if err != nil {
		s.logger.Error("record authorization failed",
			zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("record authorization for order %s: %w", orderID, err)
	}

	return resp.Body, nil
}

// Capture settles the full remaining balance of the authorization
// (final-capture mode, no declared amount).
func (s *checkoutServiceImpl) Capture(ctx context.Context, authorizationID string) (json.RawMessage, error) {
	if authorizationID == "" {
		return nil, &ValidationError{Field: "authorizationId", Reason: "required"}
	}

	resp, err := s.paypalClient.CaptureAuthorization(ctx, authorizationID)
	if err != nil {
		s.logger.Error("capture failed",
			zap.String("authorization_id", authorizationID), zap.Error(err))
		return nil, err
	}

	if resp.Capture.ID == "" {
		return resp.Body, nil
	}

	status := resp.Capture.Status
	if status == "" {
		status = model.StatusCompleted
	}

	err = s.txRepo.SetCaptured(ctx, authorizationID, resp.Capture.ID, status)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("no local transaction for captured authorization",
			zap.String("authorization_id", authorizationID),
			zap.String("capture_id", resp.Capture.ID))
		return resp.Body, nil
	}
	if err != nil {
		s.logger.Error("record capture failed",
			zap.String("authorization_id", authorizationID), zap.Error(err))
		return nil, fmt.Errorf("record capture for authorization %s: %w", authorizationID, err)
	}

	return resp.Body, nil
}

// Void relays paypal's void call. Paypal signals success with an empty
// 2xx response; that case produces the synthetic confirmation message and
// a local VOIDED status. Any JSON body paypal returns is an error and is
// relayed as-is.
func (s *checkoutServiceImpl) Void(ctx context.Context, authorizationID string) (*VoidOutcome, error) {
	if authorizationID == "" {
		return nil, &ValidationError{Field: "authorizationId", Reason: "required"}
	}

	resp, err := s.paypalClient.VoidAuthorization(ctx, authorizationID)
	if err != nil {
		s.logger.Error("void failed",
			zap.String("authorization_id", authorizationID), zap.Error(err))
		return nil, err
	}

	if !resp.Voided {
		return &VoidOutcome{
			Voided:     false,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}, nil
	}

	err = s.txRepo.MarkVoided(ctx, authorizationID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("record void failed",
			zap.String("authorization_id", authorizationID), zap.Error(err))
		return nil, fmt.Errorf("record void for authorization %s: %w", authorizationID, err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("no local transaction for voided authorization",
			zap.String("authorization_id", authorizationID))
	}

	return &VoidOutcome{
		Voided:  true,
		Message: voidedMessage,
	}, nil
}
