package service

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"paypal-checkout-relay/internal/client"
	"paypal-checkout-relay/internal/dto"
	"paypal-checkout-relay/internal/model"
	"paypal-checkout-relay/internal/repository"
)

type lifecycleCall struct {
	Amount   string
	Currency string
	ID       string
}

type fakePaypalClient struct {
	createCalls    []lifecycleCall
	authorizeCalls []lifecycleCall
	captureCalls   []lifecycleCall
	voidCalls      []lifecycleCall

	createResult    *client.OrderCallResult
	createErr       error
	authorizeResult *client.OrderCallResult
	authorizeErr    error
	captureResult   *client.CaptureCallResult
	captureErr      error
	voidResult      *client.VoidCallResult
	voidErr         error
}

func (f *fakePaypalClient) CreateOrder(_ context.Context, amount, currency string) (*client.OrderCallResult, error) {
	f.createCalls = append(f.createCalls, lifecycleCall{Amount: amount, Currency: currency})
	return f.createResult, f.createErr
}

func (f *fakePaypalClient) AuthorizeOrder(_ context.Context, orderID string) (*client.OrderCallResult, error) {
	f.authorizeCalls = append(f.authorizeCalls, lifecycleCall{ID: orderID})
	return f.authorizeResult, f.authorizeErr
}

func (f *fakePaypalClient) CaptureAuthorization(_ context.Context, authorizationID string) (*client.CaptureCallResult, error) {
	f.captureCalls = append(f.captureCalls, lifecycleCall{ID: authorizationID})
	return f.captureResult, f.captureErr
}

func (f *fakePaypalClient) VoidAuthorization(_ context.Context, authorizationID string) (*client.VoidCallResult, error) {
	f.voidCalls = append(f.voidCalls, lifecycleCall{ID: authorizationID})
	return f.voidResult, f.voidErr
}

func newTestRepo(t *testing.T) repository.TransactionRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Transaction{}))

	return repository.NewTransactionRepository(db)
}

func orderResult(t *testing.T, body string) *client.OrderCallResult {
	t.Helper()

	result := &client.OrderCallResult{Body: json.RawMessage(body)}
	require.NoError(t, json.Unmarshal([]byte(body), &result.Order))
	return result
}

func captureResult(t *testing.T, body string) *client.CaptureCallResult {
	t.Helper()

	result := &client.CaptureCallResult{Body: json.RawMessage(body)}
	require.NoError(t, json.Unmarshal([]byte(body), &result.Capture))
	return result
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("empty request defaults to 10.00 USD", func(t *testing.T) {
		fake := &fakePaypalClient{
			createResult: orderResult(t, `{"id":"O1","status":"CREATED"}`),
		}
		repo := newTestRepo(t)
		svc := NewCheckoutService(fake, repo, zap.NewNop())

		body, err := svc.CreateOrder(ctx, &dto.CreateOrderRequest{})
		require.NoError(t, err)
		require.JSONEq(t, `{"id":"O1","status":"CREATED"}`, string(body))

		require.Len(t, fake.createCalls, 1)
		require.Equal(t, "10.00", fake.createCalls[0].Amount)
		require.Equal(t, "USD", fake.createCalls[0].Currency)

		tx, err := repo.FindByOrderID(ctx, "O1")
		require.NoError(t, err)
		require.Equal(t, "10.00", tx.Amount)
		require.Equal(t, "USD", tx.Currency)
		require.Equal(t, model.StatusCreated, tx.Status)
	})

	t.Run("persisted amount and currency equal the input", func(t *testing.T) {
		fake := &fakePaypalClient{
			createResult: orderResult(t, `{"id":"O2","status":"CREATED"}`),
		}
		repo := newTestRepo(t)
		svc := NewCheckoutService(fake, repo, zap.NewNop())

		_, err := svc.CreateOrder(ctx, &dto.CreateOrderRequest{Amount: "25.50", Currency: "eur"})
		require.NoError(t, err)

		tx, err := repo.FindByOrderID(ctx, "O2")
		require.NoError(t, err)
		require.Equal(t, "25.50", tx.Amount)
		require.Equal(t, "EUR", tx.Currency)
	})

	t.Run("non-decimal amount is rejected before any call", func(t *testing.T) {
		fake := &fakePaypalClient{}
		svc := NewCheckoutService(fake, newTestRepo(t), zap.NewNop())

		_, err := svc.CreateOrder(ctx, &dto.CreateOrderRequest{Amount: "ten dollars"})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Empty(t, fake.createCalls)
	})

	t.Run("non-positive amount is rejected", func(t *testing.T) {
		fake := &fakePaypalClient{}
		svc := NewCheckoutService(fake, newTestRepo(t), zap.NewNop())

		_, err := svc.CreateOrder(ctx, &dto.CreateOrderRequest{Amount: "-5.00"})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Empty(t, fake.createCalls)
	})

	t.Run("response without id relays body and skips persistence", func(t *testing.T) {
		fake := &fakePaypalClient{
			createResult: orderResult(t, `{"name":"UNPROCESSABLE_ENTITY"}`),
		}
		repo := newTestRepo(t)
		svc := NewCheckoutService(fake, repo, zap.NewNop())

		body, err := svc.CreateOrder(ctx, &dto.CreateOrderRequest{})
		require.NoError(t, err)
		require.JSONEq(t, `{"name":"UNPROCESSABLE_ENTITY"}`, string(body))

		_, err = repo.FindByOrderID(ctx, "")
		require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("auth failure propagates", func(t *testing.T) {
		fake := &fakePaypalClient{
			createErr: &client.AuthError{Err: context.DeadlineExceeded},
		}
		svc := NewCheckoutService(fake, newTestRepo(t), zap.NewNop())

		_, err := svc.CreateOrder(ctx, &dto.CreateOrderRequest{})
		var authErr *client.AuthError
		require.ErrorAs(t, err, &authErr)
	})
}

func TestAuthorizeOrder(t *testing.T) {
	ctx := context.Background()

	authorizedBody := `{
		"id": "O1",
		"status": "COMPLETED",
		"payer": {"email_address": "buyer@example.com"},
		"purchase_units": [{"payments": {"authorizations": [{"id": "A1", "status": "CREATED"}]}}]
	}`

	t.Run("missing orderId is a validation error", func(t *testing.T) {
		fake := &fakePaypalClient{}
		svc := NewCheckoutService(fake, newTestRepo(t), zap.NewNop())

		_, err := svc.AuthorizeOrder(ctx, "")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Empty(t, fake.authorizeCalls)
	})

	t.Run("records authorization against the order row", func(t *testing.T) {
		fake := &fakePaypalClient{
			authorizeResult: orderResult(t, authorizedBody),
		}
		repo := newTestRepo(t)
		require.NoError(t, repo.Create(ctx, &model.Transaction{
			OrderID: "O1", Status: model.StatusCreated, Amount: "10.00", Currency: "USD",
		}))
		svc := NewCheckoutService(fake, repo, zap.NewNop())

		body, err := svc.AuthorizeOrder(ctx, "O1")
		require.NoError(t, err)
		require.JSONEq(t, authorizedBody, string(body))

		tx, err := repo.FindByOrderID(ctx, "O1")
		require.NoError(t, err)
		require.Equal(t, "A1", tx.AuthorizationID)
		require.Equal(t, "COMPLETED", tx.Status)
		require.Equal(t, "buyer@example.com", tx.PayerEmail)
	})

	t.Run("authorization with no local row still relays the body", func(t *testing.T) {
		fake := &fakePaypalClient{
			authorizeResult: orderResult(t, authorizedBody),
		}
		svc := NewCheckoutService(fake, newTestRepo(t), zap.NewNop())

		body, err := svc.AuthorizeOrder(ctx, "O1")
		require.NoError(t, err)
		require.JSONEq(t, authorizedBody, string(body))
	})

	t.Run("upstream not-found propagates", func(t *testing.T) {
		fake := &fakePaypalClient{
			authorizeErr: &client.UpstreamError{
				Operation:  "authorize order",
				StatusCode: http.StatusNotFound,
				Body:       []byte(`{"name":"RESOURCE_NOT_FOUND"}`),
			},
		}
		svc := NewCheckoutService(fake, newTestRepo(t), zap.NewNop())

		_, err := svc.AuthorizeOrder(ctx, "missing")
		var upstreamErr *client.UpstreamError
		require.ErrorAs(t, err, &upstreamErr)
		require.Equal(t, http.StatusNotFound, upstreamErr.StatusCode)
	})

	t.Run("response without authorization skips persistence", func(t *testing.T) {
		fake := &fakePaypalClient{
			authorizeResult: orderResult(t, `{"id":"O1","status":"CREATED","purchase_units":[]}`),
		}
		repo := newTestRepo(t)
		require.NoError(t, repo.Create(ctx, &model.Transaction{
			OrderID: "O1", Status: model.StatusCreated, Amount: "10.00", Currency: "USD",
		}))
		svc := NewCheckoutService(fake, repo, zap.NewNop())

		_, err := svc.AuthorizeOrder(ctx, "O1")
		require.NoError(t, err)

		tx, err := repo.FindByOrderID(ctx, "O1")
		require.NoError(t, err)
		require.Empty(t, tx.AuthorizationID)
		require.Equal(t, model.StatusCreated, tx.Status)
	})
}

func TestCapture(t *testing.T) {
	ctx := context.Background()

	t.Run("missing authorizationId is a validation error", func(t *testing.T) {
		fake := &fakePaypalClient{}
		svc := NewCheckoutService(fake, newTestRepo(t), zap.NewNop())

		_, err := svc.Capture(ctx, "")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Empty(t, fake.captureCalls)
	})

	t.Run("records capture id and status", func(t *testing.T) {
		fake := &fakePaypalClient{
			captureResult: captureResult(t, `{"id":"C1","status":"COMPLETED"}`),
		}
		repo := newTestRepo(t)
		require.NoError(t, repo.Create(ctx, &model.Transaction{
			OrderID: "O1", Status: model.StatusCreated, Amount: "10.00", Currency: "USD",
		}))
		require.NoError(t, repo.SetAuthorized(ctx, "O1", "A1", model.StatusApproved, ""))
		svc := NewCheckoutService(fake, repo, zap.NewNop())

		body, err := svc.Capture(ctx, "A1")
		require.NoError(t, err)
		require.JSONEq(t, `{"id":"C1","status":"COMPLETED"}`, string(body))

		tx, err := repo.FindByOrderID(ctx, "O1")
		require.NoError(t, err)
		require.Equal(t, "C1", tx.CaptureID)
		require.Equal(t, model.StatusCompleted, tx.Status)
	})

	t.Run("repeated capture leaves state consistent", func(t *testing.T) {
		fake := &fakePaypalClient{
			captureResult: captureResult(t, `{"id":"C1","status":"COMPLETED"}`),
		}
		repo := newTestRepo(t)
		require.NoError(t, repo.Create(ctx, &model.Transaction{
			OrderID: "O1", Status: model.StatusCreated, Amount: "10.00", Currency: "USD",
		}))
		require.NoError(t, repo.SetAuthorized(ctx, "O1", "A1", model.StatusApproved, ""))
		svc := NewCheckoutService(fake, repo, zap.NewNop())

		_, err := svc.Capture(ctx, "A1")
		require.NoError(t, err)
		_, err = svc.Capture(ctx, "A1")
		require.NoError(t, err)

		tx, err := repo.FindByOrderID(ctx, "O1")
		require.NoError(t, err)
		require.Equal(t, "C1", tx.CaptureID)
		require.Equal(t, model.StatusCompleted, tx.Status)
	})

	t.Run("capture response without id skips persistence", func(t *testing.T) {
		fake := &fakePaypalClient{
			captureResult: captureResult(t, `{"name":"AUTHORIZATION_ALREADY_CAPTURED"}`),
		}
		repo := newTestRepo(t)
		require.NoError(t, repo.Create(ctx, &model.Transaction{
			OrderID: "O1", Status: model.StatusCreated, Amount: "10.00", Currency: "USD",
		}))
		require.NoError(t, repo.SetAuthorized(ctx, "O1", "A1", model.StatusApproved, ""))
		svc := NewCheckoutService(fake, repo, zap.NewNop())

		_, err := svc.Capture(ctx, "A1")
		require.NoError(t, err)

		tx, err := repo.FindByOrderID(ctx, "O1")
		require.NoError(t, err)
		require.Empty(t, tx.CaptureID)
		require.Equal(t, model.StatusApproved, tx.Status)
	})
}

func TestVoid(t *testing.T) {
	ctx := context.Background()

	t.Run("missing authorizationId is a validation error", func(t *testing.T) {
		fake := &fakePaypalClient{}
		svc := NewCheckoutService(fake, newTestRepo(t), zap.NewNop())

		_, err := svc.Void(ctx, "")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Empty(t, fake.voidCalls)
	})

	t.Run("empty-success sets VOIDED and synthesizes a message", func(t *testing.T) {
		fake := &fakePaypalClient{
			voidResult: &client.VoidCallResult{Voided: true, StatusCode: http.StatusNoContent},
		}
		repo := newTestRepo(t)
		require.NoError(t, repo.Create(ctx, &model.Transaction{
			OrderID: "O1", Status: model.StatusCreated, Amount: "10.00", Currency: "USD",
		}))
		require.NoError(t, repo.SetAuthorized(ctx, "O1", "A1", model.StatusApproved, ""))
		svc := NewCheckoutService(fake, repo, zap.NewNop())

		outcome, err := svc.Void(ctx, "A1")
		require.NoError(t, err)
		require.True(t, outcome.Voided)
		require.Equal(t, "Authorization voided successfully", outcome.Message)

		tx, err := repo.FindByOrderID(ctx, "O1")
		require.NoError(t, err)
		require.Equal(t, model.StatusVoided, tx.Status)
	})

	t.Run("error body is relayed with its status", func(t *testing.T) {
		fake := &fakePaypalClient{
			voidResult: &client.VoidCallResult{
				Voided:     false,
				StatusCode: http.StatusUnprocessableEntity,
				Body:       json.RawMessage(`{"name":"AUTHORIZATION_ALREADY_CAPTURED"}`),
			},
		}
		repo := newTestRepo(t)
		require.NoError(t, repo.Create(ctx, &model.Transaction{
			OrderID: "O1", Status: model.StatusCreated, Amount: "10.00", Currency: "USD",
		}))
		require.NoError(t, repo.SetAuthorized(ctx, "O1", "A1", model.StatusApproved, ""))
		svc := NewCheckoutService(fake, repo, zap.NewNop())

		outcome, err := svc.Void(ctx, "A1")
		require.NoError(t, err)
		require.False(t, outcome.Voided)
		require.Equal(t, http.StatusUnprocessableEntity, outcome.StatusCode)

		// local status untouched on processor error
		tx, err := repo.FindByOrderID(ctx, "O1")
		require.NoError(t, err)
		require.Equal(t, model.StatusApproved, tx.Status)
	})

	t.Run("void with no local row still succeeds", func(t *testing.T) {
		fake := &fakePaypalClient{
			voidResult: &client.VoidCallResult{Voided: true, StatusCode: http.StatusNoContent},
		}
		svc := NewCheckoutService(fake, newTestRepo(t), zap.NewNop())

		outcome, err := svc.Void(ctx, "A1")
		require.NoError(t, err)
		require.True(t, outcome.Voided)
	})
}
