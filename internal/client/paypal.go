package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"paypal-checkout-relay/internal/config"
	"paypal-checkout-relay/internal/model"
)

// AuthError means the token exchange failed: transport failure, non-2xx
// status, or an error field in the token response.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return "paypal token exchange: " + e.Err.Error() }
func (e *AuthError) Unwrap() error { return e.Err }

// UpstreamError means a lifecycle call failed: transport failure or a
// non-2xx response. Body carries whatever paypal returned.
type UpstreamError struct {
	Operation  string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("paypal %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("paypal %s: status=%d body=%s", e.Operation, e.StatusCode, string(e.Body))
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// OrderCallResult is a create/authorize response: the verbatim body for
// relaying plus the decoded fields the relay persists.
type OrderCallResult struct {
	Body  json.RawMessage
	Order model.OrderResult
}

type CaptureCallResult struct {
	Body    json.RawMessage
	Capture model.CaptureResult
}

// VoidCallResult distinguishes paypal's empty-success void response from
// an error body. Voided is true on 2xx with no content.
type VoidCallResult struct {
	Voided     bool
	StatusCode int
	Body       json.RawMessage
}

type PaypalClient interface {
	CreateOrder(ctx context.Context, amount, currency string) (*OrderCallResult, error)
	AuthorizeOrder(ctx context.Context, orderID string) (*OrderCallResult, error)
	CaptureAuthorization(ctx context.Context, authorizationID string) (*CaptureCallResult, error)
	VoidAuthorization(ctx context.Context, authorizationID string) (*VoidCallResult, error)
}

type paypalClientImpl struct {
	httpClient         *http.Client
	baseApiURL         string
	paypalClientID     string
	paypalClientSecret string
}

func NewPaypalClient(paypalCfg *config.Paypal) PaypalClient {
	return &paypalClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:         paypalCfg.BaseAPIURL(),
		paypalClientID:     paypalCfg.ClientID,
		paypalClientSecret: paypalCfg.ClientSecret,
	}
}

// getAccessToken exchanges merchant credentials for a bearer token. No
// caching: every lifecycle call fetches a fresh token.
func (c *paypalClientImpl) getAccessToken(ctx context.Context) (string, error) {
	auth := base64.StdEncoding.EncodeToString(
		[]byte(c.paypalClientID + ":" + c.paypalClientSecret),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v1/oauth2/token",
		bytes.NewBufferString("grant_type=client_credentials"))
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("http new request: %w", err)}
	}
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("http client do: %w", err)}
	}
	defer resp.Body.Close()

	var res struct {
		AccessToken      string `json:"access_token"`
		ErrorCode        string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", &AuthError{Err: fmt.Errorf("decode token response: %w", err)}
	}

	if res.ErrorCode != "" {
		desc := res.ErrorDescription
		if desc == "" {
			desc = res.ErrorCode
		}
		return "", &AuthError{Err: fmt.Errorf("%s", desc)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &AuthError{Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if res.AccessToken == "" {
		return "", &AuthError{Err: fmt.Errorf("empty access token")}
	}

	return res.AccessToken, nil
}

func (c *paypalClientImpl) CreateOrder(ctx context.Context, amount, currency string) (*OrderCallResult, error) {
	payload := map[string]interface{}{
		"intent": "AUTHORIZE",
		"purchase_units": []map[string]interface{}{
			{
				"amount": map[string]string{
					"currency_code": currency,
					"value":         amount,
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &UpstreamError{Operation: "create order", Err: fmt.Errorf("marshal req payload: %w", err)}
	}

	raw, err := c.doLifecycleCall(ctx, "create order", c.baseApiURL+"/v2/checkout/orders", body)
	if err != nil {
		return nil, err
	}

	result := &OrderCallResult{Body: raw}
	if err := json.Unmarshal(raw, &result.Order); err != nil {
		return nil, &UpstreamError{Operation: "create order", Err: fmt.Errorf("decode paypal response: %w", err)}
	}
	return result, nil
}

func (c *paypalClientImpl) AuthorizeOrder(ctx context.Context, orderID string) (*OrderCallResult, error) {
	url := fmt.Sprintf("%s/v2/checkout/orders/%s/authorize", c.baseApiURL, orderID)

	raw, err := c.doLifecycleCall(ctx, "authorize order", url, nil)
	if err != nil {
		return nil, err
	}

	result := &OrderCallResult{Body: raw}
	if err := json.Unmarshal(raw, &result.Order); err != nil {
		return nil, &UpstreamError{Operation: "authorize order", Err: fmt.Errorf("decode paypal response: %w", err)}
	}
	return result, nil
}

// CaptureAuthorization settles the full remaining authorized balance
// (final-capture mode); no amount is sent.
func (c *paypalClientImpl) CaptureAuthorization(ctx context.Context, authorizationID string) (*CaptureCallResult, error) {
	url := fmt.Sprintf("%s/v2/payments/authorizations/%s/capture", c.baseApiURL, authorizationID)
	body := []byte(`{"final_capture":true}`)

	raw, err := c.doLifecycleCall(ctx, "capture", url, body)
	if err != nil {
		return nil, err
	}

	result := &CaptureCallResult{Body: raw}
	if err := json.Unmarshal(raw, &result.Capture); err != nil {
		return nil, &UpstreamError{Operation: "capture", Err: fmt.Errorf("decode paypal response: %w", err)}
	}
	return result, nil
}

// VoidAuthorization special-cases paypal's success signal: a 2xx with an
// empty body. A non-2xx error body is returned for relaying, not wrapped
// as an UpstreamError.
func (c *paypalClientImpl) VoidAuthorization(ctx context.Context, authorizationID string) (*VoidCallResult, error) {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v2/payments/authorizations/%s/void", c.baseApiURL, authorizationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, &UpstreamError{Operation: "void", Err: fmt.Errorf("http new request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Operation: "void", Err: fmt.Errorf("http client do: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Operation: "void", Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && len(bytes.TrimSpace(raw)) == 0 {
		return &VoidCallResult{Voided: true, StatusCode: resp.StatusCode}, nil
	}

	return &VoidCallResult{
		Voided:     false,
		StatusCode: resp.StatusCode,
		Body:       raw,
	}, nil
}

// doLifecycleCall runs the shared token-then-POST sequence and returns
// the verbatim response body. A nil body sends no payload.
func (c *paypalClientImpl) doLifecycleCall(ctx context.Context, operation, url string, body []byte) (json.RawMessage, error) {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewBuffer(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return nil, &UpstreamError{Operation: operation, Err: fmt.Errorf("http new request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Operation: operation, Err: fmt.Errorf("http client do: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Operation: operation, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Operation: operation, StatusCode: resp.StatusCode, Body: raw}
	}

	return raw, nil
}
