package dto

type CreateOrderRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type AuthorizeOrderRequest struct {
	OrderID string `json:"orderId"`
}

// Amount and Currency are accepted for wire compatibility with existing
// storefront callers but not forwarded: capture runs in final-capture
// mode, settling the full remaining authorized balance.
type CaptureRequest struct {
	AuthorizationID string `json:"authorizationId"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
}

type VoidRequest struct {
	AuthorizationID string `json:"authorizationId"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
