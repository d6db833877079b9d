package model

// Partial shapes of the PayPal v2 responses. Only the fields the relay
// needs for persistence are decoded; the full body is relayed as-is.

type Payer struct {
	PayerID string `json:"payer_id"`
	Email   string `json:"email_address"`
}

type Amount struct {
	Currency string `json:"currency_code"`
	Value    string `json:"value"`
}

type Authorization struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount Amount `json:"amount"`
}

type Payments struct {
	Authorizations []Authorization `json:"authorizations"`
}

type PurchaseUnit struct {
	ReferenceID string   `json:"reference_id"`
	Payments    Payments `json:"payments"`
}

type OrderResult struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Payer         Payer          `json:"payer"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units"`
}

// FirstAuthorizationID returns the id of the first authorization in the
// first purchase unit, or "" when the response carries none.
func (r *OrderResult) FirstAuthorizationID() string {
	for _, pu := range r.PurchaseUnits {
		for _, auth := range pu.Payments.Authorizations {
			return auth.ID
		}
	}
	return ""
}

type CaptureResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount Amount `json:"amount"`
}
