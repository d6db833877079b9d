package model

import "time"

// Transaction status values mirror what PayPal reports for the order.
// VOIDED is set locally on an empty-success void response.
const (
	StatusCreated   = "CREATED"
	StatusApproved  = "APPROVED"
	StatusCompleted = "COMPLETED"
	StatusVoided    = "VOIDED"
)

// Transaction mirrors one order's lifecycle: one row per paypal order,
// updated in place as the order moves through authorize/capture/void.
// PayPal is the source of truth; this row is a local mirror.
type Transaction struct {
	OrderID         string `gorm:"primaryKey;size:64;not null"` // paypal order id
	Status          string `gorm:"size:32;index;not null"`
	Amount          string `gorm:"size:32;not null"` // decimal string, immutable after create
	Currency        string `gorm:"size:8;not null"`  // ISO code, immutable after create
	AuthorizationID string `gorm:"size:64;index"`    // set on successful authorize
	CaptureID       string `gorm:"size:64"`          // set on successful capture
	PayerEmail      string `gorm:"size:128"`         // set on authorize when paypal supplies it

	CreatedAt time.Time
	UpdatedAt time.Time
}
