package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"paypal-checkout-relay/internal/model"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) error
	FindByOrderID(ctx context.Context, orderID string) (*model.Transaction, error)
	SetAuthorized(ctx context.Context, orderID, authorizationID, status, payerEmail string) error
	SetCaptured(ctx context.Context, authorizationID, captureID, status string) error
	MarkVoided(ctx context.Context, authorizationID string) error
}

type transactionRepoImpl struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepoImpl{
		db: db,
	}
}

func (r *transactionRepoImpl) Create(ctx context.Context, tx *model.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *transactionRepoImpl) FindByOrderID(ctx context.Context, orderID string) (*model.Transaction, error) {
	var tx model.Transaction
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&tx).Error

	if err != nil {
		return nil, err
	}

	return &tx, nil
}

func (r *transactionRepoImpl) SetAuthorized(ctx context.Context, orderID, authorizationID, status, payerEmail string) error {
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"authorization_id": authorizationID,
			"status":           status,
			"payer_email":      payerEmail,
			"updated_at":       time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetCaptured is idempotent per authorization_id: the update is keyed by
// authorization_id and writes the same capture_id/status on replay, so a
// repeated capture of one authorization cannot diverge local state.
func (r *transactionRepoImpl) SetCaptured(ctx context.Context, authorizationID, captureID, status string) error {
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("authorization_id = ?", authorizationID).
		Updates(map[string]interface{}{
			"capture_id": captureID,
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *transactionRepoImpl) MarkVoided(ctx context.Context, authorizationID string) error {
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("authorization_id = ?", authorizationID).
		Updates(map[string]interface{}{
			"status":     model.StatusVoided,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
