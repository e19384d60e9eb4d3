package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"marketplace/internal/model"
)

// PurchaseRepository defines purchase persistence operations.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.Purchase) error
	Update(ctx context.Context, purchase *model.Purchase) error
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Purchase, error)
	ListByBuyer(ctx context.Context, buyer uuid.UUID) ([]model.Purchase, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository creates a new purchase repository.
func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

// Create creates a new purchase record.
func (r *purchaseRepository) Create(ctx context.Context, purchase *model.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

// Update updates an existing purchase record.
func (r *purchaseRepository) Update(ctx context.Context, purchase *model.Purchase) error {
	return r.db.WithContext(ctx).Save(purchase).Error
}

// FindByIdempotencyKey finds the purchase submitted with key.
func (r *purchaseRepository) FindByIdempotencyKey(ctx context.Context, key string) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ListByBuyer returns the buyer's purchases, newest first.
func (r *purchaseRepository) ListByBuyer(ctx context.Context, buyer uuid.UUID) ([]model.Purchase, error) {
	var purchases []model.Purchase
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyer).
		Order("created_at DESC").
		Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}

// PurchaseLogRepository defines purchase log persistence operations.
type PurchaseLogRepository interface {
	Create(ctx context.Context, log *model.PurchaseLog) error
	CreateBatch(ctx context.Context, logs []model.PurchaseLog) error
}

type purchaseLogRepository struct {
	db *gorm.DB
}

// NewPurchaseLogRepository creates a new purchase log repository.
func NewPurchaseLogRepository(db *gorm.DB) PurchaseLogRepository {
	return &purchaseLogRepository{db: db}
}

// Create creates a new purchase log entry.
func (r *purchaseLogRepository) Create(ctx context.Context, log *model.PurchaseLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// CreateBatch creates multiple purchase log entries in a single statement.
func (r *purchaseLogRepository) CreateBatch(ctx context.Context, logs []model.PurchaseLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(logs, 100).Error
}
