package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseStatus represents the status of a purchase.
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusSucceeded PurchaseStatus = "succeeded"
	PurchaseStatusFailed    PurchaseStatus = "failed"
)

// Purchase records a buyer paying for a listing through the payment processor.
type Purchase struct {
	ID             uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	ListingID      uuid.UUID       `json:"listing_id" gorm:"type:char(36);not null;index"`
	BuyerID        uuid.UUID       `json:"buyer_id" gorm:"type:char(36);not null;index"`
	SellerID       uuid.UUID       `json:"seller_id" gorm:"type:char(36);not null;index"`
	Title          string          `json:"title" gorm:"size:255;not null"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	AmountMinor    int64           `json:"amount_minor" gorm:"not null"`
	Currency       string          `json:"currency" gorm:"size:3;not null"`
	IdempotencyKey string          `json:"-" gorm:"size:64;not null;uniqueIndex"`
	CustomerRef    string          `json:"customer_ref,omitempty" gorm:"size:255"`
	ChargeRef      string          `json:"charge_ref,omitempty" gorm:"size:255"`
	Status         PurchaseStatus  `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	ErrorMessage   string          `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PurchaseLog represents a log entry for a purchase attempt.
// Every status transition is logged regardless of success or failure.
type PurchaseLog struct {
	ID           uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	PurchaseID   uuid.UUID      `json:"purchase_id" gorm:"type:char(36);not null;index"`
	Status       PurchaseStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	ErrorMessage string         `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt    time.Time      `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (pl *PurchaseLog) BeforeCreate(tx *gorm.DB) error {
	if pl.ID == uuid.Nil {
		pl.ID = uuid.New()
	}
	return nil
}
