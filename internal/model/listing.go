package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Listing is an item offered for sale. Owner names are copied from the user at
// creation time and never re-synced.
type Listing struct {
	ID          uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	UserID      uuid.UUID       `json:"user" gorm:"type:char(36);not null;index"`
	FirstName   string          `json:"first_name" gorm:"size:100;not null;index:idx_listings_search,class:FULLTEXT"`
	LastName    string          `json:"last_name" gorm:"size:100;not null;index:idx_listings_search,class:FULLTEXT"`
	Title       string          `json:"title" gorm:"size:255;not null;index:idx_listings_search,class:FULLTEXT"`
	Description string          `json:"description" gorm:"type:text;not null;index:idx_listings_search,class:FULLTEXT"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(20,2);not null"`
	Category    string          `json:"category" gorm:"size:100;not null;index"`
	Photo       string          `json:"photo" gorm:"size:512;not null"`
	Version     int             `json:"version" gorm:"not null;default:1"`
	CreatedAt   time.Time       `json:"date" gorm:"index"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Relations
	Comments []Comment `json:"comments,omitempty" gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID and initial version before creating the record.
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Version == 0 {
		l.Version = 1
	}
	return nil
}

// IsOwnedBy reports whether id is the listing owner.
func (l *Listing) IsOwnedBy(id uuid.UUID) bool {
	return id != uuid.Nil && l.UserID == id
}

// MinorUnits converts the price to the smallest currency unit (cents).
func (l *Listing) MinorUnits() int64 {
	return l.Price.Shift(2).Round(0).IntPart()
}

// OwnerName is the denormalised owner name.
func (l *Listing) OwnerName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// Comment is a note left on a listing by a member.
type Comment struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	ListingID uuid.UUID `json:"listing" gorm:"type:char(36);not null;index"`
	UserID    uuid.UUID `json:"user" gorm:"type:char(36);not null;index"`
	FirstName string    `json:"first_name" gorm:"size:100;not null"`
	LastName  string    `json:"last_name" gorm:"size:100;not null"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	Body      string    `json:"comment" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"date"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
