package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"marketplace/internal/model"
)

// ErrStaleVersion is returned by UpdateVersioned when no row matched the expected version.
var ErrStaleVersion = errors.New("listing version changed")

// ListFilter narrows a listing query. Zero values mean "no constraint".
type ListFilter struct {
	// Exclude drops listings owned by this user.
	Exclude  *uuid.UUID
	Owner    *uuid.UUID
	Category string
	Limit    int
}

// ListingRepository defines listing persistence operations.
type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Listing, error)
	List(ctx context.Context, filter ListFilter) ([]model.Listing, error)
	Search(ctx context.Context, query string, filter ListFilter) ([]model.Listing, error)
	UpdateVersioned(ctx context.Context, listing *model.Listing, expectedVersion int) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddComment(ctx context.Context, comment *model.Comment) error
	FindByTitle(ctx context.Context, owner uuid.UUID, title string) (*model.Listing, error)
}

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository.
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

// Create creates a new listing.
func (r *listingRepository) Create(ctx context.Context, listing *model.Listing) error {
	return r.db.WithContext(ctx).Omit("Comments").Create(listing).Error
}

// FindByID finds a listing by ID with its comments, newest first.
func (r *listingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	var listing model.Listing
	err := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("id = ?", id).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// List returns listings newest first.
func (r *listingRepository) List(ctx context.Context, filter ListFilter) ([]model.Listing, error) {
	var listings []model.Listing
	q := applyFilter(r.db.WithContext(ctx).Model(&model.Listing{}), filter).
		Order("created_at DESC")
	if err := q.Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// Search runs a natural language full-text query over title, description and owner name.
// The filter's exclusion is applied in the same statement.
func (r *listingRepository) Search(ctx context.Context, query string, filter ListFilter) ([]model.Listing, error) {
	var listings []model.Listing
	q := r.db.WithContext(ctx).Model(&model.Listing{}).
		Where("MATCH(first_name, last_name, title, description) AGAINST(? IN NATURAL LANGUAGE MODE)", query)
	q = applyFilter(q, filter).Order("created_at DESC")
	if err := q.Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

func applyFilter(q *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.Exclude != nil {
		q = q.Where("user_id <> ?", *filter.Exclude)
	}
	if filter.Owner != nil {
		q = q.Where("user_id = ?", *filter.Owner)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	return q
}

// UpdateVersioned writes the editable fields only if the stored version still equals
// expectedVersion, and bumps the version.
func (r *listingRepository) UpdateVersioned(ctx context.Context, listing *model.Listing, expectedVersion int) error {
	res := r.db.WithContext(ctx).Model(&model.Listing{}).
		Where("id = ? AND version = ?", listing.ID, expectedVersion).
		Updates(map[string]interface{}{
			"title":       listing.Title,
			"description": listing.Description,
			"price":       listing.Price,
			"category":    listing.Category,
			"photo":       listing.Photo,
			"version":     expectedVersion + 1,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	listing.Version = expectedVersion + 1
	return nil
}

// Delete removes a listing and its comments in one transaction.
func (r *listingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Listing{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// AddComment stores a comment on a listing.
func (r *listingRepository) AddComment(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// FindByTitle finds a listing of owner by exact title.
func (r *listingRepository) FindByTitle(ctx context.Context, owner uuid.UUID, title string) (*model.Listing, error) {
	var listing model.Listing
	if err := r.db.WithContext(ctx).Where("user_id = ? AND title = ?", owner, title).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}
