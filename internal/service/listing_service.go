package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"marketplace/internal/cache"
	apperrors "marketplace/internal/errors"
	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/internal/storage"
)

const (
	listingCacheTTL = 5 * time.Minute
	// RecentListings is the size of the landing page widget.
	RecentListings = 3
)

// ListingInput carries the editable listing fields.
type ListingInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Category    string
	// Version is the version the edit form was rendered from; zero skips the check.
	Version int
}

// CommentInput carries a comment form.
type CommentInput struct {
	Title string
	Body  string
}

// ListingView is a listing prepared for the detail page.
type ListingView struct {
	model.Listing
	IsOwner    bool
	PriceMinor int64
}

// ListingService implements the listing workflow.
type ListingService interface {
	Recent(ctx context.Context, viewer *uuid.UUID, n int) ([]model.Listing, error)
	Browse(ctx context.Context, viewer *uuid.UUID) ([]model.Listing, error)
	ByCategory(ctx context.Context, viewer *uuid.UUID, category string) ([]model.Listing, error)
	Search(ctx context.Context, viewer *uuid.UUID, query string) ([]model.Listing, error)
	Mine(ctx context.Context, owner uuid.UUID) ([]model.Listing, error)
	Get(ctx context.Context, viewer *uuid.UUID, id uuid.UUID) (*ListingView, error)
	ForEdit(ctx context.Context, actor, id uuid.UUID) (*model.Listing, error)
	Create(ctx context.Context, owner uuid.UUID, in ListingInput, photo *storage.Upload) (*model.Listing, error)
	Update(ctx context.Context, actor, id uuid.UUID, in ListingInput, photo *storage.Upload) (*model.Listing, error)
	Delete(ctx context.Context, actor, id uuid.UUID) error
	AddComment(ctx context.Context, actor, id uuid.UUID, in CommentInput) (*model.Comment, error)
}

type listingService struct {
	listings repository.ListingRepository
	users    repository.UserRepository
	storage  storage.Service
	cache    *cache.Client
	maxPhoto int64
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewListingService creates a new listing service.
func NewListingService(
	listings repository.ListingRepository,
	users repository.UserRepository,
	store storage.Service,
	cache *cache.Client,
	maxPhoto int64,
	log logrus.FieldLogger,
) ListingService {
	return &listingService{
		listings: listings,
		users:    users,
		storage:  store,
		cache:    cache,
		maxPhoto: maxPhoto,
		log:      log,
		now:      time.Now,
	}
}

func (s *listingService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("listing:%s", id.String())
}

func (s *listingService) invalidate(ctx context.Context, id uuid.UUID) {
	_ = s.cache.Delete(ctx, s.cacheKey(id))
}

// Recent returns the n newest listings not owned by viewer.
func (s *listingService) Recent(ctx context.Context, viewer *uuid.UUID, n int) ([]model.Listing, error) {
	return s.list(ctx, repository.ListFilter{Exclude: viewer, Limit: n})
}

// Browse returns every listing not owned by viewer, newest first.
func (s *listingService) Browse(ctx context.Context, viewer *uuid.UUID) ([]model.Listing, error) {
	return s.list(ctx, repository.ListFilter{Exclude: viewer})
}

// ByCategory is Browse restricted to one category.
func (s *listingService) ByCategory(ctx context.Context, viewer *uuid.UUID, category string) ([]model.Listing, error) {
	return s.list(ctx, repository.ListFilter{Exclude: viewer, Category: strings.TrimSpace(category)})
}

// Search runs a full-text query. The viewer's own listings are excluded by the store.
func (s *listingService) Search(ctx context.Context, viewer *uuid.UUID, query string) ([]model.Listing, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.Browse(ctx, viewer)
	}
	listings, err := s.listings.Search(ctx, query, repository.ListFilter{Exclude: viewer})
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	return listings, nil
}

// Mine returns the owner's listings.
func (s *listingService) Mine(ctx context.Context, owner uuid.UUID) ([]model.Listing, error) {
	return s.list(ctx, repository.ListFilter{Owner: &owner})
}

func (s *listingService) list(ctx context.Context, filter repository.ListFilter) ([]model.Listing, error) {
	listings, err := s.listings.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listings, nil
}

// Get returns the listing with owner flag and minor-unit price, using the cache.
func (s *listingService) Get(ctx context.Context, viewer *uuid.UUID, id uuid.UUID) (*ListingView, error) {
	listing, err := s.cached(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &ListingView{
		Listing:    *listing,
		PriceMinor: listing.MinorUnits(),
	}
	if viewer != nil {
		view.IsOwner = listing.IsOwnedBy(*viewer)
	}
	return view, nil
}

func (s *listingService) cached(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.Listing
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	listing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(listing); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, listingCacheTTL)
	}
	return listing, nil
}

func (s *listingService) find(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrListingNotFound
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return listing, nil
}

// owned loads a listing and checks that actor owns it.
func (s *listingService) owned(ctx context.Context, actor, id uuid.UUID) (*model.Listing, error) {
	listing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !listing.IsOwnedBy(actor) {
		return nil, apperrors.ErrNotOwner
	}
	return listing, nil
}

// ForEdit returns the listing for its owner's edit form.
func (s *listingService) ForEdit(ctx context.Context, actor, id uuid.UUID) (*model.Listing, error) {
	return s.owned(ctx, actor, id)
}

func normalizeListing(in ListingInput) (ListingInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)

	switch {
	case in.Title == "":
		return in, apperrors.Validation("Title is required")
	case tooLong(in.Title, model.TitleMaxLen):
		return in, apperrors.Validation("Title must be 255 characters or fewer")
	case in.Description == "":
		return in, apperrors.Validation("Description is required")
	case tooLong(in.Description, model.TextMaxLen):
		return in, apperrors.Validation("Description must be 10000 characters or fewer")
	case !in.Price.IsPositive():
		return in, apperrors.Validation("Price must be greater than 0")
	case in.Price.GreaterThan(model.MaxPrice):
		return in, apperrors.Validation("Price must be 999999.99 or less")
	case in.Category == "":
		return in, apperrors.Validation("Category is required")
	case tooLong(in.Category, model.CategoryMaxLen):
		return in, apperrors.Validation("Category must be 100 characters or fewer")
	}
	in.Price = in.Price.Round(2)
	return in, nil
}

// savePhoto validates and stores an upload, returning its reference.
func (s *listingService) savePhoto(ctx context.Context, photo *storage.Upload) (string, error) {
	contentType, err := storage.ValidateImage(photo, s.maxPhoto)
	if err != nil {
		return "", err
	}
	key := storage.ObjectKey(photo.Field, photo.Filename, s.now())
	ref, err := s.storage.Save(ctx, key, bytes.NewReader(photo.Data), photo.Size(), contentType)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("store listing photo")
		return "", apperrors.Upstream("could not store photo", err)
	}
	return ref, nil
}

func (s *listingService) dropPhoto(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.storage.Delete(ctx, ref); err != nil {
		s.log.WithError(err).WithField("photo", ref).Warn("remove listing photo")
	}
}

// Create validates the form, stores the photo and persists the listing.
func (s *listingService) Create(ctx context.Context, owner uuid.UUID, in ListingInput, photo *storage.Upload) (*model.Listing, error) {
	in, err := normalizeListing(in)
	if err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, apperrors.ErrPhotoRequired
	}
	if _, err := storage.ValidateImage(photo, s.maxPhoto); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, owner)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find owner: %w", err)
	}

	ref, err := s.savePhoto(ctx, photo)
	if err != nil {
		return nil, err
	}

	listing := &model.Listing{
		UserID:      user.ID,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Photo:       ref,
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		s.dropPhoto(ctx, ref)
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return listing, nil
}

// Update applies an edit by the owner. Without a new photo the existing one is kept.
func (s *listingService) Update(ctx context.Context, actor, id uuid.UUID, in ListingInput, photo *storage.Upload) (*model.Listing, error) {
	listing, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	in, err = normalizeListing(in)
	if err != nil {
		return nil, err
	}

	expected := in.Version
	if expected == 0 {
		expected = listing.Version
	}
	if expected != listing.Version {
		return nil, apperrors.ErrVersionConflict
	}

	oldPhoto := listing.Photo
	newPhoto := ""
	if photo != nil {
		if newPhoto, err = s.savePhoto(ctx, photo); err != nil {
			return nil, err
		}
		listing.Photo = newPhoto
	}

	listing.Title = in.Title
	listing.Description = in.Description
	listing.Price = in.Price
	listing.Category = in.Category

	if err := s.listings.UpdateVersioned(ctx, listing, expected); err != nil {
		s.dropPhoto(ctx, newPhoto)
		if errors.Is(err, repository.ErrStaleVersion) {
			return nil, apperrors.ErrVersionConflict
		}
		return nil, fmt.Errorf("update listing: %w", err)
	}
	s.invalidate(ctx, id)

	if newPhoto != "" && newPhoto != oldPhoto {
		s.dropPhoto(ctx, oldPhoto)
	}
	return listing, nil
}

// Delete removes the owner's listing, its comments and its photo.
func (s *listingService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	listing, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.listings.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return apperrors.ErrListingNotFound
		}
		return fmt.Errorf("delete listing: %w", err)
	}
	s.invalidate(ctx, id)
	s.dropPhoto(ctx, listing.Photo)
	return nil
}

// AddComment appends a comment by actor to the listing.
func (s *listingService) AddComment(ctx context.Context, actor, id uuid.UUID, in CommentInput) (*model.Comment, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	if in.Title == "" {
		return nil, apperrors.Validation("Title is required")
	}
	if tooLong(in.Title, model.TitleMaxLen) {
		return nil, apperrors.Validation("Title must be 255 characters or fewer")
	}
	if in.Body == "" {
		return nil, apperrors.Validation("Comment is required")
	}
	if tooLong(in.Body, model.TextMaxLen) {
		return nil, apperrors.Validation("Comment must be 10000 characters or fewer")
	}

	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	author, err := s.users.FindByID(ctx, actor)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find author: %w", err)
	}

	comment := &model.Comment{
		ListingID: id,
		UserID:    author.ID,
		FirstName: author.FirstName,
		LastName:  author.LastName,
		Title:     in.Title,
		Body:      in.Body,
	}
	if err := s.listings.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	s.invalidate(ctx, id)
	return comment, nil
}
