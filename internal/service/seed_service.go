package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"marketplace/internal/auth"
	"marketplace/internal/model"
	"marketplace/internal/repository"
)

// SeedUser is a fixture member with the listings they own.
type SeedUser struct {
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Email     string        `json:"email"`
	Password  string        `json:"password"`
	Listings  []SeedListing `json:"listings"`
}

// SeedListing is a fixture listing. Photo is a ready public reference.
type SeedListing struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Photo       string `json:"photo"`
}

// SeedResult counts what a seed run wrote.
type SeedResult struct {
	UsersCreated    int
	ListingsCreated int
	Skipped         int
}

// SeedService loads fixture data. Running it twice creates nothing new.
type SeedService struct {
	users    repository.UserRepository
	listings repository.ListingRepository
	log      logrus.FieldLogger
}

// NewSeedService creates a new seed service.
func NewSeedService(users repository.UserRepository, listings repository.ListingRepository, log logrus.FieldLogger) *SeedService {
	return &SeedService{users: users, listings: listings, log: log}
}

// Seed creates missing users, matched by email, and their missing listings, matched by title.
func (s *SeedService) Seed(ctx context.Context, fixture []SeedUser) (SeedResult, error) {
	var result SeedResult
	for _, item := range fixture {
		owner, created, err := s.ensureUser(ctx, item)
		if err != nil {
			return result, err
		}
		if owner == nil {
			result.Skipped++
			continue
		}
		if created {
			result.UsersCreated++
		}

		for _, l := range item.Listings {
			ok, err := s.ensureListing(ctx, owner, l)
			if err != nil {
				return result, err
			}
			if ok {
				result.ListingsCreated++
			}
		}
	}
	return result, nil
}

func (s *SeedService) ensureUser(ctx context.Context, item SeedUser) (*model.User, bool, error) {
	email := NormalizeEmail(item.Email)
	if email == "" || len(item.Password) < 8 {
		s.log.WithField("email", item.Email).Warn("skipping seed user without email or password")
		return nil, false, nil
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return existing, false, nil
	}
	if err != nil && !repository.IsNotFound(err) {
		return nil, false, fmt.Errorf("check user %s: %w", email, err)
	}

	hash, err := auth.HashPassword(item.Password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{
		FirstName:    strings.TrimSpace(item.FirstName),
		LastName:     strings.TrimSpace(item.LastName),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create user %s: %w", email, err)
	}
	return user, true, nil
}

func (s *SeedService) ensureListing(ctx context.Context, owner *model.User, l SeedListing) (bool, error) {
	title := strings.TrimSpace(l.Title)
	price, err := decimal.NewFromString(strings.TrimSpace(l.Price))
	if title == "" || err != nil || !price.IsPositive() {
		s.log.WithFields(logrus.Fields{"title": l.Title, "price": l.Price}).Warn("skipping invalid seed listing")
		return false, nil
	}

	_, err = s.listings.FindByTitle(ctx, owner.ID, title)
	if err == nil {
		return false, nil
	}
	if !repository.IsNotFound(err) {
		return false, fmt.Errorf("check listing %q: %w", title, err)
	}

	listing := &model.Listing{
		UserID:      owner.ID,
		FirstName:   owner.FirstName,
		LastName:    owner.LastName,
		Title:       title,
		Description: strings.TrimSpace(l.Description),
		Price:       price,
		Category:    strings.TrimSpace(l.Category),
		Photo:       l.Photo,
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		return false, fmt.Errorf("create listing %q: %w", title, err)
	}
	return true, nil
}
