// Package service contains the business logic layer.
//
// Handlers parse HTTP and delegate here; this layer validates input and
// enforces what few rules the domain has, then calls the repository. It
// returns apperror values, never HTTP status codes, so the same logic could
// back a CLI or a different transport unchanged.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shareplate/shareplate/internal/apperror"
	"github.com/shareplate/shareplate/internal/model"
	"github.com/shareplate/shareplate/internal/repository"
)

// Validation bounds. Quantity and location are free text by design, so they
// only get the generic length cap.
const (
	MaxTitleLength    = 200
	MaxFreeTextLength = 2000
	MaxMessageLength  = 1000
)

// ListingInput is what a donor submits to create a listing. ImageURL is
// optional; everything else is required.
type ListingInput struct {
	Title       string
	Description string
	Quantity    string
	Location    string
	ImageURL    *string
	ExpiresAt   time.Time
}

// ListingService handles the listing side of the domain.
type ListingService struct {
	repo   repository.ListingRepository
	logger *slog.Logger
}

// NewListingService creates a ListingService. The caller decides which
// repository implementation to inject (sqlite in main, a mock in tests).
func NewListingService(repo repository.ListingRepository, logger *slog.Logger) *ListingService {
	return &ListingService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates and saves a new listing for the given donor.
// The repository assigns the id, the "available" status, and the creation
// timestamp; the returned listing carries all of them.
func (s *ListingService) Create(ctx context.Context, donorID string, input ListingInput) (*model.Listing, error) {
	if donorID == "" {
		return nil, apperror.Unauthorized("a donor identity is required to post a listing")
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Quantity = strings.TrimSpace(input.Quantity)
	input.Location = strings.TrimSpace(input.Location)

	// Report the first offending field, in the order the form shows them.
	switch {
	case input.Title == "":
		return nil, apperror.ValidationFailed("title", "title is required")
	case len(input.Title) > MaxTitleLength:
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	case input.Description == "":
		return nil, apperror.ValidationFailed("description", "description is required")
	case len(input.Description) > MaxFreeTextLength:
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxFreeTextLength))
	case input.Quantity == "":
		return nil, apperror.ValidationFailed("quantity", "quantity is required")
	case input.Location == "":
		return nil, apperror.ValidationFailed("location", "location is required")
	case input.ExpiresAt.IsZero():
		return nil, apperror.ValidationFailed("expiresAt", "expiry time is required")
	}

	listing := &model.Listing{
		DonorID:     donorID,
		Title:       input.Title,
		Description: input.Description,
		Quantity:    input.Quantity,
		Location:    input.Location,
		ImageURL:    input.ImageURL,
		ExpiresAt:   input.ExpiresAt,
	}

	if err := s.repo.CreateListing(ctx, listing); err != nil {
		s.logger.Error("failed to create listing",
			slog.String("donorID", donorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating listing: %w", err)
	}

	s.logger.Info("listing created",
		slog.Int64("id", listing.ID),
		slog.String("donorID", donorID),
		slog.String("title", listing.Title),
	)

	return listing, nil
}

// GetByID retrieves a listing regardless of its status.
// Returns apperror.ErrNotFound if it doesn't exist.
func (s *ListingService) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	return s.repo.GetListing(ctx, id)
}

// ListAvailable returns the public feed, newest first. Listings in any other
// status are excluded even though no code path currently moves them there.
func (s *ListingService) ListAvailable(ctx context.Context) ([]model.Listing, error) {
	listings, err := s.repo.ListAvailableListings(ctx)
	if err != nil {
		s.logger.Error("failed to list listings", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing listings: %w", err)
	}
	return listings, nil
}
