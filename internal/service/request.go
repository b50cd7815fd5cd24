package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shareplate/shareplate/internal/apperror"
	"github.com/shareplate/shareplate/internal/model"
	"github.com/shareplate/shareplate/internal/repository"
)

// RequestService handles pickup requests against listings.
type RequestService struct {
	repo   repository.RequestRepository
	logger *slog.Logger
}

// NewRequestService creates a RequestService.
func NewRequestService(repo repository.RequestRepository, logger *slog.Logger) *RequestService {
	return &RequestService{
		repo:   repo,
		logger: logger,
	}
}

// Create files a request against a listing. The message is optional.
//
// Deliberately permissive: there is no check that the listing is available
// or unexpired. Requesting an expired listing succeeds; the donor decides
// what to do with it. A request against a listing id that does not exist at
// all is stopped by the foreign key and surfaces as a storage error.
func (s *RequestService) Create(ctx context.Context, listingID int64, requesterID string, message *string) (*model.Request, error) {
	if requesterID == "" {
		return nil, apperror.Unauthorized("a requester identity is required")
	}
	if listingID <= 0 {
		return nil, apperror.ValidationFailed("listingId", "a valid listing id is required")
	}
	if message != nil {
		trimmed := strings.TrimSpace(*message)
		if trimmed == "" {
			message = nil
		} else if len(trimmed) > MaxMessageLength {
			return nil, apperror.ValidationFailed("message",
				fmt.Sprintf("message must be %d characters or less", MaxMessageLength))
		} else {
			message = &trimmed
		}
	}

	request := &model.Request{
		ListingID:   listingID,
		RequesterID: requesterID,
		Message:     message,
	}

	if err := s.repo.CreateRequest(ctx, request); err != nil {
		s.logger.Error("failed to create request",
			slog.Int64("listingID", listingID),
			slog.String("requesterID", requesterID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating request: %w", err)
	}

	s.logger.Info("request created",
		slog.Int64("id", request.ID),
		slog.Int64("listingID", listingID),
		slog.String("requesterID", requesterID),
	)

	return request, nil
}

// ListMine returns the caller's own requests, each with its listing attached.
func (s *RequestService) ListMine(ctx context.Context, userID string) ([]model.RequestWithListing, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("a requester identity is required")
	}

	requests, err := s.repo.ListRequestsForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list requests",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	return requests, nil
}

// ListForListing returns the requests filed against one listing, joined with
// each requester's profile. Backs the donor inbox; no route exposes it yet.
func (s *RequestService) ListForListing(ctx context.Context, listingID int64) ([]model.RequestWithRequester, error) {
	if listingID <= 0 {
		return nil, apperror.ValidationFailed("listingId", "a valid listing id is required")
	}

	requests, err := s.repo.ListRequestsForListing(ctx, listingID)
	if err != nil {
		s.logger.Error("failed to list requests for listing",
			slog.Int64("listingID", listingID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing requests for listing: %w", err)
	}
	return requests, nil
}

// UpdateStatus moves a request to approved, rejected or completed. "pending"
// is the creation state and not a valid target. Re-applying the current
// status is allowed and changes nothing.
//
// TODO: verify the caller owns the listing behind this request before
// allowing the update. Right now any authenticated user can move any
// request, and any target status can overwrite any current one.
func (s *RequestService) UpdateStatus(ctx context.Context, id int64, status model.RequestStatus) (*model.Request, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "a valid request id is required")
	}

	switch status {
	case model.RequestApproved, model.RequestRejected, model.RequestCompleted:
	default:
		return nil, apperror.ValidationFailed("status",
			"status must be one of approved, rejected, completed")
	}

	request, err := s.repo.UpdateRequestStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("request status updated",
		slog.Int64("id", id),
		slog.String("status", string(status)),
	)

	return request, nil
}
