// Package repository declares the storage interfaces the service layer
// depends on. Handlers and services never see a concrete database type;
// main wires in the sqlite implementation, tests wire in mocks.
package repository

import (
	"context"

	"github.com/shareplate/shareplate/internal/model"
)

// ListingRepository is the capability set over the listings table.
type ListingRepository interface {
	// CreateListing inserts the listing and fills in ID, Status and CreatedAt.
	CreateListing(ctx context.Context, listing *model.Listing) error
	// GetListing returns the listing or apperror.ErrNotFound.
	GetListing(ctx context.Context, id int64) (*model.Listing, error)
	// ListAvailableListings returns every listing with status "available",
	// newest first. The feed is unbounded: there is no pagination.
	ListAvailableListings(ctx context.Context) ([]model.Listing, error)
	// UpdateListingStatus moves a listing between available, reserved and
	// completed, or returns apperror.ErrNotFound. No route exposes this yet;
	// it exists so reserved and completed are reachable states.
	UpdateListingStatus(ctx context.Context, id int64, status model.ListingStatus) error
}

// RequestRepository is the capability set over the requests table.
type RequestRepository interface {
	// CreateRequest inserts the request and fills in ID, Status and
	// CreatedAt. The only guard against a bad ListingID is the foreign key.
	CreateRequest(ctx context.Context, request *model.Request) error
	// ListRequestsForUser returns the user's own requests, each joined
	// with its parent listing, newest first.
	ListRequestsForUser(ctx context.Context, userID string) ([]model.RequestWithListing, error)
	// ListRequestsForListing returns all requests against one listing
	// joined with the requester's identity. Reserved for the donor inbox;
	// no route uses it yet.
	ListRequestsForListing(ctx context.Context, listingID int64) ([]model.RequestWithRequester, error)
	// UpdateRequestStatus writes the status unconditionally and returns
	// the updated row, or apperror.ErrNotFound when the id is absent.
	UpdateRequestStatus(ctx context.Context, id int64, status model.RequestStatus) (*model.Request, error)
}

// UserRepository mirrors accounts owned by the login provider.
type UserRepository interface {
	// UpsertUser inserts the user or refreshes their profile fields,
	// keyed by the provider-issued ID.
	UpsertUser(ctx context.Context, user *model.User) error
	// GetUser returns the user or apperror.ErrNotFound.
	GetUser(ctx context.Context, id string) (*model.User, error)
}
