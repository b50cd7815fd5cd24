package model

import "time"

// RequestStatus is the state of a pickup request.
//
// Requests start as pending and are moved by the donor via the status-update
// endpoint. Transitions are direct writes with no enforced adjacency:
// pending → completed is allowed without passing through approved. That is
// inherited behavior, not a guarantee worth relying on.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestCompleted RequestStatus = "completed"
)

// Request is one user's expression of interest in one listing.
//
// There is no uniqueness constraint on (listing, requester); the same user
// can request the same listing any number of times.
type Request struct {
	ID          int64         `json:"id"          db:"id"`
	ListingID   int64         `json:"listingId"   db:"listing_id"`
	RequesterID string        `json:"requesterId" db:"requester_id"`
	Status      RequestStatus `json:"status"      db:"status"`
	Message     *string       `json:"message"     db:"message"`
	CreatedAt   time.Time     `json:"createdAt"   db:"created_at"`
}

// RequestWithListing is a request joined with its parent listing, as returned
// by the "my requests" feed so the client can render the card in one round trip.
type RequestWithListing struct {
	Request
	Listing Listing `json:"listing"`
}

// RequestWithRequester is a request joined with the requester's identity.
// Used by the donor-facing inbox query (no route yet).
type RequestWithRequester struct {
	Request
	Requester User `json:"requester"`
}
