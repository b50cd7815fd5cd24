// Package model defines the data structures used throughout the application.
// These are plain structs shared by the repository, service, and handler
// layers; the `json` tags define the wire shape of API responses and the
// `db` tags document the column each field maps to.
package model

import "time"

// ListingStatus is the lifecycle state of a food listing.
//
// Only "available" listings appear in the public feed. The reserved and
// completed states can be written through the storage layer but no HTTP
// route does so yet; a listing moved there simply drops out of the feed.
type ListingStatus string

const (
	ListingAvailable ListingStatus = "available"
	ListingReserved  ListingStatus = "reserved"
	ListingCompleted ListingStatus = "completed"
)

// Listing is a posted food-sharing offer.
//
// Quantity and Location are free text on purpose ("2 loaves", "back porch,
// 5th Ave") - the app does not model units or geography.
//
// ImageURL is a pointer so the JSON output distinguishes "no image" (null)
// from an empty string, matching the nullable column underneath.
type Listing struct {
	ID          int64         `json:"id"          db:"id"`
	DonorID     string        `json:"donorId"     db:"donor_id"`
	Title       string        `json:"title"       db:"title"`
	Description string        `json:"description" db:"description"`
	Quantity    string        `json:"quantity"    db:"quantity"`
	Location    string        `json:"location"    db:"location"`
	ImageURL    *string       `json:"imageUrl"    db:"image_url"`
	Status      ListingStatus `json:"status"      db:"status"`
	ExpiresAt   time.Time     `json:"expiresAt"   db:"expires_at"`
	CreatedAt   time.Time     `json:"createdAt"   db:"created_at"`
}
