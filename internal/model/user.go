package model

import "time"

// User is the local mirror of an account owned by the hosted login provider.
//
// The primary key is the provider's subject claim (a string), so we never
// invent our own numbering for identities we do not own. The row is written
// only at login time (upsert); everything else in the system just references
// the id.
//
// Email and the name fields can be empty. The provider only guarantees a
// subject, and an empty string is safe to display, so we use zero values
// rather than nullable pointers.
type User struct {
	ID              string    `json:"id"              db:"id"`
	Email           string    `json:"email"           db:"email"`
	FirstName       string    `json:"firstName"       db:"first_name"`
	LastName        string    `json:"lastName"        db:"last_name"`
	ProfileImageURL string    `json:"profileImageUrl" db:"profile_image_url"`
	CreatedAt       time.Time `json:"createdAt"       db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt"       db:"updated_at"`
}
