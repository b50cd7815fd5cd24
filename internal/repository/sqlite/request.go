package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/shareplate/shareplate/internal/apperror"
	"github.com/shareplate/shareplate/internal/model"
	"github.com/shareplate/shareplate/internal/repository"
)

// Compile-time check that *DB implements repository.RequestRepository.
var _ repository.RequestRepository = (*DB)(nil)

// CreateRequest inserts a new request with status pending. There is no check that
// the listing is available or unexpired; the foreign key is the only guard
// on ListingID, so an unknown listing id surfaces as a constraint error.
func (db *DB) CreateRequest(ctx context.Context, request *model.Request) error {
	request.Status = model.RequestPending
	request.CreatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO requests (listing_id, requester_id, status, message, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		request.ListingID,
		request.RequesterID,
		request.Status,
		nullString(request.Message),
		request.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading request id: %w", err)
	}
	request.ID = id

	return nil
}

// ListRequestsForUser returns the user's requests joined with their listings,
// newest first. The join is INNER because listing_id is a NOT NULL foreign
// key, so every request has a listing.
func (db *DB) ListRequestsForUser(ctx context.Context, userID string) ([]model.RequestWithListing, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT r.id, r.listing_id, r.requester_id, r.status, r.message, r.created_at,
		        l.id, l.donor_id, l.title, l.description, l.quantity, l.location, l.image_url, l.status, l.expires_at, l.created_at
		 FROM requests r
		 INNER JOIN listings l ON l.id = r.listing_id
		 WHERE r.requester_id = ?
		 ORDER BY r.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing requests for user %s: %w", userID, err)
	}
	defer rows.Close()

	results := []model.RequestWithListing{}
	for rows.Next() {
		var rw model.RequestWithListing
		var message, imageURL sql.NullString

		err := rows.Scan(
			&rw.ID, &rw.ListingID, &rw.RequesterID, &rw.Status, &message, &rw.CreatedAt,
			&rw.Listing.ID, &rw.Listing.DonorID, &rw.Listing.Title, &rw.Listing.Description,
			&rw.Listing.Quantity, &rw.Listing.Location, &imageURL, &rw.Listing.Status,
			&rw.Listing.ExpiresAt, &rw.Listing.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning request row: %w", err)
		}

		if message.Valid {
			rw.Message = &message.String
		}
		if imageURL.Valid {
			rw.Listing.ImageURL = &imageURL.String
		}
		results = append(results, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating requests: %w", err)
	}

	return results, nil
}

// ListRequestsForListing returns every request against a listing joined with the
// requester's profile, for the donor-facing inbox.
func (db *DB) ListRequestsForListing(ctx context.Context, listingID int64) ([]model.RequestWithRequester, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT r.id, r.listing_id, r.requester_id, r.status, r.message, r.created_at,
		        u.id, u.email, u.first_name, u.last_name, u.profile_image_url, u.created_at, u.updated_at
		 FROM requests r
		 INNER JOIN users u ON u.id = r.requester_id
		 WHERE r.listing_id = ?
		 ORDER BY r.created_at DESC`,
		listingID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing requests for listing %d: %w", listingID, err)
	}
	defer rows.Close()

	results := []model.RequestWithRequester{}
	for rows.Next() {
		var rr model.RequestWithRequester
		var message sql.NullString

		err := rows.Scan(
			&rr.ID, &rr.ListingID, &rr.RequesterID, &rr.Status, &message, &rr.CreatedAt,
			&rr.Requester.ID, &rr.Requester.Email, &rr.Requester.FirstName,
			&rr.Requester.LastName, &rr.Requester.ProfileImageURL,
			&rr.Requester.CreatedAt, &rr.Requester.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning request row: %w", err)
		}

		if message.Valid {
			rr.Message = &message.String
		}
		results = append(results, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating requests: %w", err)
	}

	return results, nil
}

// UpdateRequestStatus writes the status unconditionally and returns the updated
// row. No transition check: any of the four states can be written over any
// other, and last write wins under concurrent updates.
func (db *DB) UpdateRequestStatus(ctx context.Context, id int64, status model.RequestStatus) (*model.Request, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE requests SET status = ? WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating request %d status: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("request", strconv.FormatInt(id, 10))
	}

	// Read the row back so the caller gets the canonical record.
	var r model.Request
	var message sql.NullString
	err = db.conn.QueryRowContext(ctx,
		`SELECT id, listing_id, requester_id, status, message, created_at
		 FROM requests WHERE id = ?`,
		id,
	).Scan(&r.ID, &r.ListingID, &r.RequesterID, &r.Status, &message, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading back request %d: %w", id, err)
	}
	if message.Valid {
		r.Message = &message.String
	}

	return &r, nil
}
