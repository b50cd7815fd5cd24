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

// Compile-time check that *DB implements repository.ListingRepository.
var _ repository.ListingRepository = (*DB)(nil)

// CreateListing inserts a new listing. The caller provides donor and content; the
// repository owns the id (AUTOINCREMENT), the default status, and the
// creation timestamp, and writes them back into the struct.
func (db *DB) CreateListing(ctx context.Context, listing *model.Listing) error {
	listing.Status = model.ListingAvailable
	listing.CreatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO listings (donor_id, title, description, quantity, location, image_url, status, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.DonorID,
		listing.Title,
		listing.Description,
		listing.Quantity,
		listing.Location,
		nullString(listing.ImageURL),
		listing.Status,
		listing.ExpiresAt,
		listing.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating listing: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading listing id: %w", err)
	}
	listing.ID = id

	return nil
}

// GetListing retrieves a single listing regardless of status.
func (db *DB) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, donor_id, title, description, quantity, location, image_url, status, expires_at, created_at
		 FROM listings
		 WHERE id = ?`,
		id,
	)

	listing, err := scanListing(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("listing", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting listing %d: %w", id, err)
	}

	return listing, nil
}

// ListAvailableListings returns the public feed: every available listing, newest
// first. Deliberately unbounded; the feed has no pagination.
func (db *DB) ListAvailableListings(ctx context.Context) ([]model.Listing, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, donor_id, title, description, quantity, location, image_url, status, expires_at, created_at
		 FROM listings
		 WHERE status = ?
		 ORDER BY created_at DESC`,
		model.ListingAvailable,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing available listings: %w", err)
	}
	defer rows.Close()

	listings := []model.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning listing row: %w", err)
		}
		listings = append(listings, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating listings: %w", err)
	}

	return listings, nil
}

// UpdateListingStatus moves a listing between statuses. Like the request
// counterpart there is no transition check; the CHECK constraint on the
// column rejects values outside the enum.
func (db *DB) UpdateListingStatus(ctx context.Context, id int64, status model.ListingStatus) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE listings SET status = ? WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating listing %d status: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("listing", strconv.FormatInt(id, 10))
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows so the column list lives in
// one place.
type scanner interface {
	Scan(dest ...any) error
}

func scanListing(s scanner) (*model.Listing, error) {
	var l model.Listing
	var imageURL sql.NullString

	err := s.Scan(
		&l.ID,
		&l.DonorID,
		&l.Title,
		&l.Description,
		&l.Quantity,
		&l.Location,
		&imageURL,
		&l.Status,
		&l.ExpiresAt,
		&l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if imageURL.Valid {
		l.ImageURL = &imageURL.String
	}
	return &l, nil
}

// nullString converts an optional field to the driver-level NULL.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
