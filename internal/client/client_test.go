package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shareplate/shareplate/internal/apperror"
	"github.com/shareplate/shareplate/internal/model"
)

// newTestServer serves a minimal fake of the API and counts hits per path
// so cache behavior is observable.
func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func serveJSON(t *testing.T, status int, v any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(v); err != nil {
			t.Errorf("encoding fake response: %v", err)
		}
	}
}

func TestListings_CachesSecondRead(t *testing.T) {
	srv, hits := newTestServer(t, serveJSON(t, http.StatusOK, []model.Listing{{ID: 1, Title: "Soup"}}))
	c := New(srv.URL, nil)

	for i := 0; i < 2; i++ {
		listings, err := c.Listings(context.Background())
		if err != nil {
			t.Fatalf("Listings() call %d error = %v", i+1, err)
		}
		if len(listings) != 1 || listings[0].Title != "Soup" {
			t.Fatalf("Listings() call %d = %+v", i+1, listings)
		}
	}

	if got := hits.Load(); got != 1 {
		t.Errorf("server hit %d times, want 1 (second read should come from cache)", got)
	}
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	srv, hits := newTestServer(t, serveJSON(t, http.StatusOK, []model.Listing{}))
	c := New(srv.URL, nil)

	if _, err := c.Listings(context.Background()); err != nil {
		t.Fatalf("Listings() error = %v", err)
	}
	c.Invalidate("/api/listings")
	if _, err := c.Listings(context.Background()); err != nil {
		t.Fatalf("Listings() after invalidate error = %v", err)
	}

	if got := hits.Load(); got != 2 {
		t.Errorf("server hit %d times, want 2 after invalidation", got)
	}
}

func TestCreateListing_InvalidatesFeedAndNotifies(t *testing.T) {
	var notices []Notice
	srv, hits := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			serveJSON(t, http.StatusCreated, model.Listing{ID: 1, Title: "Soup"})(w, r)
		default:
			serveJSON(t, http.StatusOK, []model.Listing{{ID: 1, Title: "Soup"}})(w, r)
		}
	})
	c := New(srv.URL, func(n Notice) { notices = append(notices, n) })

	// Warm the feed cache, then mutate.
	if _, err := c.Listings(context.Background()); err != nil {
		t.Fatalf("Listings() error = %v", err)
	}

	listing, err := c.CreateListing(context.Background(), ListingInput{
		Title:       "Soup",
		Description: "Warm",
		Quantity:    "4 portions",
		Location:    "Main St",
		ExpiresAt:   time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateListing() error = %v", err)
	}
	if listing.ID != 1 {
		t.Errorf("CreateListing() id = %d, want 1", listing.ID)
	}

	if len(notices) != 1 || !notices[0].Success {
		t.Fatalf("notices = %+v, want one success notice", notices)
	}

	// The mutation invalidated the feed, so this read hits the server again.
	if _, err := c.Listings(context.Background()); err != nil {
		t.Fatalf("Listings() after create error = %v", err)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("server hit %d times, want 3 (read, create, re-read)", got)
	}
}

func TestCreateRequest_Unauthorized(t *testing.T) {
	var notices []Notice
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
	})
	c := New(srv.URL, func(n Notice) { notices = append(notices, n) })

	_, err := c.CreateRequest(context.Background(), 1, nil)
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("CreateRequest() error = %v, want ErrUnauthorized", err)
	}

	if len(notices) != 1 || notices[0].Success {
		t.Fatalf("notices = %+v, want one error notice", notices)
	}
	if notices[0].Message != "You need to be logged in to do that." {
		t.Errorf("notice message = %q", notices[0].Message)
	}
}

func TestListing_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, serveJSON(t, http.StatusNotFound, map[string]string{
		"error":   "not_found",
		"message": "listing not found with id 9999",
	}))
	c := New(srv.URL, nil)

	_, err := c.Listing(context.Background(), 9999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Listing() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateRequestStatus_ServerError(t *testing.T) {
	srv, _ := newTestServer(t, serveJSON(t, http.StatusInternalServerError, map[string]string{
		"error":   "internal_error",
		"message": "Error updating status",
	}))
	c := New(srv.URL, nil)

	_, err := c.UpdateRequestStatus(context.Background(), 1, model.RequestApproved)
	if err == nil {
		t.Fatal("UpdateRequestStatus() should surface the server error")
	}
	if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrValidation) {
		t.Errorf("UpdateRequestStatus() error = %v, want a plain server error", err)
	}
}

func TestSetToken_AttachesSessionCookie(t *testing.T) {
	var gotCookie string
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("token"); err == nil {
			gotCookie = c.Value
		}
		serveJSON(t, http.StatusOK, []model.RequestWithListing{})(w, r)
	})
	c := New(srv.URL, nil)
	c.SetToken("session-jwt")

	if _, err := c.MyRequests(context.Background()); err != nil {
		t.Fatalf("MyRequests() error = %v", err)
	}
	if gotCookie != "session-jwt" {
		t.Errorf("session cookie = %q, want %q", gotCookie, "session-jwt")
	}
}
