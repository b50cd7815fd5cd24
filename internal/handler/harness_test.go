package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shareplate/shareplate/internal/auth"
	"github.com/shareplate/shareplate/internal/handler"
	"github.com/shareplate/shareplate/internal/model"
	"github.com/shareplate/shareplate/internal/repository/sqlite"
	"github.com/shareplate/shareplate/internal/service"
)

// testApp runs the real stack against an in-memory database: sqlite
// repositories, services, handlers, and the auth middleware, wired the same
// way the server package wires them.
type testApp struct {
	router http.Handler
	db     *sqlite.DB
	tokens *auth.TokenService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New(:memory:) error = %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	listingService := service.NewListingService(db, logger)
	requestService := service.NewRequestService(db, logger)

	listingHandler := handler.NewListingHandler(listingService, logger)
	requestHandler := handler.NewRequestHandler(requestService, logger)

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	requireAuth := auth.RequireAuth(tokens)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Get("/listings", listingHandler.HandleList)
		r.Get("/listings/{id}", listingHandler.HandleGetByID)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/listings", listingHandler.HandleCreate)
			r.Post("/listings/{listingId}/requests", requestHandler.HandleCreate)
			r.Get("/requests", requestHandler.HandleListMine)
			r.Patch("/requests/{id}/status", requestHandler.HandleUpdateStatus)
		})
	})

	return &testApp{router: router, db: db, tokens: tokens}
}

// login seeds a user row and returns their session cookie.
func (a *testApp) login(t *testing.T, userID string) *http.Cookie {
	t.Helper()

	user := &model.User{ID: userID, Email: userID + "@example.com"}
	if err := a.db.UpsertUser(context.Background(), user); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}

	token, err := a.tokens.Generate(userID)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return &http.Cookie{Name: auth.SessionCookie, Value: token}
}

// do sends a request through the router. body is JSON-encoded when non-nil;
// a nil cookie means an anonymous request.
func (a *testApp) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// createListing posts a valid listing as the given user and returns the
// decoded response.
func (a *testApp) createListing(t *testing.T, cookie *http.Cookie, title string) model.Listing {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/listings", map[string]any{
		"title":       title,
		"description": "Homemade, still warm",
		"quantity":    "4 portions",
		"location":    "Main St community fridge",
		"expiresAt":   time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
	}, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("creating listing: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var listing model.Listing
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decoding listing: %v", err)
	}
	return listing
}

// setListingStatus moves a listing out of the feed through the storage
// layer; no HTTP route does this.
func (a *testApp) setListingStatus(t *testing.T, id int64, status model.ListingStatus) {
	t.Helper()

	if err := a.db.UpdateListingStatus(context.Background(), id, status); err != nil {
		t.Fatalf("UpdateListingStatus() error = %v", err)
	}
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}
