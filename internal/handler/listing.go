package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shareplate/shareplate/internal/apperror"
	"github.com/shareplate/shareplate/internal/auth"
	"github.com/shareplate/shareplate/internal/service"
)

// ListingHandler serves the listings endpoints. Reads are public; creation
// requires a session (enforced by the RequireAuth middleware on the route).
type ListingHandler struct {
	listings *service.ListingService
	logger   *slog.Logger
}

// NewListingHandler creates a ListingHandler.
func NewListingHandler(listings *service.ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{listings: listings, logger: logger}
}

// createListingRequest is the POST body. Field names match the JSON the
// client sends; unknown fields are rejected by decodeStrict.
type createListingRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Quantity    string    `json:"quantity"`
	Location    string    `json:"location"`
	ImageURL    *string   `json:"imageUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// HandleList returns the public feed of available listings.
//
// HTTP: GET /api/listings → 200 array (possibly empty, never null)
func (h *ListingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.ListAvailable(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listings)
}

// HandleGetByID returns a single listing, whatever its status.
//
// HTTP: GET /api/listings/{id} → 200 listing, 404 when absent.
// A non-numeric id is indistinguishable from an absent one and also 404s.
func (h *ListingHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, apperror.NotFound("listing", idStr))
		return
	}

	listing, err := h.listings.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

// HandleCreate posts a new listing for the authenticated donor.
//
// HTTP: POST /api/listings → 201 created listing, 400 on bad input,
// 401 without a session.
func (h *ListingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	donorID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var body createListingRequest
	if err := decodeStrict(r, &body); err != nil {
		h.logger.Warn("invalid listing body", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid request body"))
		return
	}

	listing, err := h.listings.Create(r.Context(), donorID, service.ListingInput{
		Title:       body.Title,
		Description: body.Description,
		Quantity:    body.Quantity,
		Location:    body.Location,
		ImageURL:    body.ImageURL,
		ExpiresAt:   body.ExpiresAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, listing)
}
