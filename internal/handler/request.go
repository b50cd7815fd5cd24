package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shareplate/shareplate/internal/apperror"
	"github.com/shareplate/shareplate/internal/auth"
	"github.com/shareplate/shareplate/internal/model"
	"github.com/shareplate/shareplate/internal/service"
)

// RequestHandler serves the pickup-request endpoints. Every route here is
// behind RequireAuth.
type RequestHandler struct {
	requests *service.RequestService
	logger   *slog.Logger
}

// NewRequestHandler creates a RequestHandler.
func NewRequestHandler(requests *service.RequestService, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{requests: requests, logger: logger}
}

type createRequestBody struct {
	Message *string `json:"message"`
}

type updateStatusBody struct {
	Status model.RequestStatus `json:"status"`
}

// HandleCreate files a request against a listing.
//
// HTTP: POST /api/listings/{listingId}/requests → 201 created request,
// 400 on bad input, 401 without a session. A listing id that exists but is
// expired or no longer available still gets a 201; only the foreign key
// stops a wholly unknown id, and that failure surfaces as a 500.
func (h *RequestHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	listingIDStr := chi.URLParam(r, "listingId")
	listingID, err := strconv.ParseInt(listingIDStr, 10, 64)
	if err != nil {
		writeError(w, apperror.ValidationFailed("listingId", "listing id must be a number"))
		return
	}

	var body createRequestBody
	if err := decodeStrict(r, &body); err != nil {
		h.logger.Warn("invalid request body", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid request body"))
		return
	}

	request, err := h.requests.Create(r.Context(), listingID, requesterID, body.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, request)
}

// HandleListMine returns the caller's requests, each joined with its listing.
//
// HTTP: GET /api/requests → 200 array, 401 without a session.
func (h *RequestHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	requests, err := h.requests.ListMine(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

// HandleUpdateStatus moves a request to approved, rejected or completed.
//
// HTTP: PATCH /api/requests/{id}/status → 200 updated request.
//
// Every failure past authentication deliberately collapses to a generic
// 500, including a nonexistent id and a bad status value. That is the
// original behavior of this endpoint and the API's tests pin it; a finer
// taxonomy (404 for a missing row, 400 for a bad body) is the obvious fix
// once clients can handle it.
func (h *RequestHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserIDFromContext(r.Context()); !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.updateStatusFailed(w, "non-numeric request id", idStr)
		return
	}

	var body updateStatusBody
	if err := decodeStrict(r, &body); err != nil {
		h.updateStatusFailed(w, "undecodable status body", idStr)
		return
	}

	request, err := h.requests.UpdateStatus(r.Context(), id, body.Status)
	if err != nil {
		h.logger.Error("failed to update request status",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		h.updateStatusFailed(w, "service error", idStr)
		return
	}

	writeJSON(w, http.StatusOK, request)
}

// updateStatusFailed sends the endpoint's single catch-all error response.
func (h *RequestHandler) updateStatusFailed(w http.ResponseWriter, reason, id string) {
	h.logger.Warn("request status update rejected",
		slog.String("reason", reason),
		slog.String("id", id),
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "Error updating status",
	})
}
