package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/shareplate/shareplate/internal/auth"
	"github.com/shareplate/shareplate/internal/model"
	"github.com/shareplate/shareplate/internal/repository"
)

// AuthHandler manages the hosted-provider login flow and the session cookie.
//
//	HandleLogin    → redirect the browser to the provider
//	HandleCallback → verify state, exchange code, mirror the user, set cookie
//	HandleLogout   → clear the cookie
//	HandleMe       → current user's profile
type AuthHandler struct {
	provider *auth.Provider
	tokens   *auth.TokenService
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(
	provider *auth.Provider,
	tokens *auth.TokenService,
	users repository.UserRepository,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		tokens:   tokens,
		users:    users,
		logger:   logger,
	}
}

// HandleLogin starts the login flow.
//
// HTTP: GET /api/login
//
// A random state nonce goes into a short-lived cookie; the callback checks
// it so an attacker can't complete a login flow they initiated for the
// victim's browser.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the login flow.
//
// HTTP: GET /api/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization",
			slog.String("error", errParam),
		)
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	providerUser, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	// Mirror the provider's record. The subject claim is our primary key,
	// so every later donor_id/requester_id reference points at this row.
	user := &model.User{
		ID:              providerUser.Subject,
		Email:           providerUser.Email,
		FirstName:       providerUser.FirstName,
		LastName:        providerUser.LastName,
		ProfileImageURL: providerUser.ProfileImageURL,
	}
	if err := h.users.UpsertUser(r.Context(), user); err != nil {
		h.logger.Error("auth callback: upsert failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	tokenStr, err := h.tokens.Generate(user.ID)
	if err != nil {
		h.logger.Error("auth callback: token generation failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	h.logger.Info("user authenticated", slog.String("userID", user.ID))

	// HttpOnly keeps the token away from scripts; SameSite=Lax keeps it
	// off cross-site POSTs. Secure belongs on in any HTTPS deployment.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    tokenStr,
		Path:     "/",
		MaxAge:   int(auth.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the session cookie. The token itself stays valid
// until expiry (stateless sessions); without the cookie the browser can't
// present it.
//
// HTTP: POST /api/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the authenticated caller's profile, so the client can
// check session state on load and show the user's name and picture.
//
// HTTP: GET /api/auth/user (behind RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but cheap to keep correct.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("HandleMe: user lookup failed", slog.String("userID", userID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
