// Package client is a Go client for the food-sharing API.
//
// It ports the contract of the web client's data hooks: every read goes
// through a response cache keyed by the resource path, successful mutations
// invalidate the affected keys so the next read re-fetches, and a pluggable
// Notifier receives the success/error notices the UI used to show as
// toasts. A 401 from any call surfaces as apperror.ErrUnauthorized so the
// caller can route the user to /api/login.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/shareplate/shareplate/internal/apperror"
	"github.com/shareplate/shareplate/internal/auth"
	"github.com/shareplate/shareplate/internal/model"
)

// Notice is a user-facing notification emitted after mutations.
type Notice struct {
	Success bool
	Title   string
	Message string
}

// Notifier receives notices. A nil notifier is fine; notices are dropped.
type Notifier func(Notice)

// Client talks to one API server. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	notify  Notifier

	mu    sync.Mutex
	token string
	cache map[string][]byte // resource path → raw JSON of the last 200
}

// New creates a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, notify Notifier) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		notify:  notify,
		cache:   make(map[string][]byte),
	}
}

// SetToken installs the session token used for protected calls. An empty
// string makes the client anonymous again.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Invalidate drops cached responses for the given resource paths, forcing
// the next read to hit the server. Mutations call this themselves.
func (c *Client) Invalidate(paths ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range paths {
		delete(c.cache, p)
	}
}

// ListingInput mirrors the POST /api/listings body.
type ListingInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Quantity    string    `json:"quantity"`
	Location    string    `json:"location"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Listings returns the public feed, served from cache when present.
func (c *Client) Listings(ctx context.Context) ([]model.Listing, error) {
	var listings []model.Listing
	if err := c.getCached(ctx, "/api/listings", &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// Listing returns one listing by id. Returns apperror.ErrNotFound for an
// unknown id.
func (c *Client) Listing(ctx context.Context, id int64) (*model.Listing, error) {
	var listing model.Listing
	path := "/api/listings/" + strconv.FormatInt(id, 10)
	if err := c.getCached(ctx, path, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// CreateListing posts a new listing. On success the feed cache is
// invalidated and a success notice is emitted.
func (c *Client) CreateListing(ctx context.Context, input ListingInput) (*model.Listing, error) {
	var listing model.Listing
	err := c.mutate(ctx, http.MethodPost, "/api/listings", input, http.StatusCreated, &listing)
	if err != nil {
		c.notifyError("Error", err)
		return nil, err
	}

	c.Invalidate("/api/listings")
	c.emit(Notice{Success: true, Title: "Success!", Message: "Your food listing has been posted."})
	return &listing, nil
}

// MyRequests returns the caller's requests with their listings attached,
// served from cache when present.
func (c *Client) MyRequests(ctx context.Context) ([]model.RequestWithListing, error) {
	var requests []model.RequestWithListing
	if err := c.getCached(ctx, "/api/requests", &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// CreateRequest files a request against a listing. The message is optional.
func (c *Client) CreateRequest(ctx context.Context, listingID int64, message *string) (*model.Request, error) {
	body := struct {
		Message *string `json:"message,omitempty"`
	}{Message: message}

	path := "/api/listings/" + strconv.FormatInt(listingID, 10) + "/requests"

	var request model.Request
	err := c.mutate(ctx, http.MethodPost, path, body, http.StatusCreated, &request)
	if err != nil {
		c.notifyError("Error", err)
		return nil, err
	}

	c.Invalidate("/api/requests")
	c.emit(Notice{Success: true, Title: "Request Sent", Message: "The donor will be notified of your interest."})
	return &request, nil
}

// UpdateRequestStatus moves a request to approved, rejected or completed.
func (c *Client) UpdateRequestStatus(ctx context.Context, id int64, status model.RequestStatus) (*model.Request, error) {
	body := struct {
		Status model.RequestStatus `json:"status"`
	}{Status: status}

	path := "/api/requests/" + strconv.FormatInt(id, 10) + "/status"

	var request model.Request
	err := c.mutate(ctx, http.MethodPatch, path, body, http.StatusOK, &request)
	if err != nil {
		c.notifyError("Error", err)
		return nil, err
	}

	c.Invalidate("/api/requests")
	c.emit(Notice{Success: true, Title: "Status Updated", Message: "The request status has been changed."})
	return &request, nil
}

// getCached serves a GET from the cache, falling back to the server and
// filling the cache on a 200.
func (c *Client) getCached(ctx context.Context, path string, dst any) error {
	c.mu.Lock()
	raw, ok := c.cache[path]
	c.mu.Unlock()

	if ok {
		return json.Unmarshal(raw, dst)
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.asError(resp)
	}

	raw, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: reading %s response: %w", path, err)
	}

	c.mu.Lock()
	c.cache[path] = raw
	c.mu.Unlock()

	return json.Unmarshal(raw, dst)
}

// mutate sends a JSON body and decodes the response on the expected status.
func (c *Client) mutate(ctx context.Context, method, path string, body any, wantStatus int, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("client: encoding %s body: %w", path, err)
	}

	resp, err := c.do(ctx, method, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return c.asError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("client: building %s %s: %w", method, path, err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	return resp, nil
}

// asError turns a non-success response into a domain error. The server's
// error body carries a message; 401 and 404 map onto the matching
// sentinels so callers can use errors.Is.
func (c *Client) asError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Message == "" {
		body.Message = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return apperror.Unauthorized(body.Message)
	case http.StatusNotFound:
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: body.Message}
	case http.StatusBadRequest:
		return &apperror.AppError{Err: apperror.ErrValidation, Message: body.Message}
	default:
		return fmt.Errorf("client: server returned %d: %s", resp.StatusCode, body.Message)
	}
}

func (c *Client) emit(n Notice) {
	if c.notify != nil {
		c.notify(n)
	}
}

func (c *Client) notifyError(title string, err error) {
	message := err.Error()
	if errors.Is(err, apperror.ErrUnauthorized) {
		message = "You need to be logged in to do that."
	}
	c.emit(Notice{Success: false, Title: title, Message: message})
}
