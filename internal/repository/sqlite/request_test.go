package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shareplate/shareplate/internal/apperror"
	"github.com/shareplate/shareplate/internal/model"
)

func createTestRequest(t *testing.T, db *DB, listingID int64, requesterID string, message *string) *model.Request {
	t.Helper()

	request := &model.Request{
		ListingID:   listingID,
		RequesterID: requesterID,
		Message:     message,
	}
	if err := db.CreateRequest(context.Background(), request); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	return request
}

func TestCreateRequest_AssignsIDAndPendingStatus(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "donor-1")
	createTestUser(t, db, "requester-1")
	listing := createTestListing(t, db, "donor-1", "Soup")

	msg := "Can I pick up tonight?"
	request := createTestRequest(t, db, listing.ID, "requester-1", &msg)

	if request.ID == 0 {
		t.Error("CreateRequest() did not assign an id")
	}
	if request.Status != model.RequestPending {
		t.Errorf("CreateRequest() status = %q, want %q", request.Status, model.RequestPending)
	}
	if request.CreatedAt.IsZero() {
		t.Error("CreateRequest() did not set created_at")
	}
}

func TestCreateRequest_UnknownListingFailsForeignKey(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "requester-1")

	request := &model.Request{
		ListingID:   9999,
		RequesterID: "requester-1",
	}
	if err := db.CreateRequest(context.Background(), request); err == nil {
		t.Fatal("CreateRequest() should fail when the listing does not exist")
	}
}

func TestCreateRequest_ForeignKeysHoldOnFreshConnections(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	// Retire every connection after use so each statement below runs on a
	// connection the pool opened fresh. The pragmas ride in the DSN, so a
	// new connection must still enforce the foreign keys.
	db.conn.SetMaxIdleConns(0)

	createTestUser(t, db, "requester-1")

	request := &model.Request{
		ListingID:   9999,
		RequesterID: "requester-1",
	}
	if err := db.CreateRequest(context.Background(), request); err == nil {
		t.Fatal("CreateRequest() against a nonexistent listing succeeded on a fresh connection")
	}
}

func TestCreateRequest_AllowsNonAvailableListing(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "donor-1")
	createTestUser(t, db, "requester-1")
	listing := createTestListing(t, db, "donor-1", "Already reserved")
	setListingStatus(t, db, listing.ID, model.ListingReserved)

	// The write path does not care about listing status.
	request := createTestRequest(t, db, listing.ID, "requester-1", nil)
	if request.ID == 0 {
		t.Error("CreateRequest() did not assign an id")
	}
}

func TestListRequestsForUser_JoinsListing(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "donor-1")
	createTestUser(t, db, "requester-1")
	listing := createTestListing(t, db, "donor-1", "Soup")

	msg := "Still available?"
	createTestRequest(t, db, listing.ID, "requester-1", &msg)

	results, err := db.ListRequestsForUser(context.Background(), "requester-1")
	if err != nil {
		t.Fatalf("ListRequestsForUser() error = %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("ListRequestsForUser() returned %d requests, want 1", len(results))
	}
	got := results[0]
	if got.Listing.ID != listing.ID {
		t.Errorf("joined listing id = %d, want %d", got.Listing.ID, listing.ID)
	}
	if got.Listing.Title != "Soup" {
		t.Errorf("joined listing title = %q, want %q", got.Listing.Title, "Soup")
	}
	if got.Message == nil || *got.Message != msg {
		t.Errorf("message = %v, want %q", got.Message, msg)
	}
}

func TestListRequestsForUser_OnlyOwnRequests(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "donor-1")
	createTestUser(t, db, "alice")
	createTestUser(t, db, "bob")
	listing := createTestListing(t, db, "donor-1", "Soup")

	createTestRequest(t, db, listing.ID, "alice", nil)
	createTestRequest(t, db, listing.ID, "bob", nil)

	results, err := db.ListRequestsForUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListRequestsForUser() error = %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("ListRequestsForUser() returned %d requests, want 1", len(results))
	}
	if results[0].RequesterID != "alice" {
		t.Errorf("requesterID = %q, want %q", results[0].RequesterID, "alice")
	}
}

func TestListRequestsForUser_EmptyIsNotNil(t *testing.T) {
	db := newTestDB(t)

	results, err := db.ListRequestsForUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListRequestsForUser() error = %v", err)
	}
	if results == nil {
		t.Error("ListRequestsForUser() returned nil, want empty slice")
	}
}

func TestListRequestsForListing_JoinsRequester(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "donor-1")
	requester := createTestUser(t, db, "requester-1")
	listing := createTestListing(t, db, "donor-1", "Soup")

	createTestRequest(t, db, listing.ID, "requester-1", nil)

	results, err := db.ListRequestsForListing(context.Background(), listing.ID)
	if err != nil {
		t.Fatalf("ListRequestsForListing() error = %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("ListRequestsForListing() returned %d requests, want 1", len(results))
	}
	if results[0].Requester.Email != requester.Email {
		t.Errorf("requester email = %q, want %q", results[0].Requester.Email, requester.Email)
	}
}

func TestUpdateRequestStatus_WritesAndReadsBack(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "donor-1")
	createTestUser(t, db, "requester-1")
	listing := createTestListing(t, db, "donor-1", "Soup")
	request := createTestRequest(t, db, listing.ID, "requester-1", nil)

	updated, err := db.UpdateRequestStatus(context.Background(), request.ID, model.RequestApproved)
	if err != nil {
		t.Fatalf("UpdateRequestStatus() error = %v", err)
	}

	if updated.Status != model.RequestApproved {
		t.Errorf("UpdateRequestStatus() status = %q, want %q", updated.Status, model.RequestApproved)
	}
	if updated.ID != request.ID {
		t.Errorf("UpdateRequestStatus() id = %d, want %d", updated.ID, request.ID)
	}
}

func TestUpdateRequestStatus_Idempotent(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "donor-1")
	createTestUser(t, db, "requester-1")
	listing := createTestListing(t, db, "donor-1", "Soup")
	request := createTestRequest(t, db, listing.ID, "requester-1", nil)

	for i := 0; i < 2; i++ {
		updated, err := db.UpdateRequestStatus(context.Background(), request.ID, model.RequestApproved)
		if err != nil {
			t.Fatalf("UpdateRequestStatus() attempt %d error = %v", i+1, err)
		}
		if updated.Status != model.RequestApproved {
			t.Errorf("attempt %d: status = %q, want %q", i+1, updated.Status, model.RequestApproved)
		}
	}
}

func TestUpdateRequestStatus_AnyTransitionAllowed(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "donor-1")
	createTestUser(t, db, "requester-1")
	listing := createTestListing(t, db, "donor-1", "Soup")
	request := createTestRequest(t, db, listing.ID, "requester-1", nil)

	// rejected then approved: no transition rules at this layer.
	if _, err := db.UpdateRequestStatus(context.Background(), request.ID, model.RequestRejected); err != nil {
		t.Fatalf("UpdateRequestStatus(rejected) error = %v", err)
	}
	updated, err := db.UpdateRequestStatus(context.Background(), request.ID, model.RequestApproved)
	if err != nil {
		t.Fatalf("UpdateRequestStatus(approved) error = %v", err)
	}
	if updated.Status != model.RequestApproved {
		t.Errorf("status = %q, want %q", updated.Status, model.RequestApproved)
	}
}

func TestUpdateRequestStatus_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.UpdateRequestStatus(context.Background(), 9999, model.RequestApproved)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateRequestStatus() error = %v, want ErrNotFound", err)
	}
}
