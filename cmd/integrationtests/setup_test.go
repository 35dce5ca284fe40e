package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	auction "auction-engine/internal/auctionService"
	"auction-engine/internal/clock"
	"auction-engine/internal/directory"
	model "auction-engine/internal/models"
	"auction-engine/internal/notifier"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// testEnv bundles the wired service with its backing store so tests can
// seed state and drive the closer directly.
type testEnv struct {
	router *gin.Engine
	store  *repository.MemoryStore
	users  *directory.MemoryDirectory
	sink   *notifier.RecordingNotifier
	svc    *auction.AuctionService
}

// SetupTestEnv wires the full stack against in-memory backends with a few
// registered users.
func SetupTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	users := directory.NewMemoryDirectory()
	sink := notifier.NewRecordingNotifier()
	svc := auction.NewAuctionService(store, users, sink, clock.NewSystem())

	for _, u := range []model.User{
		{UserID: "seller1", Username: "seller_one"},
		{UserID: "user1", Username: "alice"},
		{UserID: "user2", Username: "bob"},
	} {
		users.AddUser(u)
	}

	return &testEnv{
		router: server.SetupRouter(svc, 3),
		store:  store,
		users:  users,
		sink:   sink,
		svc:    svc,
	}
}

// SeedAuction adds an auction directly to the store, bypassing the service's
// end-time validation so already-ended auctions can be set up.
func (e *testEnv) SeedAuction(t *testing.T, auctionID string, reserve int64, endTime time.Time) {
	t.Helper()
	err := e.store.CreateAuction(model.Auction{
		AuctionID:    auctionID,
		ItemID:       "item-" + auctionID,
		SellerID:     "seller1",
		Title:        auctionID + " title",
		InitialPrice: decimal.NewFromInt(100),
		MinIncrement: decimal.NewFromInt(10),
		ReservePrice: decimal.NewFromInt(reserve),
		StartTime:    endTime.Add(-24 * time.Hour),
		EndTime:      endTime,
		IsActive:     true,
		CreatedAt:    endTime.Add(-24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to seed auction %s: %v", auctionID, err)
	}
}

// ExecuteRequestAndParse executes an HTTP request on the router and parses
// the JSON response envelope.
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// data unwraps the "data" field of the response envelope as an object
func data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	d, ok := resp["data"].(map[string]any)
	if !ok {
		t.Fatalf("response data is not an object: %v", resp["data"])
	}
	return d
}

// dataList unwraps the "data" field of the response envelope as a list
func dataList(t *testing.T, resp map[string]any) []any {
	t.Helper()
	d, ok := resp["data"].([]any)
	if !ok {
		t.Fatalf("response data is not a list: %v", resp["data"])
	}
	return d
}
