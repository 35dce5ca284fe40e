package auction

import (
	"context"
	"testing"
	"time"

	model "auction-engine/internal/models"

	"github.com/stretchr/testify/require"
)

func endedAuction(auctionID string, reserve int64) model.Auction {
	a := openAuction()
	a.AuctionID = auctionID
	a.ReservePrice = dec(reserve)
	a.StartTime = testNow.Add(-2 * time.Hour)
	a.EndTime = testNow.Add(-time.Hour)
	a.CreatedAt = a.StartTime
	return a
}

func seededBid(auctionID, bidderID string, amount int64, at time.Time) model.Bid {
	return model.Bid{
		BidID:     "bid-" + bidderID,
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    dec(amount),
		CreatedAt: at,
	}
}

func TestCloseDueAuctions_ReserveMet(t *testing.T) {
	t.Parallel()

	svc, store, _, sink := newProxyTestService()
	require.NoError(t, store.CreateAuction(endedAuction("a1", 150)))
	require.NoError(t, store.AppendBid(seededBid("a1", "bob", 120, testNow.Add(-30*time.Minute))))
	require.NoError(t, store.AppendBid(seededBid("a1", "alice", 160, testNow.Add(-20*time.Minute))))

	closed, err := svc.CloseDueAuctions(testNow)
	require.NoError(t, err)
	require.Equal(t, 1, closed)

	got, err := store.GetAuction("a1")
	require.NoError(t, err)
	require.False(t, got.IsActive)
	require.Equal(t, "alice", got.WinnerID)

	require.Len(t, sink.SentTo("alice", model.KindAuctionWon), 1)
	require.Len(t, sink.SentTo("seller1", model.KindAuctionWon), 1)
	require.Empty(t, sink.SentTo("seller1", model.KindAuctionEndedNoSale))
}

func TestCloseDueAuctions_ReserveNotMet(t *testing.T) {
	t.Parallel()

	svc, store, _, sink := newProxyTestService()
	require.NoError(t, store.CreateAuction(endedAuction("a1", 150)))
	require.NoError(t, store.AppendBid(seededBid("a1", "alice", 140, testNow.Add(-30*time.Minute))))

	closed, err := svc.CloseDueAuctions(testNow)
	require.NoError(t, err)
	require.Equal(t, 1, closed)

	got, err := store.GetAuction("a1")
	require.NoError(t, err)
	require.False(t, got.IsActive)
	require.Empty(t, got.WinnerID, "a bid below the reserve wins nothing")

	require.Len(t, sink.SentTo("seller1", model.KindAuctionEndedNoSale), 1)
	require.Empty(t, sink.SentTo("alice", model.KindAuctionWon))
}

func TestCloseDueAuctions_NoBids(t *testing.T) {
	t.Parallel()

	svc, store, _, sink := newProxyTestService()
	require.NoError(t, store.CreateAuction(endedAuction("a1", 150)))

	closed, err := svc.CloseDueAuctions(testNow)
	require.NoError(t, err)
	require.Equal(t, 1, closed)

	got, err := store.GetAuction("a1")
	require.NoError(t, err)
	require.False(t, got.IsActive)
	require.Empty(t, got.WinnerID)
	require.Len(t, sink.SentTo("seller1", model.KindAuctionEndedNoSale), 1)
}

func TestCloseDueAuctions_Idempotent(t *testing.T) {
	t.Parallel()

	svc, store, _, sink := newProxyTestService()
	require.NoError(t, store.CreateAuction(endedAuction("a1", 150)))
	require.NoError(t, store.AppendBid(seededBid("a1", "alice", 160, testNow.Add(-30*time.Minute))))

	closed, err := svc.CloseDueAuctions(testNow)
	require.NoError(t, err)
	require.Equal(t, 1, closed)

	// a second sweep finds nothing to do and sends nothing new
	closed, err = svc.CloseDueAuctions(testNow)
	require.NoError(t, err)
	require.Equal(t, 0, closed)

	require.Len(t, sink.SentTo("alice", model.KindAuctionWon), 1)
	require.Len(t, sink.SentTo("seller1", model.KindAuctionWon), 1)
}

func TestCloseDueAuctions_LeavesRunningAuctionsAlone(t *testing.T) {
	t.Parallel()

	svc, store, _, _ := newProxyTestService()
	require.NoError(t, store.CreateAuction(endedAuction("ended", 150)))
	require.NoError(t, store.CreateAuction(openAuction()))

	closed, err := svc.CloseDueAuctions(testNow)
	require.NoError(t, err)
	require.Equal(t, 1, closed)

	running, err := store.GetAuction("a1")
	require.NoError(t, err)
	require.True(t, running.IsActive)
}

func TestTick(t *testing.T) {
	t.Parallel()

	svc, store, _, _ := newProxyTestService()
	require.NoError(t, store.CreateAuction(endedAuction("a1", 150)))

	// a cancelled context suppresses the sweep entirely
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Tick(cancelled)

	got, err := store.GetAuction("a1")
	require.NoError(t, err)
	require.True(t, got.IsActive)

	svc.Tick(context.Background())

	got, err = store.GetAuction("a1")
	require.NoError(t, err)
	require.False(t, got.IsActive)
}
