package purchase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-ticket-onchain/gateway/catalog"
	"nft-ticket-onchain/model"
)

type capturedNotice struct {
	channel string
	message map[string]any
}

type captureNotifier struct {
	notices []capturedNotice
}

func (c *captureNotifier) Notify(_ context.Context, channel string, message map[string]any) error {
	c.notices = append(c.notices, capturedNotice{channel: channel, message: message})
	return nil
}

func successState() State {
	req := testRequest(2)
	return State{
		Open:    true,
		Step:    model.StepSuccess,
		Request: req,
		Signer:  testBuyer,
		Outcome: model.PurchaseOutcome{Results: []model.TicketPurchaseResult{
			{TransactionID: "0xtx1", AssetID: 101},
			{TransactionID: "0xtx2", AssetID: 102, Placeholder: true},
		}},
	}
}

func TestRecordPurchase(t *testing.T) {
	store := catalog.NewStore()
	store.SaveEvent(model.Event{ID: "1", EventName: "Summer Music Festival", EventDate: 1_800_000_000, TotalTickets: 10})
	hook := RecordPurchase(store)

	hook(successState())
	// 2回目は同じ AssetID なので数えない
	hook(successState())

	ev, err := store.GetEvent("1")
	require.NoError(t, err)
	assert.Equal(t, 2, ev.SoldTickets)
	assert.Len(t, store.TicketsByOwner(testBuyer, model.TicketsAll), 2)
}

func TestRecordPurchase_UnknownEvent(t *testing.T) {
	store := catalog.NewStore()
	RecordPurchase(store)(successState())
	assert.Empty(t, store.TicketsByOwner(testBuyer, model.TicketsAll))
}

func TestCelebrate(t *testing.T) {
	n := &captureNotifier{}
	Celebrate(n, stubLinks{})(successState())

	require.Len(t, n.notices, 1)
	assert.Equal(t, "buyer-0x00000000000000000000000000000000000000b1", n.notices[0].channel)
	assert.Equal(t, "purchase_completed", n.notices[0].message["type"])
	assert.Contains(t, n.notices[0].message["summary"], "2 tickets")
}

func TestBuildReceipt(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	r, err := BuildReceipt("sess-1", successState(), "sepolia", stubLinks{}, issued)
	require.NoError(t, err)

	assert.Equal(t, "sess-1", r.SessionID)
	assert.Equal(t, 2, r.Quantity)
	assert.Equal(t, testBuyer, r.Buyer)
	require.Len(t, r.Tickets, 2)
	assert.NotEmpty(t, r.Tickets[0].URL)
	assert.Empty(t, r.Tickets[1].URL)
	assert.Equal(t, "https://explorer.test/tx/0xtx1", r.QRURL)
	assert.Equal(t, issued, r.IssuedAt)

	st := successState()
	st.Step = model.StepTransaction
	_, err = BuildReceipt("sess-1", st, "sepolia", stubLinks{}, issued)
	assert.ErrorIs(t, err, ErrReceiptUnavailable)
}
