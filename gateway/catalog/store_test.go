package catalog

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-ticket-onchain/model"
)

const (
	owner = "0x00000000000000000000000000000000000000B1"
	other = "0x00000000000000000000000000000000000000B2"
)

var fixedNow = time.Unix(1_700_000_000, 0)

func newTestStore() *Store {
	s := NewStore()
	s.now = func() time.Time { return fixedNow }
	return s
}

func seededStore() *Store {
	s := newTestStore()
	s.SeedDemoEvents()
	return s
}

func eventIDs(page model.EventPage) []string {
	ids := make([]string, 0, len(page.Events))
	for _, e := range page.Events {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestListEvents_Sort(t *testing.T) {
	s := seededStore()

	tests := []struct {
		sort model.EventSort
		want []string
	}{
		{model.SortNewest, []string{"3", "2", "1"}},
		{model.SortPriceLow, []string{"1", "3", "2"}},
		{model.SortPriceHigh, []string{"2", "3", "1"}},
		{model.SortDateSoon, []string{"3", "1", "2"}},
		{model.SortPopular, []string{"3", "1", "2"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			page := s.ListEvents(model.EventFilters{}, tt.sort, 1, 12)
			assert.Equal(t, tt.want, eventIDs(page))
			assert.Equal(t, 3, page.TotalItems)
			assert.Equal(t, 1, page.TotalPages)
		})
	}
}

func TestListEvents_Filters(t *testing.T) {
	s := seededStore()

	page := s.ListEvents(model.EventFilters{Search: "central"}, model.SortNewest, 1, 12)
	assert.Equal(t, []string{"1"}, eventIDs(page))

	page = s.ListEvents(model.EventFilters{Category: []string{"sports", "conference"}}, model.SortDateSoon, 1, 12)
	assert.Equal(t, []string{"3", "2"}, eventIDs(page))

	page = s.ListEvents(model.EventFilters{Status: []string{"upcoming"}}, model.SortNewest, 1, 12)
	assert.Equal(t, []string{"2"}, eventIDs(page))

	// 価格は ETH 単位。1 ETH 以上のイベントはない
	page = s.ListEvents(model.EventFilters{PriceMin: 1}, model.SortNewest, 1, 12)
	assert.Empty(t, page.Events)
	page = s.ListEvents(model.EventFilters{PriceMax: 1}, model.SortNewest, 1, 12)
	assert.Len(t, page.Events, 3)
}

func TestListEvents_Pagination(t *testing.T) {
	s := seededStore()

	page := s.ListEvents(model.EventFilters{}, model.SortNewest, 2, 2)
	assert.Equal(t, []string{"1"}, eventIDs(page))
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)

	page = s.ListEvents(model.EventFilters{}, model.SortNewest, 5, 2)
	assert.Empty(t, page.Events)
	assert.Equal(t, 3, page.TotalItems)
}

func TestSaveEvent_AssignsIDAndCopies(t *testing.T) {
	s := newTestStore()
	price := big.NewInt(100)
	saved := s.SaveEvent(model.Event{EventName: "New", Price: price})
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, fixedNow.Unix(), saved.CreatedAt)

	price.SetInt64(1)
	got, err := s.GetEvent(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), got.Price)

	_, err = s.GetEvent("missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRecordSale_SoldOut(t *testing.T) {
	s := newTestStore()
	e := s.SaveEvent(model.Event{ID: "x", TotalTickets: 2, Status: model.EventActive})

	require.NoError(t, s.RecordSale(e.ID, 3))
	got, _ := s.GetEvent(e.ID)
	assert.Equal(t, 2, got.SoldTickets)
	assert.Equal(t, model.EventSoldOut, got.Status)

	assert.ErrorIs(t, s.RecordSale("missing", 1), ErrEventNotFound)
}

func TestIssueTickets_IdempotentByAssetID(t *testing.T) {
	s := newTestStore()
	e := s.SaveEvent(model.Event{ID: "1", EventName: "Live", EventDate: fixedNow.Unix() + 30*secondsPerDay, ReleaseDays: 7, Price: big.NewInt(5)})
	results := []model.TicketPurchaseResult{{TransactionID: "0xtx1", AssetID: 11}, {TransactionID: "0xtx2", AssetID: 12}}

	assert.Equal(t, 2, s.IssueTickets(e, owner, results))
	assert.Equal(t, 0, s.IssueTickets(e, owner, results))

	tickets := s.TicketsByOwner(owner, model.TicketsAll)
	require.Len(t, tickets, 2)
	assert.True(t, tickets[0].IsFrozen)
	assert.Equal(t, e.EventDate-7*secondsPerDay, tickets[0].FreezeReleaseDate)
	assert.Equal(t, "0xtx1", tickets[0].TxHash)
}

func TestIssueTickets_ReplacesPlaceholderFromSameTx(t *testing.T) {
	s := newTestStore()
	e := s.SaveEvent(model.Event{ID: "1", EventName: "Live", EventDate: fixedNow.Unix() + 30*secondsPerDay, Price: big.NewInt(5)})

	placeholder := []model.TicketPurchaseResult{{TransactionID: "0xABC1", AssetID: 1_700_000_000_000, Placeholder: true}}
	assert.Equal(t, 1, s.IssueTickets(e, owner, placeholder))

	// コントラクトイベントから確定IDが届く
	confirmed := []model.TicketPurchaseResult{{TransactionID: "0xabc1", AssetID: 42}}
	assert.Equal(t, 0, s.IssueTickets(e, owner, confirmed))

	tickets := s.TicketsByOwner(owner, model.TicketsAll)
	require.Len(t, tickets, 1)
	assert.Equal(t, uint64(42), tickets[0].AssetID)
	assert.False(t, tickets[0].Placeholder)
	assert.Equal(t, fixedNow.Unix(), tickets[0].PurchaseDate)

	_, err := s.GetTicket(1_700_000_000_000)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestIssueTickets_PlaceholderAfterConfirmedIsIgnored(t *testing.T) {
	s := newTestStore()
	e := s.SaveEvent(model.Event{ID: "1", EventName: "Live", EventDate: fixedNow.Unix() + 30*secondsPerDay, Price: big.NewInt(5)})

	assert.Equal(t, 1, s.IssueTickets(e, owner, []model.TicketPurchaseResult{{TransactionID: "0xabc1", AssetID: 42}}))
	assert.Equal(t, 0, s.IssueTickets(e, owner, []model.TicketPurchaseResult{{TransactionID: "0xabc1", AssetID: 1_700_000_000_000, Placeholder: true}}))

	tickets := s.TicketsByOwner(owner, model.TicketsAll)
	require.Len(t, tickets, 1)
	assert.Equal(t, uint64(42), tickets[0].AssetID)
}

func TestTicketsByOwner_Filters(t *testing.T) {
	s := newTestStore()
	now := fixedNow.Unix()
	s.AddTicket(model.Ticket{AssetID: 1, OwnerAddress: owner, EventDate: now + 10*secondsPerDay, IsFrozen: true, FreezeReleaseDate: now + 3*secondsPerDay})
	s.AddTicket(model.Ticket{AssetID: 2, OwnerAddress: owner, EventDate: now - secondsPerDay, IsFrozen: true, FreezeReleaseDate: now - 8*secondsPerDay})
	s.AddTicket(model.Ticket{AssetID: 3, OwnerAddress: owner, EventDate: now + 20*secondsPerDay})
	s.AddTicket(model.Ticket{AssetID: 4, OwnerAddress: other, EventDate: now + 20*secondsPerDay})

	ids := func(ts []model.Ticket) []uint64 {
		var out []uint64
		for _, t := range ts {
			out = append(out, t.AssetID)
		}
		return out
	}

	assert.Equal(t, []uint64{2, 1, 3}, ids(s.TicketsByOwner(owner, model.TicketsAll)))
	assert.Equal(t, []uint64{1, 3}, ids(s.TicketsByOwner(owner, model.TicketsUpcoming)))
	assert.Equal(t, []uint64{2}, ids(s.TicketsByOwner(owner, model.TicketsPast)))
	// 凍結解除日を過ぎたものは譲渡可能
	assert.Equal(t, []uint64{2, 3}, ids(s.TicketsByOwner(owner, model.TicketsTransferable)))
}

func TestTransferAndRefund(t *testing.T) {
	s := newTestStore()
	s.AddTicket(model.Ticket{AssetID: 1, EventID: "e", OwnerAddress: owner})
	s.AddTicket(model.Ticket{AssetID: 2, EventID: "e", OwnerAddress: owner})

	require.NoError(t, s.TransferTicket(1, other))
	assert.Len(t, s.TicketsByOwner(other, model.TicketsAll), 1)

	require.NoError(t, s.MarkRefunded(2))
	assert.Empty(t, s.TicketsByOwner(owner, model.TicketsAll))
	active := s.ActiveTicketsForEvent("e")
	require.Len(t, active, 1)
	assert.Equal(t, uint64(1), active[0].AssetID)

	assert.ErrorIs(t, s.TransferTicket(99, other), ErrTicketNotFound)
	assert.ErrorIs(t, s.MarkRefunded(99), ErrTicketNotFound)
	_, err := s.GetTicket(99)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestFindEventByDate(t *testing.T) {
	s := newTestStore()
	s.SaveEvent(model.Event{ID: "a", EventDate: 1_800_000_000})

	e, ok := s.FindEventByDate(1_800_000_000)
	assert.True(t, ok)
	assert.Equal(t, "a", e.ID)

	_, ok = s.FindEventByDate(1)
	assert.False(t, ok)
}
