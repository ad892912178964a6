package purchase

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-ticket-onchain/model"
)

type stubLinks struct{}

func (stubLinks) TxURL(id string) string { return "https://explorer.test/tx/" + id }
func (stubLinks) AssetURL(id uint64) string {
	return "https://explorer.test/nft/" + strconv.FormatUint(id, 10)
}

func TestBuildReport(t *testing.T) {
	outcome := model.PurchaseOutcome{Results: []model.TicketPurchaseResult{
		{TransactionID: "0xabcdef0123456789", AssetID: 11},
		{TransactionID: "0x2", AssetID: 1_700_000_000_001, Placeholder: true},
	}}

	report := BuildReport(testRequest(2), outcome, stubLinks{})

	assert.Equal(t, 2, report.Quantity)
	assert.Equal(t, "You've successfully purchased 2 tickets for Summer Music Festival", report.Summary)
	require.Len(t, report.Assets, 2)
	assert.Equal(t, "https://explorer.test/nft/11", report.Assets[0].URL)
	assert.Empty(t, report.Assets[1].URL)
	require.Len(t, report.Transactions, 2)
	assert.Equal(t, "0xabcdef01...", report.Transactions[0].Label)
	assert.Equal(t, "https://explorer.test/tx/0x2", report.Transactions[1].URL)
}

func TestBuildReport_Single(t *testing.T) {
	outcome := model.PurchaseOutcome{Results: []model.TicketPurchaseResult{{TransactionID: "0x1", AssetID: 1}}}
	report := BuildReport(testRequest(1), outcome, nil)
	assert.Equal(t, "You've successfully purchased 1 ticket for Summer Music Festival", report.Summary)
	assert.Empty(t, report.Transactions[0].URL)
}
