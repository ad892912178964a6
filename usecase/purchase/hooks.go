package purchase

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"nft-ticket-onchain/gateway/notify"
	"nft-ticket-onchain/gateway/receipt"
	"nft-ticket-onchain/model"
)

// ErrReceiptUnavailable は success ステップ以外で領収書を要求した
var ErrReceiptUnavailable = errors.New("purchase: receipt is available only after a successful purchase")

// TicketLedger は購入したチケットの記録先
type TicketLedger interface {
	GetEvent(id string) (model.Event, error)
	IssueTickets(event model.Event, owner string, results []model.TicketPurchaseResult) int
	RecordSale(eventID string, n int) error
}

// RecordPurchase は購入成功時にチケットを台帳に登録するフック。
// 同じ AssetID がコントラクトイベントから先に登録されていれば数えない。
func RecordPurchase(ledger TicketLedger) func(State) {
	return func(st State) {
		event, err := ledger.GetEvent(st.Request.EventID)
		if err != nil {
			log.Printf("Purchase recorded for unknown event %s: %v", st.Request.EventID, err)
			return
		}
		added := ledger.IssueTickets(event, st.Signer, st.Outcome.Results)
		if added == 0 {
			return
		}
		if err := ledger.RecordSale(event.ID, added); err != nil {
			log.Printf("Failed to record sale for event %s: %v", event.ID, err)
		}
	}
}

// Celebrate は購入者のチャンネルに完了通知を送るフック
func Celebrate(notifier notify.Notifier, links LinkBuilder) func(State) {
	return func(st State) {
		report := BuildReport(st.Request, st.Outcome, links)
		msg := map[string]any{
			"type":         "purchase_completed",
			"event_id":     st.Request.EventID,
			"summary":      report.Summary,
			"assets":       report.Assets,
			"transactions": report.Transactions,
		}
		if err := notifier.Notify(context.Background(), notify.BuyerChannel(st.Signer), msg); err != nil {
			log.Printf("Failed to send purchase notification to %s: %v", st.Signer, err)
		}
	}
}

// BuildReceipt は success ステップのセッションから領収書を作る。
// QR コードは最初のトランザクションのリンク。
func BuildReceipt(sessionID string, st State, network string, links LinkBuilder, issuedAt time.Time) (receipt.Receipt, error) {
	if st.Step != model.StepSuccess {
		return receipt.Receipt{}, ErrReceiptUnavailable
	}
	report := BuildReport(st.Request, st.Outcome, links)

	r := receipt.Receipt{
		SessionID:  sessionID,
		EventName:  st.Request.EventName,
		EventDate:  time.Unix(st.Request.EventDate, 0).UTC(),
		Buyer:      st.Signer,
		Quantity:   report.Quantity,
		UnitPrice:  model.FormatETH(st.Request.UnitPrice),
		TotalPrice: model.FormatETH(TotalPrice(st.Request.UnitPrice, report.Quantity)),
		Network:    network,
		IssuedAt:   issuedAt,
	}
	for _, a := range report.Assets {
		r.Tickets = append(r.Tickets, receipt.Line{Label: a.Label, URL: a.URL})
	}
	for _, tx := range report.Transactions {
		r.Txns = append(r.Txns, receipt.Line{Label: tx.Label, URL: tx.URL})
	}
	if len(report.Transactions) > 0 {
		r.QRURL = report.Transactions[0].URL
	}
	return r, nil
}

// ReceiptFilename は領収書のファイル名
func ReceiptFilename(st State) string {
	return "ticket-receipt-" + st.Request.EventID + "-" + strconv.Itoa(len(st.Outcome.Results)) + ".pdf"
}
