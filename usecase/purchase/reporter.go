package purchase

import (
	"fmt"
	"strconv"

	"nft-ticket-onchain/model"
)

// LinkBuilder はブロックエクスプローラーのURLを組み立てる (ネットワーク通信なし)
type LinkBuilder interface {
	TxURL(txID string) string
	AssetURL(assetID uint64) string
}

// Link はエクスプローラーへのリンク1件
type Link struct {
	Label string `json:"label"`
	ID    string `json:"id"`
	URL   string `json:"url,omitempty"`
}

// Report は success ステップで表示する購入結果
type Report struct {
	EventName    string `json:"event_name"`
	Quantity     int    `json:"quantity"`
	Summary      string `json:"summary"`
	Assets       []Link `json:"assets"`
	Transactions []Link `json:"transactions"`
}

// BuildReport は購入結果からリンク一覧を作成する
func BuildReport(req model.PurchaseRequest, outcome model.PurchaseOutcome, links LinkBuilder) Report {
	n := len(outcome.Results)
	report := Report{
		EventName:    req.EventName,
		Quantity:     n,
		Summary:      fmt.Sprintf("You've successfully purchased %d ticket%s for %s", n, plural(n), req.EventName),
		Assets:       make([]Link, 0, n),
		Transactions: make([]Link, 0, n),
	}

	for _, r := range outcome.Results {
		id := strconv.FormatUint(r.AssetID, 10)
		asset := Link{Label: "Ticket #" + id, ID: id}
		// 仮IDはチェーン上に存在しないのでリンクしない
		if !r.Placeholder && links != nil {
			asset.URL = links.AssetURL(r.AssetID)
		}
		report.Assets = append(report.Assets, asset)

		tx := Link{Label: shortID(r.TransactionID), ID: r.TransactionID}
		if links != nil {
			tx.URL = links.TxURL(r.TransactionID)
		}
		report.Transactions = append(report.Transactions, tx)
	}
	return report
}

func shortID(id string) string {
	if len(id) <= 10 {
		return id
	}
	return id[:10] + "..."
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
