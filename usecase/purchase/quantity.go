package purchase

import (
	"math/big"

	"nft-ticket-onchain/model"
)

// EstimatedNetworkFee は表示用のネットワーク手数料の概算 (0.0001 ETH 固定)。
// 実際のガス計算ではない。
var EstimatedNetworkFee = big.NewInt(100_000_000_000_000)

// ClampQuantity は枚数を [1, MaxPerPurchase] に丸める
func ClampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	if q > model.MaxPerPurchase {
		return model.MaxPerPurchase
	}
	return q
}

// TotalPrice は unitPrice * quantity
func TotalPrice(unitPrice *big.Int, quantity int) *big.Int {
	return model.PurchaseRequest{UnitPrice: unitPrice, Quantity: quantity}.TotalPrice()
}

// WalletSummary は wallet ステップで表示する内容
type WalletSummary struct {
	Address         string `json:"address,omitempty"`
	Connected       bool   `json:"connected"`
	TotalPrice      string `json:"total_price"`
	EstimatedFee    string `json:"estimated_fee"`
	RequiredBalance string `json:"required_balance"`
	TotalPriceWei   string `json:"total_price_wei"`
}

// RequiredBalance は合計金額 + 概算手数料
func RequiredBalance(req model.PurchaseRequest) *big.Int {
	return new(big.Int).Add(req.TotalPrice(), EstimatedNetworkFee)
}

// SummarizeWallet は接続中のアドレスと必要残高をまとめる
func SummarizeWallet(req model.PurchaseRequest, signer Signer) WalletSummary {
	summary := WalletSummary{
		TotalPrice:      model.FormatETH(req.TotalPrice()),
		EstimatedFee:    model.FormatETH(EstimatedNetworkFee),
		RequiredBalance: model.FormatETH(RequiredBalance(req)),
		TotalPriceWei:   req.TotalPrice().String(),
	}
	if signer != nil {
		summary.Address, summary.Connected = signer.ActiveAddress()
	}
	return summary
}
