package explorer

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// ネットワークごとのブロックエクスプローラー
var baseURLs = map[string]string{
	"mainnet": "https://etherscan.io",
	"sepolia": "https://sepolia.etherscan.io",
	"holesky": "https://holesky.etherscan.io",
}

// DefaultNetwork は NETWORK 未設定時のネットワーク
const DefaultNetwork = "sepolia"

// Explorer はトランザクションとチケットNFTのリンクを組み立てる
type Explorer struct {
	Network  string
	baseURL  string
	contract string
}

// New は network と contract (NFT コントラクトアドレス) から Explorer を作成する。
// 未知のネットワークでは空のリンクを返す。
func New(network, contract string) *Explorer {
	network = strings.ToLower(strings.TrimSpace(network))
	if network == "" {
		network = DefaultNetwork
	}
	return &Explorer{
		Network:  network,
		baseURL:  baseURLs[network],
		contract: contract,
	}
}

// TxURL はトランザクションのリンク
func (e *Explorer) TxURL(txID string) string {
	if e.baseURL == "" || txID == "" {
		return ""
	}
	return fmt.Sprintf("%s/tx/%s", e.baseURL, txID)
}

// AssetURL はチケットNFTのリンク
func (e *Explorer) AssetURL(assetID uint64) string {
	if e.baseURL == "" || e.contract == "" {
		return ""
	}
	return fmt.Sprintf("%s/nft/%s/%d", e.baseURL, e.contract, assetID)
}

// QRCode は content を PNG の QR コードにする
func QRCode(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("empty QR content")
	}
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}
