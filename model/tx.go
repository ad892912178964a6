package model

import (
	"errors"
	"math/big"
)

// ErrWalletNotConnected はウォレット(署名者)が接続されていない
var ErrWalletNotConnected = errors.New("wallet: not connected")

// SuggestedParams はトランザクション送信直前に取得するネットワークパラメータ
type SuggestedParams struct {
	Nonce    uint64   `json:"nonce"`
	GasPrice *big.Int `json:"gas_price"`
	ChainID  *big.Int `json:"chain_id"`
}

// PaymentTxn は購入者からコントラクト(カストディ)アドレスへの送金
type PaymentTxn struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Amount *big.Int `json:"amount"`
}

// ContractCall はコントラクトメソッド呼び出し
type ContractCall struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Method string `json:"method"`
	Data   []byte `json:"data"`
	Gas    uint64 `json:"gas"`
}

// TransactionGroup は [送金] + [メソッド呼び出し] のアトミックなグループ
type TransactionGroup struct {
	Params  SuggestedParams `json:"params"`
	Payment PaymentTxn      `json:"payment"`
	Call    ContractCall    `json:"call"`
}

// SubmitResult は署名・送信の結果
type SubmitResult struct {
	TransactionIDs []string `json:"transaction_ids"`
}

// PurchaseCallArgs は purchaseTicket の引数
type PurchaseCallArgs struct {
	BuyerAddress string
	EventDate    int64
	TicketPrice  *big.Int
}

// ErrTransactionReverted はトランザクションがチェーン上で失敗した
var ErrTransactionReverted = errors.New("transaction failed on chain (reverted)")
