package model

import (
	"math/big"
	"time"
)

// MaxPerPurchase は1回の購入で選択できるチケット枚数の上限
const MaxPerPurchase = 4

// ===============================================
// イベント / チケット
// ===============================================

// EventStatus はイベントの販売状態
type EventStatus string

const (
	EventActive   EventStatus = "active"
	EventUpcoming EventStatus = "upcoming"
	EventPast     EventStatus = "past"
	EventSoldOut  EventStatus = "sold-out"
)

// Event はチケット販売対象のイベント
type Event struct {
	ID               string      `json:"id"`
	EventName        string      `json:"event_name"`
	Description      string      `json:"description,omitempty"`
	EventDate        int64       `json:"event_date"`   // unix 秒
	Price            *big.Int    `json:"price"`        // Wei
	ReleaseDays      uint64      `json:"release_days"` // 転売凍結が解除されるイベント前日数
	Royalty          uint64      `json:"royalty"`      // basis points (100 = 1%)
	Category         string      `json:"category,omitempty"`
	Venue            string      `json:"venue,omitempty"`
	Location         string      `json:"location,omitempty"`
	ImageURL         string      `json:"image_url,omitempty"`
	TotalTickets     int         `json:"total_tickets,omitempty"`
	SoldTickets      int         `json:"sold_tickets"`
	Status           EventStatus `json:"status"`
	CreatedAt        int64       `json:"created_at,omitempty"`
	OrganizerAddress string      `json:"organizer_address,omitempty"`
	TxHash           string      `json:"tx_hash,omitempty"`
}

// Ticket は購入者が保有するチケットNFT
type Ticket struct {
	AssetID           uint64   `json:"asset_id"`
	EventID           string   `json:"event_id"`
	EventName         string   `json:"event_name"`
	EventDate         int64    `json:"event_date"`
	Price             *big.Int `json:"price"`
	PurchaseDate      int64    `json:"purchase_date"`
	OwnerAddress      string   `json:"owner_address"`
	IsFrozen          bool     `json:"is_frozen"`
	FreezeReleaseDate int64    `json:"freeze_release_date,omitempty"`
	Refunded          bool     `json:"refunded,omitempty"`
	TxHash            string   `json:"tx_hash,omitempty"`
	// Placeholder はレシート未取得のため仮IDで登録されている
	Placeholder bool `json:"placeholder,omitempty"`
}

// EventFilters はイベント一覧の絞り込み条件
type EventFilters struct {
	Search   string   `json:"search,omitempty"`
	Category []string `json:"category,omitempty"`
	Status   []string `json:"status,omitempty"`
	PriceMin int64    `json:"price_min,omitempty"` // ETH 単位
	PriceMax int64    `json:"price_max,omitempty"` // ETH 単位
}

// EventSort はイベント一覧の並び順
type EventSort string

const (
	SortNewest    EventSort = "newest"
	SortPriceLow  EventSort = "price-low"
	SortPriceHigh EventSort = "price-high"
	SortPopular   EventSort = "popular"
	SortDateSoon  EventSort = "date-soon"
)

// EventPage はページングされたイベント一覧
type EventPage struct {
	Events      []Event `json:"events"`
	TotalItems  int     `json:"total_items"`
	TotalPages  int     `json:"total_pages"`
	CurrentPage int     `json:"current_page"`
}

// TicketFilter は保有チケット一覧の絞り込み
type TicketFilter string

const (
	TicketsAll          TicketFilter = "all"
	TicketsUpcoming     TicketFilter = "upcoming"
	TicketsPast         TicketFilter = "past"
	TicketsTransferable TicketFilter = "transferable"
)

// ===============================================
// 購入フロー
// ===============================================

// PurchaseStep は購入フローの画面ステップ
type PurchaseStep string

const (
	StepQuantity    PurchaseStep = "quantity"
	StepWallet      PurchaseStep = "wallet"
	StepTransaction PurchaseStep = "transaction"
	StepSuccess     PurchaseStep = "success"
)

// PurchaseRequest はモーダルを開いた時点のイベント情報と枚数
type PurchaseRequest struct {
	EventID   string   `json:"event_id"`
	EventName string   `json:"event_name"`
	EventDate int64    `json:"event_date"`
	UnitPrice *big.Int `json:"unit_price"` // Wei
	Quantity  int      `json:"quantity"`
}

// TotalPrice は UnitPrice * Quantity (整数演算)
func (r PurchaseRequest) TotalPrice() *big.Int {
	if r.UnitPrice == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(r.UnitPrice, big.NewInt(int64(r.Quantity)))
}

// TicketPurchaseResult は1枚分の購入結果
type TicketPurchaseResult struct {
	TransactionID string `json:"transaction_id"`
	AssetID       uint64 `json:"asset_id"`
	// Placeholder はレシートから確定IDを取得できず仮IDを割り当てた場合に true
	Placeholder bool `json:"placeholder,omitempty"`
}

// PurchaseOutcome は購入ループの集計結果
type PurchaseOutcome struct {
	Results       []TicketPurchaseResult `json:"results"`
	FailureReason string                 `json:"failure_reason,omitempty"`
}

// AssetIDs は成功したチケットのIDを順に返す
func (o PurchaseOutcome) AssetIDs() []uint64 {
	ids := make([]uint64, 0, len(o.Results))
	for _, r := range o.Results {
		ids = append(ids, r.AssetID)
	}
	return ids
}

// TransactionIDs は成功したトランザクションIDを順に返す
func (o PurchaseOutcome) TransactionIDs() []string {
	ids := make([]string, 0, len(o.Results))
	for _, r := range o.Results {
		ids = append(ids, r.TransactionID)
	}
	return ids
}

// ===============================================
// スマートコントラクト関連のモデル
// ===============================================

// EventType はコントラクトイベントの種類
type EventType string

const (
	EventTicketEventCreated  EventType = "TicketEventCreated"
	EventTicketPurchased     EventType = "TicketPurchased"
	EventTicketTransferred   EventType = "TicketTransferred"
	EventTicketRefunded      EventType = "TicketRefunded"
	EventFreezeStatusChanged EventType = "FreezeStatusChanged"
)

// ContractEvent はコントラクトイベントを表す
type ContractEvent struct {
	Type        EventType `json:"type"`
	TxHash      string    `json:"tx_hash"`
	BlockNo     uint64    `json:"block_number"`
	EventID     uint64    `json:"event_id,omitempty"`
	AssetID     uint64    `json:"asset_id,omitempty"`
	EventName   string    `json:"event_name,omitempty"`
	EventDate   int64     `json:"event_date,omitempty"`
	Price       *big.Int  `json:"price,omitempty"`
	Amount      *big.Int  `json:"amount,omitempty"`
	ReleaseDays uint64    `json:"release_days,omitempty"`
	Royalty     uint64    `json:"royalty,omitempty"`
	Organizer   string    `json:"organizer,omitempty"`
	Buyer       string    `json:"buyer,omitempty"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to,omitempty"`
	Frozen      bool      `json:"frozen,omitempty"`
}

// TxVerification はトランザクション検証結果
type TxVerification struct {
	TxHash         string `json:"tx_hash"`
	Status         string `json:"status"` // "pending", "success", "failed"
	BlockNumber    uint64 `json:"block_number,omitempty"`
	GasUsed        uint64 `json:"gas_used,omitempty"`
	Success        bool   `json:"success"`
	IsContractCall bool   `json:"is_contract_call"`
}

// PaymentStatus はチケット代金支払いの検証状態
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentError   PaymentStatus = "PAYMENT_ERROR"
)

// PaymentVerification は購入トランザクションの支払い検証結果
type PaymentVerification struct {
	TxHash      string        `json:"tx_hash"`
	EventID     string        `json:"event_id"`
	AmountWei   string        `json:"amount_wei"`
	AmountETH   string        `json:"amount_eth"`
	PaymentAddr string        `json:"payment_addr"`
	Status      PaymentStatus `json:"status"`
	VerifiedAt  time.Time     `json:"verified_at"`
}
