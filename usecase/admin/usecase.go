package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"nft-ticket-onchain/model"
	contractUsecase "nft-ticket-onchain/usecase/contract"
)

const (
	DefaultReleaseDays  = 7
	DefaultDeadlineDays = 7
)

var ErrNoActiveTickets = errors.New("admin: event has no active tickets to refund")

// Ledger はイベント・チケット台帳
type Ledger interface {
	GetEvent(id string) (model.Event, error)
	GetTicket(assetID uint64) (model.Ticket, error)
	ActiveTicketsForEvent(eventID string) []model.Ticket
	MarkRefunded(assetID uint64) error
}

// Sender は接続中のウォレットでコントラクトを呼び出す
type Sender interface {
	Send(ctx context.Context, value *big.Int, build contractUsecase.CallBuilder) (string, error)
}

// ContractCalls は管理者向けのコントラクト呼び出し
type ContractCalls interface {
	CheckFreezeStatus(ctx context.Context, eventDate int64, releaseDays uint64) (bool, error)
	BuildEmergencyFreeze(ctx context.Context, from string) (model.ContractCall, error)
	BuildReleaseFreeze(ctx context.Context, from string, eventDate int64, releaseDays uint64) (model.ContractCall, error)
	BuildRefund(ctx context.Context, from string, assetID uint64, buyer string, amount *big.Int, eventDate int64, deadlineDays uint64) (model.ContractCall, error)
	BuildEmergencyRefund(ctx context.Context, from string, assetID uint64, buyer string, amount *big.Int, eventDate int64) (model.ContractCall, error)
}

// RefundInput は管理者による返金の入力。
// 空の項目は台帳のチケット情報で補う。
type RefundInput struct {
	AssetID      uint64 `json:"asset_id"`
	BuyerAddress string `json:"buyer_address,omitempty"`
	Amount       string `json:"amount,omitempty"` // ETH 表記
	EventDate    int64  `json:"event_date,omitempty"`
	DeadlineDays uint64 `json:"refund_deadline_days,omitempty"`
}

// RefundResult は1枚分の返金結果
type RefundResult struct {
	AssetID uint64 `json:"asset_id"`
	Buyer   string `json:"buyer"`
	TxHash  string `json:"tx_hash,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RefundSummary は一括返金の集計
type RefundSummary struct {
	EventID   string         `json:"event_id"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Results   []RefundResult `json:"results"`
}

// AdminUsecase は凍結管理と返金
type AdminUsecase interface {
	CheckFreeze(ctx context.Context, eventDate int64, releaseDays uint64) (bool, error)
	EmergencyFreeze(ctx context.Context) (string, error)
	ReleaseFreeze(ctx context.Context, eventDate int64, releaseDays uint64) (string, error)
	Refund(ctx context.Context, in RefundInput) (string, error)
	EmergencyRefund(ctx context.Context, in RefundInput) (string, error)

	// RefundAll はイベントの有効なチケットすべてを緊急返金する
	RefundAll(ctx context.Context, eventID string) (RefundSummary, error)
}

type adminUsecase struct {
	ledger Ledger
	sender Sender
	calls  ContractCalls
}

func NewAdminUsecase(ledger Ledger, sender Sender, calls ContractCalls) *adminUsecase {
	return &adminUsecase{
		ledger: ledger,
		sender: sender,
		calls:  calls,
	}
}

func (uc *adminUsecase) CheckFreeze(ctx context.Context, eventDate int64, releaseDays uint64) (bool, error) {
	if eventDate <= 0 {
		return false, fmt.Errorf("%w: event_date is required", model.ErrInvalidInput)
	}
	if releaseDays == 0 {
		releaseDays = DefaultReleaseDays
	}
	return uc.calls.CheckFreezeStatus(ctx, eventDate, releaseDays)
}

func (uc *adminUsecase) EmergencyFreeze(ctx context.Context) (string, error) {
	txHash, err := uc.sender.Send(ctx, nil, uc.calls.BuildEmergencyFreeze)
	if err != nil {
		return "", err
	}
	log.Printf("Emergency freeze activated (tx: %s)", txHash)
	return txHash, nil
}

func (uc *adminUsecase) ReleaseFreeze(ctx context.Context, eventDate int64, releaseDays uint64) (string, error) {
	if eventDate <= 0 {
		return "", fmt.Errorf("%w: event_date is required", model.ErrInvalidInput)
	}
	if releaseDays == 0 {
		releaseDays = DefaultReleaseDays
	}
	txHash, err := uc.sender.Send(ctx, nil, func(ctx context.Context, from string) (model.ContractCall, error) {
		return uc.calls.BuildReleaseFreeze(ctx, from, eventDate, releaseDays)
	})
	if err != nil {
		return "", err
	}
	log.Printf("Freeze released for event date %d (tx: %s)", eventDate, txHash)
	return txHash, nil
}

func (uc *adminUsecase) Refund(ctx context.Context, in RefundInput) (string, error) {
	r, err := uc.resolve(in)
	if err != nil {
		return "", err
	}
	deadline := in.DeadlineDays
	if deadline == 0 {
		deadline = DefaultDeadlineDays
	}
	return uc.refund(ctx, r, func(ctx context.Context, from string) (model.ContractCall, error) {
		return uc.calls.BuildRefund(ctx, from, r.assetID, r.buyer, r.amount, r.eventDate, deadline)
	})
}

// EmergencyRefund はイベント中止時の返金。返金期限の制限はない。
func (uc *adminUsecase) EmergencyRefund(ctx context.Context, in RefundInput) (string, error) {
	r, err := uc.resolve(in)
	if err != nil {
		return "", err
	}
	return uc.refund(ctx, r, uc.emergencyCall(r))
}

func (uc *adminUsecase) RefundAll(ctx context.Context, eventID string) (RefundSummary, error) {
	event, err := uc.ledger.GetEvent(eventID)
	if err != nil {
		return RefundSummary{}, err
	}
	tickets := uc.ledger.ActiveTicketsForEvent(eventID)
	if len(tickets) == 0 {
		return RefundSummary{}, ErrNoActiveTickets
	}

	summary := RefundSummary{EventID: eventID, Results: make([]RefundResult, 0, len(tickets))}
	for _, t := range tickets {
		amount := t.Price
		if amount == nil {
			amount = event.Price
		}
		r := refundTarget{assetID: t.AssetID, buyer: t.OwnerAddress, amount: amount, eventDate: event.EventDate}

		// 1枚の失敗で止めずに残りを続ける
		result := RefundResult{AssetID: t.AssetID, Buyer: t.OwnerAddress}
		txHash, err := uc.refund(ctx, r, uc.emergencyCall(r))
		if err != nil {
			result.Error = err.Error()
			summary.Failed++
		} else {
			result.TxHash = txHash
			summary.Succeeded++
		}
		summary.Results = append(summary.Results, result)
	}

	log.Printf("Refund-all for event %s: %d succeeded, %d failed", eventID, summary.Succeeded, summary.Failed)
	return summary, nil
}

type refundTarget struct {
	assetID   uint64
	buyer     string
	amount    *big.Int
	eventDate int64
}

// resolve は入力を検証し、足りない項目を台帳のチケットで補う
func (uc *adminUsecase) resolve(in RefundInput) (refundTarget, error) {
	r := refundTarget{
		assetID:   in.AssetID,
		buyer:     strings.TrimSpace(in.BuyerAddress),
		eventDate: in.EventDate,
	}
	if r.assetID == 0 {
		return r, fmt.Errorf("%w: asset_id is required", model.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Amount) != "" {
		amount, err := model.ParseETH(strings.TrimSpace(in.Amount))
		if err != nil {
			return r, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
		}
		r.amount = amount
	}

	if r.buyer == "" || r.amount == nil || r.eventDate == 0 {
		t, err := uc.ledger.GetTicket(r.assetID)
		if err == nil {
			if r.buyer == "" {
				r.buyer = t.OwnerAddress
			}
			if r.amount == nil {
				r.amount = t.Price
			}
			if r.eventDate == 0 {
				r.eventDate = t.EventDate
			}
		}
	}

	if !common.IsHexAddress(r.buyer) {
		return r, fmt.Errorf("%w: invalid buyer address", model.ErrInvalidInput)
	}
	if r.amount == nil || r.amount.Sign() <= 0 {
		return r, fmt.Errorf("%w: refund amount is required", model.ErrInvalidInput)
	}
	if r.eventDate <= 0 {
		return r, fmt.Errorf("%w: event_date is required", model.ErrInvalidInput)
	}
	return r, nil
}

func (uc *adminUsecase) emergencyCall(r refundTarget) contractUsecase.CallBuilder {
	return func(ctx context.Context, from string) (model.ContractCall, error) {
		return uc.calls.BuildEmergencyRefund(ctx, from, r.assetID, r.buyer, r.amount, r.eventDate)
	}
}

func (uc *adminUsecase) refund(ctx context.Context, r refundTarget, build contractUsecase.CallBuilder) (string, error) {
	txHash, err := uc.sender.Send(ctx, nil, build)
	if err != nil {
		log.Printf("Failed to refund ticket %d to %s: %v", r.assetID, r.buyer, err)
		return "", err
	}
	// 台帳にないチケットでも返金自体は成功している
	if err := uc.ledger.MarkRefunded(r.assetID); err != nil {
		log.Printf("Ticket %d refunded on chain but not in catalog: %v", r.assetID, err)
	}
	log.Printf("Ticket %d refunded %s to %s (tx: %s)", r.assetID, model.FormatETH(r.amount), r.buyer, txHash)
	return txHash, nil
}
