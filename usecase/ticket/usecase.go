package ticket

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nft-ticket-onchain/model"
	contractUsecase "nft-ticket-onchain/usecase/contract"
)

// RefundDeadlineDays はイベント何日前まで返金を受け付けるか
const RefundDeadlineDays = 7

var (
	ErrNotOwner      = errors.New("ticket: connected wallet does not own this ticket")
	ErrTicketFrozen  = errors.New("ticket: ticket is frozen and cannot be transferred yet")
	ErrRefunded      = errors.New("ticket: ticket has already been refunded")
	ErrEventPassed   = errors.New("ticket: event has already occurred")
	ErrRefundClosed  = errors.New("ticket: refund deadline has passed")
	ErrSameRecipient = errors.New("ticket: recipient already owns this ticket")
)

// Ledger は保有チケットの台帳
type Ledger interface {
	GetTicket(assetID uint64) (model.Ticket, error)
	TicketsByOwner(owner string, filter model.TicketFilter) []model.Ticket
	TransferTicket(assetID uint64, newOwner string) error
	MarkRefunded(assetID uint64) error
}

// Wallet は接続中のウォレット
type Wallet interface {
	ActiveAddress() (string, bool)
}

// Sender は接続中のウォレットでコントラクトを呼び出す
type Sender interface {
	Send(ctx context.Context, value *big.Int, build contractUsecase.CallBuilder) (string, error)
}

// CallBuilder は transferTicket / refundTicket 呼び出しの組み立て
type CallBuilder interface {
	BuildTransfer(ctx context.Context, from string, assetID uint64, newOwner string, fee *big.Int) (model.ContractCall, error)
	BuildRefund(ctx context.Context, from string, assetID uint64, buyer string, amount *big.Int, eventDate int64, deadlineDays uint64) (model.ContractCall, error)
}

// TransferInput は転送の入力
type TransferInput struct {
	To  string `json:"to"`
	Fee string `json:"fee,omitempty"` // ETH 表記。空なら 0
}

// TicketUsecase は購入者のチケット操作
type TicketUsecase interface {
	List(owner string, filter model.TicketFilter) ([]model.Ticket, error)
	Transfer(ctx context.Context, assetID uint64, in TransferInput) (string, error)
	Refund(ctx context.Context, assetID uint64, reason string) (string, error)
}

type ticketUsecase struct {
	ledger Ledger
	wallet Wallet
	sender Sender
	calls  CallBuilder
	now    func() time.Time
}

func NewTicketUsecase(ledger Ledger, wallet Wallet, sender Sender, calls CallBuilder) *ticketUsecase {
	return &ticketUsecase{
		ledger: ledger,
		wallet: wallet,
		sender: sender,
		calls:  calls,
		now:    time.Now,
	}
}

func (uc *ticketUsecase) List(owner string, filter model.TicketFilter) ([]model.Ticket, error) {
	if !common.IsHexAddress(owner) {
		return nil, fmt.Errorf("%w: owner must be a hex address", model.ErrInvalidInput)
	}
	switch filter {
	case "":
		filter = model.TicketsAll
	case model.TicketsAll, model.TicketsUpcoming, model.TicketsPast, model.TicketsTransferable:
	default:
		return nil, fmt.Errorf("%w: unknown filter %q", model.ErrInvalidInput, filter)
	}
	tickets := uc.ledger.TicketsByOwner(owner, filter)
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	return tickets, nil
}

// Transfer は凍結されていないチケットを to に転送する
func (uc *ticketUsecase) Transfer(ctx context.Context, assetID uint64, in TransferInput) (string, error) {
	to := strings.TrimSpace(in.To)
	if !common.IsHexAddress(to) {
		return "", fmt.Errorf("%w: invalid recipient address", model.ErrInvalidInput)
	}
	fee := new(big.Int)
	if strings.TrimSpace(in.Fee) != "" {
		parsed, err := model.ParseETH(strings.TrimSpace(in.Fee))
		if err != nil {
			return "", fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
		}
		fee = parsed
	}

	t, err := uc.owned(assetID)
	if err != nil {
		return "", err
	}
	if t.IsFrozen {
		return "", ErrTicketFrozen
	}
	if strings.EqualFold(t.OwnerAddress, to) {
		return "", ErrSameRecipient
	}

	txHash, err := uc.sender.Send(ctx, fee, func(ctx context.Context, from string) (model.ContractCall, error) {
		return uc.calls.BuildTransfer(ctx, from, assetID, to, fee)
	})
	if err != nil {
		return "", err
	}
	if err := uc.ledger.TransferTicket(assetID, to); err != nil {
		log.Printf("Failed to update owner of ticket %d after transfer: %v", assetID, err)
	}
	log.Printf("Ticket %d transferred to %s (tx: %s)", assetID, to, txHash)
	return txHash, nil
}

// Refund はイベントの RefundDeadlineDays 日前までチケット代金を返金する
func (uc *ticketUsecase) Refund(ctx context.Context, assetID uint64, reason string) (string, error) {
	t, err := uc.owned(assetID)
	if err != nil {
		return "", err
	}

	now := uc.now().Unix()
	if t.EventDate <= now {
		return "", ErrEventPassed
	}
	if now >= t.EventDate-RefundDeadlineDays*86400 {
		return "", ErrRefundClosed
	}

	txHash, err := uc.sender.Send(ctx, nil, func(ctx context.Context, from string) (model.ContractCall, error) {
		return uc.calls.BuildRefund(ctx, from, assetID, t.OwnerAddress, t.Price, t.EventDate, RefundDeadlineDays)
	})
	if err != nil {
		return "", err
	}
	if err := uc.ledger.MarkRefunded(assetID); err != nil {
		log.Printf("Failed to mark ticket %d refunded: %v", assetID, err)
	}
	if reason != "" {
		log.Printf("Ticket %d refunded (tx: %s, reason: %s)", assetID, txHash, reason)
	} else {
		log.Printf("Ticket %d refunded (tx: %s)", assetID, txHash)
	}
	return txHash, nil
}

// owned は接続中のウォレットが保有する返金前のチケットを返す
func (uc *ticketUsecase) owned(assetID uint64) (model.Ticket, error) {
	t, err := uc.ledger.GetTicket(assetID)
	if err != nil {
		return model.Ticket{}, err
	}
	if t.Refunded {
		return model.Ticket{}, ErrRefunded
	}
	active, ok := uc.wallet.ActiveAddress()
	if !ok {
		return model.Ticket{}, model.ErrWalletNotConnected
	}
	if !strings.EqualFold(active, t.OwnerAddress) {
		return model.Ticket{}, ErrNotOwner
	}
	return t, nil
}
