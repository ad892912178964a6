package contract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strconv"

	"nft-ticket-onchain/gateway/notify"
	"nft-ticket-onchain/model"
	"nft-ticket-onchain/usecase/purchase"
)

// ChainClient はコントラクトゲートウェイのうちこのユースケースが使う部分
type ChainClient interface {
	ContractAddress() string
	SuggestedParams(ctx context.Context, sender string) (model.SuggestedParams, error)
	SubscribeEvents(ctx context.Context) (<-chan *model.ContractEvent, error)
	ScanPastEvents(ctx context.Context, fromBlock uint64, toBlock *uint64) (<-chan *model.ContractEvent, error)
	VerifyTransaction(ctx context.Context, txHash string) (*model.TxVerification, error)
}

// Ledger はコントラクトイベントを反映するイベント・チケット台帳
type Ledger interface {
	FindEventByDate(eventDate int64) (model.Event, bool)
	SaveEvent(e model.Event) model.Event
	IssueTickets(event model.Event, owner string, results []model.TicketPurchaseResult) int
	RecordSale(eventID string, n int) error
	TransferTicket(assetID uint64, newOwner string) error
	MarkRefunded(assetID uint64) error
}

// CallBuilder は送信者アドレスからメソッド呼び出しを組み立てる
type CallBuilder func(ctx context.Context, from string) (model.ContractCall, error)

// Info はコントラクト情報
type Info struct {
	ContractAddress string `json:"contract_address"`
	Network         string `json:"network"`
	WalletAddress   string `json:"wallet_address,omitempty"`
	WalletConnected bool   `json:"wallet_connected"`
}

// ContractUsecase はスマートコントラクト関連のビジネスロジック
type ContractUsecase interface {
	// StartEventListener は過去イベントを反映した上でイベントリスナーを開始
	StartEventListener(ctx context.Context, fromBlock uint64) error

	// Info はコントラクトと接続中のウォレットの情報
	Info() Info

	// Send は接続中のウォレットで呼び出しを署名・送信し、トランザクションIDを返す
	Send(ctx context.Context, value *big.Int, build CallBuilder) (string, error)

	// VerifyTransaction はトランザクションを検証
	VerifyTransaction(ctx context.Context, txHash string) (*model.TxVerification, error)
}

type contractUsecase struct {
	chain    ChainClient
	signer   purchase.Signer
	ledger   Ledger
	notifier notify.Notifier
	network  string
}

func NewContractUsecase(chain ChainClient, signer purchase.Signer, ledger Ledger, notifier notify.Notifier, network string) *contractUsecase {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &contractUsecase{
		chain:    chain,
		signer:   signer,
		ledger:   ledger,
		notifier: notifier,
		network:  network,
	}
}

func (uc *contractUsecase) Info() Info {
	addr, ok := uc.signer.ActiveAddress()
	return Info{
		ContractAddress: uc.chain.ContractAddress(),
		Network:         uc.network,
		WalletAddress:   addr,
		WalletConnected: ok,
	}
}

func (uc *contractUsecase) Send(ctx context.Context, value *big.Int, build CallBuilder) (string, error) {
	contractAddr := uc.chain.ContractAddress()
	if contractAddr == "" {
		return "", purchase.ErrConfiguration
	}
	from, ok := uc.signer.ActiveAddress()
	if !ok {
		return "", purchase.ErrSignerUnavailable
	}

	params, err := uc.chain.SuggestedParams(ctx, from)
	if err != nil {
		return "", err
	}
	call, err := build(ctx, from)
	if err != nil {
		return "", err
	}
	if value == nil {
		value = new(big.Int)
	}

	res, err := uc.signer.SignAndSubmit(ctx, model.TransactionGroup{
		Params:  params,
		Payment: model.PaymentTxn{From: from, To: contractAddr, Amount: value},
		Call:    call,
	})
	if err != nil {
		if errors.Is(err, purchase.ErrSignerUnavailable) {
			return "", purchase.ErrSignerUnavailable
		}
		return "", fmt.Errorf("%s failed: %w", call.Method, err)
	}
	if len(res.TransactionIDs) == 0 {
		return "", errors.New("no transaction id returned")
	}
	return res.TransactionIDs[0], nil
}

// StartEventListener はイベントリスナーを開始し、イベントを台帳に反映する
func (uc *contractUsecase) StartEventListener(ctx context.Context, fromBlock uint64) error {
	past, err := uc.chain.ScanPastEvents(ctx, fromBlock, nil)
	if err != nil {
		log.Printf("WARNING: Failed to scan past events: %v", err)
	} else {
		n := 0
		for event := range past {
			uc.handleEvent(ctx, event)
			n++
		}
		log.Printf("Replayed %d past contract events", n)
	}

	eventChan, err := uc.chain.SubscribeEvents(ctx)
	if err != nil {
		return err
	}

	go func() {
		for event := range eventChan {
			uc.handleEvent(ctx, event)
		}
	}()

	log.Println("Contract event listener started")
	return nil
}

// handleEvent はイベントを台帳に反映し、購入者に通知する
func (uc *contractUsecase) handleEvent(ctx context.Context, event *model.ContractEvent) {
	log.Printf("Received event: %s (tx: %s, block: %d)", event.Type, event.TxHash, event.BlockNo)

	switch event.Type {
	case model.EventTicketEventCreated:
		if _, ok := uc.ledger.FindEventByDate(event.EventDate); ok {
			return
		}
		saved := uc.ledger.SaveEvent(model.Event{
			ID:               strconv.FormatUint(event.EventID, 10),
			EventName:        event.EventName,
			EventDate:        event.EventDate,
			Price:            event.Price,
			ReleaseDays:      event.ReleaseDays,
			Royalty:          event.Royalty,
			Status:           model.EventActive,
			OrganizerAddress: event.Organizer,
			TxHash:           event.TxHash,
		})
		log.Printf("Registered on-chain event %s (%s)", saved.ID, saved.EventName)

	case model.EventTicketPurchased:
		ev, ok := uc.ledger.FindEventByDate(event.EventDate)
		if !ok {
			log.Printf("WARNING: no event found for ticket %d (event date %d)", event.AssetID, event.EventDate)
			return
		}
		added := uc.ledger.IssueTickets(ev, event.Buyer, []model.TicketPurchaseResult{
			{TransactionID: event.TxHash, AssetID: event.AssetID},
		})
		if added > 0 {
			if err := uc.ledger.RecordSale(ev.ID, added); err != nil {
				log.Printf("Failed to record sale for event %s: %v", ev.ID, err)
			}
		}
		uc.notify(ctx, event.Buyer, event)

	case model.EventTicketTransferred:
		if err := uc.ledger.TransferTicket(event.AssetID, event.To); err != nil {
			log.Printf("Failed to apply transfer of ticket %d: %v", event.AssetID, err)
		}
		uc.notify(ctx, event.From, event)
		uc.notify(ctx, event.To, event)

	case model.EventTicketRefunded:
		if err := uc.ledger.MarkRefunded(event.AssetID); err != nil {
			log.Printf("Failed to apply refund of ticket %d: %v", event.AssetID, err)
		}
		uc.notify(ctx, event.Buyer, event)

	case model.EventFreezeStatusChanged:
		log.Printf("Freeze status changed: event date %d frozen=%t", event.EventDate, event.Frozen)

	default:
		log.Printf("Unknown event type: %s", event.Type)
	}
}

func (uc *contractUsecase) notify(ctx context.Context, address string, event *model.ContractEvent) {
	if address == "" {
		return
	}
	msg := map[string]any{
		"type":     string(event.Type),
		"asset_id": event.AssetID,
		"tx_hash":  event.TxHash,
	}
	if err := uc.notifier.Notify(ctx, notify.BuyerChannel(address), msg); err != nil {
		log.Printf("Failed to notify %s for event %s: %v", address, event.Type, err)
	}
}

// VerifyTransaction はトランザクションを検証
func (uc *contractUsecase) VerifyTransaction(ctx context.Context, txHash string) (*model.TxVerification, error) {
	return uc.chain.VerifyTransaction(ctx, txHash)
}
