package event

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"strings"

	"nft-ticket-onchain/model"
	contractUsecase "nft-ticket-onchain/usecase/contract"
)

const (
	DefaultReleaseDays = 7
	DefaultRoyalty     = 500   // 5%
	MaxRoyalty         = 10000 // 100%
)

// Catalog はイベントの保存先
type Catalog interface {
	ListEvents(filters model.EventFilters, sortBy model.EventSort, page, perPage int) model.EventPage
	GetEvent(id string) (model.Event, error)
	SaveEvent(e model.Event) model.Event
}

// Sender は接続中のウォレットでコントラクトを呼び出す
type Sender interface {
	Send(ctx context.Context, value *big.Int, build contractUsecase.CallBuilder) (string, error)
}

// CallBuilder は createTicketEvent 呼び出しの組み立て
type CallBuilder interface {
	BuildCreateEvent(ctx context.Context, from, eventName string, eventDate int64, price *big.Int, releaseDays, royalty uint64) (model.ContractCall, error)
}

// CreateInput はイベント作成の入力
type CreateInput struct {
	EventName    string `json:"event_name"`
	Description  string `json:"description"`
	EventDate    int64  `json:"event_date"`
	Price        string `json:"price"` // ETH 表記 ("0.05")
	ReleaseDays  uint64 `json:"release_days"`
	Royalty      uint64 `json:"royalty"`
	Category     string `json:"category"`
	Venue        string `json:"venue"`
	Location     string `json:"location"`
	ImageURL     string `json:"image_url"`
	TotalTickets int    `json:"total_tickets"`
}

// EventUsecase はイベント一覧・詳細・作成
type EventUsecase interface {
	List(filters model.EventFilters, sortBy model.EventSort, page, perPage int) model.EventPage
	Get(id string) (model.Event, error)

	// Create は createTicketEvent を送信し、カタログに登録する
	Create(ctx context.Context, in CreateInput) (model.Event, error)
}

type eventUsecase struct {
	catalog Catalog
	sender  Sender
	calls   CallBuilder
}

func NewEventUsecase(catalog Catalog, sender Sender, calls CallBuilder) *eventUsecase {
	return &eventUsecase{
		catalog: catalog,
		sender:  sender,
		calls:   calls,
	}
}

func (uc *eventUsecase) List(filters model.EventFilters, sortBy model.EventSort, page, perPage int) model.EventPage {
	return uc.catalog.ListEvents(filters, sortBy, page, perPage)
}

func (uc *eventUsecase) Get(id string) (model.Event, error) {
	return uc.catalog.GetEvent(id)
}

func (uc *eventUsecase) Create(ctx context.Context, in CreateInput) (model.Event, error) {
	price, err := validate(&in)
	if err != nil {
		return model.Event{}, err
	}

	var organizer string
	txHash, err := uc.sender.Send(ctx, nil, func(ctx context.Context, from string) (model.ContractCall, error) {
		organizer = from
		return uc.calls.BuildCreateEvent(ctx, from, in.EventName, in.EventDate, price, in.ReleaseDays, in.Royalty)
	})
	if err != nil {
		return model.Event{}, err
	}
	log.Printf("createTicketEvent submitted: %s (tx: %s)", in.EventName, txHash)

	// ID はカタログで採番し、TicketEventCreated が届いた時は日付で重複を避ける
	return uc.catalog.SaveEvent(model.Event{
		EventName:        in.EventName,
		Description:      in.Description,
		EventDate:        in.EventDate,
		Price:            price,
		ReleaseDays:      in.ReleaseDays,
		Royalty:          in.Royalty,
		Category:         in.Category,
		Venue:            in.Venue,
		Location:         in.Location,
		ImageURL:         in.ImageURL,
		TotalTickets:     in.TotalTickets,
		Status:           model.EventActive,
		OrganizerAddress: organizer,
		TxHash:           txHash,
	}), nil
}

// validate は入力を検証してデフォルト値を埋め、価格を Wei で返す
func validate(in *CreateInput) (*big.Int, error) {
	in.EventName = strings.TrimSpace(in.EventName)
	if in.EventName == "" || in.EventDate <= 0 || strings.TrimSpace(in.Price) == "" {
		return nil, fmt.Errorf("%w: event_name, event_date and price are required", model.ErrInvalidInput)
	}
	price, err := model.ParseETH(strings.TrimSpace(in.Price))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	if price.Sign() <= 0 {
		return nil, fmt.Errorf("%w: price must be greater than 0", model.ErrInvalidInput)
	}
	if in.ReleaseDays == 0 {
		in.ReleaseDays = DefaultReleaseDays
	}
	if in.Royalty == 0 {
		in.Royalty = DefaultRoyalty
	}
	if in.Royalty > MaxRoyalty {
		return nil, fmt.Errorf("%w: royalty must be at most %d basis points", model.ErrInvalidInput, MaxRoyalty)
	}
	if in.TotalTickets < 0 {
		return nil, fmt.Errorf("%w: total_tickets must not be negative", model.ErrInvalidInput)
	}
	return price, nil
}
