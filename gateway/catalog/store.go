package catalog

import (
	"errors"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nft-ticket-onchain/model"
)

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrTicketNotFound = errors.New("ticket not found")
)

const secondsPerDay = 86400

// DefaultPerPage はイベント一覧の1ページあたりの件数
const DefaultPerPage = 12

// Store はイベントと保有チケットのインメモリストア
type Store struct {
	mu      sync.RWMutex
	events  map[string]*model.Event
	tickets map[uint64]*model.Ticket
	// byTx は購入トランザクションから AssetID を引く
	byTx map[string]uint64
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		events:  make(map[string]*model.Event),
		tickets: make(map[uint64]*model.Ticket),
		byTx:    make(map[string]uint64),
		now:     time.Now,
	}
}

// ===============================================
// イベント
// ===============================================

// SaveEvent はイベントを保存する。ID が空なら採番する。
func (s *Store) SaveEvent(e model.Event) model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = s.now().Unix()
	}
	if e.Price != nil {
		e.Price = new(big.Int).Set(e.Price)
	}
	s.events[e.ID] = &e
	return copyEvent(&e)
}

// GetEvent は ID でイベントを取得する
func (s *Store) GetEvent(id string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return model.Event{}, ErrEventNotFound
	}
	return copyEvent(e), nil
}

// FindEventByDate はオンチェーンの eventDate に一致するイベントを探す
func (s *Store) FindEventByDate(eventDate int64) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.events {
		if e.EventDate == eventDate {
			return copyEvent(e), true
		}
	}
	return model.Event{}, false
}

// ListEvents は絞り込み・並べ替え・ページングしたイベント一覧を返す
func (s *Store) ListEvents(filters model.EventFilters, sortBy model.EventSort, page, perPage int) model.EventPage {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	s.mu.RLock()
	filtered := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		if matches(e, filters) {
			filtered = append(filtered, copyEvent(e))
		}
	}
	s.mu.RUnlock()

	sortEvents(filtered, sortBy)

	total := len(filtered)
	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return model.EventPage{
		Events:      filtered[start:end],
		TotalItems:  total,
		TotalPages:  (total + perPage - 1) / perPage,
		CurrentPage: page,
	}
}

func matches(e *model.Event, f model.EventFilters) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(e.EventName), q) &&
			!strings.Contains(strings.ToLower(e.Venue), q) &&
			!strings.Contains(strings.ToLower(e.Location), q) {
			return false
		}
	}
	if len(f.Category) > 0 && !contains(f.Category, e.Category) {
		return false
	}
	if len(f.Status) > 0 && !contains(f.Status, string(e.Status)) {
		return false
	}
	// 価格の絞り込みは ETH 単位
	if f.PriceMin > 0 && priceOf(e).Cmp(model.ETHToWei(f.PriceMin)) < 0 {
		return false
	}
	if f.PriceMax > 0 && priceOf(e).Cmp(model.ETHToWei(f.PriceMax)) > 0 {
		return false
	}
	return true
}

func sortEvents(events []model.Event, sortBy model.EventSort) {
	var less func(a, b model.Event) bool
	switch sortBy {
	case model.SortPriceLow:
		less = func(a, b model.Event) bool { return priceOf(&a).Cmp(priceOf(&b)) < 0 }
	case model.SortPriceHigh:
		less = func(a, b model.Event) bool { return priceOf(&a).Cmp(priceOf(&b)) > 0 }
	case model.SortDateSoon:
		less = func(a, b model.Event) bool { return a.EventDate < b.EventDate }
	case model.SortPopular:
		less = func(a, b model.Event) bool { return a.SoldTickets > b.SoldTickets }
	default:
		less = func(a, b model.Event) bool { return a.CreatedAt > b.CreatedAt }
	}
	sort.SliceStable(events, func(i, j int) bool {
		if less(events[i], events[j]) {
			return true
		}
		if less(events[j], events[i]) {
			return false
		}
		return events[i].ID < events[j].ID
	})
}

// RecordSale は販売枚数を加算する
func (s *Store) RecordSale(eventID string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return ErrEventNotFound
	}
	e.SoldTickets += n
	if e.TotalTickets > 0 && e.SoldTickets >= e.TotalTickets {
		e.SoldTickets = e.TotalTickets
		e.Status = model.EventSoldOut
	}
	return nil
}

// ===============================================
// チケット
// ===============================================

// AddTicket はチケットを登録し、新しい販売として数えるべきなら true を返す。
// 同じ AssetID が既にあれば何もしない。
// 同じトランザクションの仮IDのチケットがあれば確定IDで置き換え、false を返す。
func (s *Store) AddTicket(t model.Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[t.AssetID]; ok {
		return false
	}
	tx := strings.ToLower(t.TxHash)
	if tx != "" {
		if id, ok := s.byTx[tx]; ok {
			prev := s.tickets[id]
			if t.Placeholder || !prev.Placeholder {
				return false
			}
			delete(s.tickets, id)
			if t.PurchaseDate == 0 {
				t.PurchaseDate = prev.PurchaseDate
			}
			t.Refunded = prev.Refunded
			s.insert(t)
			return false
		}
	}
	s.insert(t)
	return true
}

func (s *Store) insert(t model.Ticket) {
	if t.Price != nil {
		t.Price = new(big.Int).Set(t.Price)
	}
	if t.PurchaseDate == 0 {
		t.PurchaseDate = s.now().Unix()
	}
	s.tickets[t.AssetID] = &t
	if t.TxHash != "" {
		s.byTx[strings.ToLower(t.TxHash)] = t.AssetID
	}
}

// IssueTickets は購入結果から購入者のチケットを登録し、新規に登録した枚数を返す
func (s *Store) IssueTickets(event model.Event, owner string, results []model.TicketPurchaseResult) int {
	added := 0
	for _, r := range results {
		if s.AddTicket(model.Ticket{
			AssetID:           r.AssetID,
			EventID:           event.ID,
			EventName:         event.EventName,
			EventDate:         event.EventDate,
			Price:             event.Price,
			OwnerAddress:      owner,
			IsFrozen:          true,
			FreezeReleaseDate: freezeReleaseDate(event),
			TxHash:            r.TransactionID,
			Placeholder:       r.Placeholder,
		}) {
			added++
		}
	}
	return added
}

// freezeReleaseDate は転売凍結が解除される時刻 (イベントの releaseDays 日前)
func freezeReleaseDate(e model.Event) int64 {
	return e.EventDate - int64(e.ReleaseDays)*secondsPerDay
}

// GetTicket は AssetID でチケットを取得する
func (s *Store) GetTicket(assetID uint64) (model.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[assetID]
	if !ok {
		return model.Ticket{}, ErrTicketNotFound
	}
	return s.view(t), nil
}

// TicketsByOwner は owner の保有チケットを filter で絞り込んで返す
func (s *Store) TicketsByOwner(owner string, filter model.TicketFilter) []model.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now().Unix()
	var out []model.Ticket
	for _, t := range s.tickets {
		if !strings.EqualFold(t.OwnerAddress, owner) || t.Refunded {
			continue
		}
		v := s.view(t)
		switch filter {
		case model.TicketsUpcoming:
			if v.EventDate <= now {
				continue
			}
		case model.TicketsPast:
			if v.EventDate > now {
				continue
			}
		case model.TicketsTransferable:
			if v.IsFrozen {
				continue
			}
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EventDate != out[j].EventDate {
			return out[i].EventDate < out[j].EventDate
		}
		return out[i].AssetID < out[j].AssetID
	})
	return out
}

// ActiveTicketsForEvent は返金されていないイベントのチケットを返す
func (s *Store) ActiveTicketsForEvent(eventID string) []model.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Ticket
	for _, t := range s.tickets {
		if t.EventID == eventID && !t.Refunded {
			out = append(out, s.view(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	return out
}

// TransferTicket は所有者を変更する
func (s *Store) TransferTicket(assetID uint64, newOwner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[assetID]
	if !ok {
		return ErrTicketNotFound
	}
	t.OwnerAddress = newOwner
	return nil
}

// MarkRefunded は返金済みにする
func (s *Store) MarkRefunded(assetID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[assetID]
	if !ok {
		return ErrTicketNotFound
	}
	t.Refunded = true
	return nil
}

// view は現在時刻で凍結状態を評価したコピーを返す
func (s *Store) view(t *model.Ticket) model.Ticket {
	v := *t
	if v.Price != nil {
		v.Price = new(big.Int).Set(v.Price)
	}
	if v.FreezeReleaseDate > 0 && v.FreezeReleaseDate <= s.now().Unix() {
		v.IsFrozen = false
	}
	return v
}

func copyEvent(e *model.Event) model.Event {
	c := *e
	if c.Price != nil {
		c.Price = new(big.Int).Set(c.Price)
	}
	return c
}

func priceOf(e *model.Event) *big.Int {
	if e.Price == nil {
		return new(big.Int)
	}
	return e.Price
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
