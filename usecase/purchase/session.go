package purchase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"nft-ticket-onchain/model"
)

// Guard は同じイベント・購入者の二重送信を防ぐ
type Guard interface {
	Acquire(ctx context.Context, eventID, buyer string) (bool, error)
	Release(ctx context.Context, eventID, buyer string) error
}

// lockLifetime は有効期限付きのロックを持つ Guard。送信ループは期限内に打ち切る。
type lockLifetime interface {
	TTL() time.Duration
}

// NopGuard は排他を行わない Guard
type NopGuard struct{}

func (NopGuard) Acquire(context.Context, string, string) (bool, error) { return true, nil }
func (NopGuard) Release(context.Context, string, string) error         { return nil }

// Host はモーダルを表示している側のコールバック
type Host struct {
	OnClose func()
	// OnConfirmed は送信ループの終了時、新しく確定したチケットがあれば呼ばれる (部分失敗を含む)
	OnConfirmed func(State)
	// OnSuccess は全枚数の購入成功時に1回だけ呼ばれる
	OnSuccess func(assetIDs []uint64)
	// OnCelebrate は success ステップに入った時に1回だけ呼ばれる
	OnCelebrate func(State)
}

// Session は購入フローのコントローラー
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	state    State
	running  bool
	composer *Composer
	signer   Signer
	guard    Guard
	host     Host
}

// NewSession は Session を作成する
func NewSession(id string, composer *Composer, signer Signer, guard Guard, host Host) *Session {
	if guard == nil {
		guard = NopGuard{}
	}
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		composer:  composer,
		signer:    signer,
		guard:     guard,
		host:      host,
	}
}

// State は現在の状態のスナップショット
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open はモーダルを開き quantity ステップにリセットする
func (s *Session) Open(req model.PurchaseRequest, defaultQuantity int) State {
	return s.dispatch(OpenAction{Request: req, DefaultQuantity: defaultQuantity})
}

func (s *Session) Increment() State { return s.dispatch(IncrementAction{}) }
func (s *Session) Decrement() State { return s.dispatch(DecrementAction{}) }

func (s *Session) SetQuantity(q int) State {
	return s.dispatch(SetQuantityAction{Quantity: q})
}

// ConfirmQuantity は quantity -> wallet。ウォレット未接続なら ValidationError
func (s *Session) ConfirmQuantity() (State, error) {
	addr, _ := s.signer.ActiveAddress()
	st := s.dispatch(ConfirmQuantityAction{Signer: addr})
	return st, validation(st)
}

// Back は wallet -> quantity
func (s *Session) Back() (State, error) {
	st := s.dispatch(BackAction{})
	return st, validation(st)
}

// Retreat は transaction のエラー表示から wallet に戻る
func (s *Session) Retreat() State {
	return s.dispatch(RetreatAction{})
}

// Close はモーダルを閉じる。transaction ステップでは何もしない。
func (s *Session) Close() State {
	s.mu.Lock()
	wasOpen := s.state.Open
	s.state = Reduce(s.state, CloseAction{})
	st := s.state
	s.mu.Unlock()

	if wasOpen && !st.Open && s.host.OnClose != nil {
		s.host.OnClose()
	}
	return st
}

// Proceed は wallet -> transaction に遷移し、送信ループを最後まで実行する
func (s *Session) Proceed(ctx context.Context) (State, error) {
	if st, err := s.Begin(); err != nil {
		return st, err
	}
	return s.Run(ctx), nil
}

// Begin は wallet -> transaction の遷移だけを行う
func (s *Session) Begin() (State, error) {
	addr, _ := s.signer.ActiveAddress()
	st := s.dispatch(ProceedAction{Signer: addr})
	return st, validation(st)
}

// Run は Begin 済みのセッションの送信ループを実行する。
// 送信中のキャンセルはサポートしない。
func (s *Session) Run(ctx context.Context) State {
	s.mu.Lock()
	if s.running || !s.state.Submitting {
		st := s.state
		s.mu.Unlock()
		return st
	}
	s.running = true
	st := s.state
	s.mu.Unlock()

	outcome, err := s.submit(ctx, st)
	return s.finish(outcome, err, len(st.Outcome.Results))
}

func (s *Session) submit(ctx context.Context, st State) (model.PurchaseOutcome, error) {
	ok, err := s.guard.Acquire(ctx, st.Request.EventID, st.Signer)
	if err != nil {
		log.Printf("Purchase guard error for event %s: %v", st.Request.EventID, err)
		return st.Outcome, fmt.Errorf("%w: %v", ErrGuardUnavailable, err)
	}
	if !ok {
		return st.Outcome, ErrPurchaseInFlight
	}
	defer func() {
		if err := s.guard.Release(context.Background(), st.Request.EventID, st.Signer); err != nil {
			log.Printf("Failed to release purchase guard for event %s: %v", st.Request.EventID, err)
		}
	}()
	if l, ok := s.guard.(lockLifetime); ok && l.TTL() > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.TTL())
		defer cancel()
	}

	return s.composer.Submit(ctx, st.Request, st.Signer, st.Outcome)
}

func (s *Session) finish(outcome model.PurchaseOutcome, err error, confirmedBefore int) State {
	s.mu.Lock()
	s.running = false
	s.state = Reduce(s.state, SubmissionFinishedAction{Outcome: outcome, Err: err})
	celebrate := s.state.Step == model.StepSuccess && !s.state.Celebrated
	if celebrate {
		s.state = Reduce(s.state, CelebratedAction{})
	}
	st := s.state
	s.mu.Unlock()

	if len(st.Outcome.Results) > confirmedBefore && s.host.OnConfirmed != nil {
		s.host.OnConfirmed(st)
	}
	if celebrate {
		if s.host.OnCelebrate != nil {
			s.host.OnCelebrate(st)
		}
		if s.host.OnSuccess != nil {
			s.host.OnSuccess(st.Outcome.AssetIDs())
		}
	}
	return st
}

func (s *Session) dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
	return s.state
}

func validation(st State) error {
	if st.Validation == "" {
		return nil
	}
	return &ValidationError{Message: st.Validation}
}
