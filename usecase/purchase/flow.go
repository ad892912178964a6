package purchase

import (
	"strings"

	"nft-ticket-onchain/model"
)

// State は購入モーダル1回分の状態
type State struct {
	Open            bool                  `json:"open"`
	Step            model.PurchaseStep    `json:"step"`
	Request         model.PurchaseRequest `json:"request"`
	DefaultQuantity int                   `json:"default_quantity"`
	// Signer は Proceed 時点で固定した購入者アドレス
	Signer     string                `json:"signer,omitempty"`
	Submitting bool                  `json:"submitting"`
	Outcome    model.PurchaseOutcome `json:"outcome"`
	// Error は致命的/部分失敗のメッセージ (transaction ステップ内のエラー表示)
	Error string `json:"error,omitempty"`
	// Validation は画面内に表示する入力エラー
	Validation string `json:"validation,omitempty"`
	Celebrated bool   `json:"celebrated"`
}

// Remaining はまだ送信していない枚数
func (s State) Remaining() int {
	return s.Request.Quantity - len(s.Outcome.Results)
}

// Action は Reduce に渡す操作
type Action interface {
	action()
}

type (
	// OpenAction はモーダルを開く。常に quantity ステップから始まる。
	OpenAction struct {
		Request         model.PurchaseRequest
		DefaultQuantity int
	}
	IncrementAction   struct{}
	DecrementAction   struct{}
	SetQuantityAction struct{ Quantity int }
	// ConfirmQuantityAction は quantity -> wallet
	ConfirmQuantityAction struct{ Signer string }
	// BackAction は wallet -> quantity
	BackAction struct{}
	// ProceedAction は wallet -> transaction
	ProceedAction struct{ Signer string }
	// SubmissionFinishedAction は送信ループの完了 (成功/失敗)
	SubmissionFinishedAction struct {
		Outcome model.PurchaseOutcome
		Err     error
	}
	// RetreatAction は transaction のエラー表示から wallet に戻る
	RetreatAction    struct{}
	CelebratedAction struct{}
	CloseAction      struct{}
)

func (OpenAction) action()               {}
func (IncrementAction) action()          {}
func (DecrementAction) action()          {}
func (SetQuantityAction) action()        {}
func (ConfirmQuantityAction) action()    {}
func (BackAction) action()               {}
func (ProceedAction) action()            {}
func (SubmissionFinishedAction) action() {}
func (RetreatAction) action()            {}
func (CelebratedAction) action()         {}
func (CloseAction) action()              {}

const (
	msgQuantityRange   = "Please select quantity between 1 and 4"
	msgConnectWallet   = "Please connect your wallet first"
	msgWalletMissing   = "Wallet not connected"
	msgSignerChanged   = "Connected wallet changed during this purchase; close and reopen to buy with another wallet"
	msgQuantityLocked  = "Some tickets were already purchased; the quantity can no longer be changed"
	msgPurchaseDefault = "Failed to purchase tickets"
)

// Reduce は (state, action) -> state の純粋関数。副作用は Session が担う。
func Reduce(s State, a Action) State {
	if open, ok := a.(OpenAction); ok {
		req := open.Request
		req.Quantity = ClampQuantity(open.DefaultQuantity)
		return State{
			Open:            true,
			Step:            model.StepQuantity,
			Request:         req,
			DefaultQuantity: open.DefaultQuantity,
		}
	}
	if !s.Open {
		return s
	}

	switch act := a.(type) {
	case IncrementAction:
		return s.withQuantity(s.Request.Quantity + 1)
	case DecrementAction:
		return s.withQuantity(s.Request.Quantity - 1)
	case SetQuantityAction:
		return s.withQuantity(act.Quantity)

	case ConfirmQuantityAction:
		if s.Step != model.StepQuantity {
			return s
		}
		if s.Request.Quantity < 1 || s.Request.Quantity > model.MaxPerPurchase {
			s.Validation = msgQuantityRange
			return s
		}
		if act.Signer == "" {
			s.Validation = msgConnectWallet
			return s
		}
		s.Step = model.StepWallet
		s.Validation = ""
		return s

	case BackAction:
		if s.Step != model.StepWallet {
			return s
		}
		if len(s.Outcome.Results) > 0 {
			s.Validation = msgQuantityLocked
			return s
		}
		s.Step = model.StepQuantity
		s.Validation = ""
		s.Error = ""
		return s

	case ProceedAction:
		if s.Step != model.StepWallet {
			return s
		}
		if act.Signer == "" {
			s.Validation = msgWalletMissing
			return s
		}
		if s.Signer != "" && !strings.EqualFold(s.Signer, act.Signer) {
			s.Validation = msgSignerChanged
			return s
		}
		s.Step = model.StepTransaction
		s.Signer = act.Signer
		s.Submitting = true
		s.Error = ""
		s.Validation = ""
		s.Outcome.FailureReason = ""
		return s

	case SubmissionFinishedAction:
		if s.Step != model.StepTransaction || !s.Submitting {
			return s
		}
		s.Submitting = false
		// 成功済みの結果は後続の失敗があっても保持する
		if len(act.Outcome.Results) >= len(s.Outcome.Results) {
			s.Outcome = act.Outcome
		} else {
			s.Outcome.FailureReason = act.Outcome.FailureReason
		}
		if act.Err == nil {
			s.Step = model.StepSuccess
			return s
		}
		s.Error = act.Err.Error()
		if s.Error == "" {
			s.Error = msgPurchaseDefault
		}
		if s.Outcome.FailureReason == "" {
			s.Outcome.FailureReason = s.Error
		}
		if isSignerUnavailable(act.Err) {
			s.Step = model.StepWallet
		}
		return s

	case RetreatAction:
		if s.Step != model.StepTransaction || s.Submitting || s.Error == "" {
			return s
		}
		s.Step = model.StepWallet
		s.Error = ""
		return s

	case CelebratedAction:
		if s.Step == model.StepSuccess {
			s.Celebrated = true
		}
		return s

	case CloseAction:
		// 送信ループの途中で閉じると部分的な結果が失われるため transaction では閉じない
		if s.Step == model.StepTransaction {
			return s
		}
		s.Open = false
		return s
	}
	return s
}

func (s State) withQuantity(q int) State {
	if s.Step != model.StepQuantity {
		return s
	}
	s.Request.Quantity = ClampQuantity(q)
	s.Validation = ""
	return s
}
