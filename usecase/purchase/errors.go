package purchase

import (
	"errors"
	"fmt"

	"nft-ticket-onchain/model"
)

var (
	// ErrSignerUnavailable は送信時点でウォレットが接続されていない (wallet ステップに戻る)
	ErrSignerUnavailable = model.ErrWalletNotConnected
	// ErrConfiguration はコントラクトアドレス未設定 (ネットワーク通信前に検出)
	ErrConfiguration = errors.New("purchase: ticket contract address is not configured")
	// ErrPurchaseInFlight は同じイベント・購入者の購入処理が実行中
	ErrPurchaseInFlight = errors.New("purchase: another purchase for this event is already in progress")
	// ErrGuardUnavailable は二重送信ガード (Redis) に接続できない
	ErrGuardUnavailable = errors.New("purchase: purchase lock is unavailable, try again later")
	ErrSessionNotFound  = errors.New("purchase: session not found")
)

// ValidationError は画面内に表示する入力エラー。状態遷移は発生しない。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UnitSubmissionError は n 枚目 (1始まり) のグループが拒否されたことを表す
type UnitSubmissionError struct {
	Unit  int
	Cause error
}

func (e *UnitSubmissionError) Error() string {
	return fmt.Sprintf("failed to purchase ticket %d: %v", e.Unit, e.Cause)
}

func (e *UnitSubmissionError) Unwrap() error {
	return e.Cause
}
