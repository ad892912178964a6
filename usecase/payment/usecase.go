package payment

import (
	"context"
	"errors"
	"math/big"
	"time"

	"nft-ticket-onchain/gateway/payment"
	"nft-ticket-onchain/model"
)

// EventReader はイベント価格の参照先
type EventReader interface {
	GetEvent(id string) (model.Event, error)
}

// PaymentUsecase はチケット代金の支払い検証のビジネスロジックを定義
type PaymentUsecase interface {
	// VerifyPurchasePayment は購入トランザクションがイベント価格以上をコントラクトに送金したかを検証する
	VerifyPurchasePayment(ctx context.Context, eventID string, txHash string) (*model.PaymentVerification, error)
}

type paymentUsecase struct {
	bcGateway payment.BlockchainGateway
	events    EventReader
	now       func() time.Time
}

func NewPaymentUsecase(bc payment.BlockchainGateway, events EventReader) *paymentUsecase {
	return &paymentUsecase{
		bcGateway: bc,
		events:    events,
		now:       time.Now,
	}
}

func (uc *paymentUsecase) VerifyPurchasePayment(ctx context.Context, eventID string, txHash string) (*model.PaymentVerification, error) {
	if txHash == "" {
		return nil, errors.New("tx_hash is required")
	}

	// 1. イベント価格を取得（イベントが存在するか確認）
	event, err := uc.events.GetEvent(eventID)
	if err != nil {
		return nil, errors.New("failed to get event: " + err.Error())
	}
	expected := event.Price
	if expected == nil {
		expected = new(big.Int)
	}
	paymentAddr := uc.bcGateway.GetPaymentAddress()

	// 2. 検証結果を構築
	v := &model.PaymentVerification{
		TxHash:      txHash,
		EventID:     eventID,
		AmountWei:   expected.String(),
		AmountETH:   model.FormatETH(expected),
		PaymentAddr: paymentAddr,
	}

	// 3. ブロックチェーン上でトランザクションを検証
	status, paid, err := uc.bcGateway.CheckPaymentStatus(ctx, txHash, paymentAddr, expected)
	if err != nil {
		v.Status = model.PaymentError
		return nil, errors.New("payment verification failed: " + err.Error())
	}
	if paid != nil {
		v.AmountWei = paid.String()
		v.AmountETH = model.FormatETH(paid)
	}

	v.Status = status
	if status == model.PaymentPaid {
		v.VerifiedAt = uc.now()
	}
	return v, nil
}
