package purchase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"nft-ticket-onchain/model"
	"nft-ticket-onchain/monitoring"
)

// Signer はウォレット(署名者)
type Signer interface {
	// ActiveAddress は接続中のアドレス。未接続なら false
	ActiveAddress() (string, bool)

	// SignAndSubmit はグループに署名して送信し、トランザクションIDを返す
	SignAndSubmit(ctx context.Context, group model.TransactionGroup) (model.SubmitResult, error)
}

// ContractClient はチケットコントラクトのクライアント
type ContractClient interface {
	// ContractAddress は代金を受け取るコントラクト(カストディ)アドレス。未設定なら ""
	ContractAddress() string

	// SuggestedParams は送信ごとに sender の最新のネットワークパラメータを取得する
	SuggestedParams(ctx context.Context, sender string) (model.SuggestedParams, error)

	// BuildPurchaseCall は purchaseTicket 呼び出しを組み立てる
	BuildPurchaseCall(ctx context.Context, args model.PurchaseCallArgs, params model.SuggestedParams) (model.ContractCall, error)
}

// AssetResolver は確定したトランザクションから発行されたチケットIDを取得する
type AssetResolver interface {
	ResolveAssetID(ctx context.Context, txID string) (uint64, error)
}

// Composer は1枚ずつ [送金 + purchaseTicket] のグループを順番に送信する
type Composer struct {
	contract ContractClient
	signer   Signer
	assets   AssetResolver
	now      func() time.Time
}

// NewComposer は Composer を作成する。assets が nil の場合は仮IDを割り当てる。
func NewComposer(contract ContractClient, signer Signer, assets AssetResolver) *Composer {
	return &Composer{
		contract: contract,
		signer:   signer,
		assets:   assets,
		now:      time.Now,
	}
}

// Submit は prior に含まれる成功分の続きから req.Quantity 枚目までを送信する。
// 失敗した時点でループを打ち切り、それまでの成功分を含む結果とエラーを返す。
func (c *Composer) Submit(ctx context.Context, req model.PurchaseRequest, buyer string, prior model.PurchaseOutcome) (model.PurchaseOutcome, error) {
	outcome := model.PurchaseOutcome{
		Results: append([]model.TicketPurchaseResult(nil), prior.Results...),
	}

	contractAddr := c.contract.ContractAddress()
	if contractAddr == "" {
		outcome.FailureReason = ErrConfiguration.Error()
		monitoring.TrackPurchaseFlow("configuration_error")
		return outcome, ErrConfiguration
	}

	for i := len(outcome.Results); i < req.Quantity; i++ {
		unit := i + 1

		active, ok := c.signer.ActiveAddress()
		if !ok || !strings.EqualFold(active, buyer) {
			log.Printf("Purchase %s: signer unavailable before ticket %d/%d", req.EventID, unit, req.Quantity)
			outcome.FailureReason = ErrSignerUnavailable.Error()
			monitoring.TrackPurchaseFlow("signer_unavailable")
			return outcome, ErrSignerUnavailable
		}

		started := time.Now()
		result, err := c.submitUnit(ctx, req, buyer, contractAddr, i)
		if err != nil {
			monitoring.TrackPurchaseUnit(req.EventID, "failed", time.Since(started))
			if isSignerUnavailable(err) {
				outcome.FailureReason = ErrSignerUnavailable.Error()
				monitoring.TrackPurchaseFlow("signer_unavailable")
				return outcome, ErrSignerUnavailable
			}
			unitErr := &UnitSubmissionError{Unit: unit, Cause: err}
			log.Printf("Error purchasing ticket %d/%d for event %s: %v", unit, req.Quantity, req.EventID, err)
			outcome.FailureReason = unitErr.Error()
			if len(outcome.Results) > 0 {
				monitoring.TrackPurchaseFlow("partial")
			} else {
				monitoring.TrackPurchaseFlow("failed")
			}
			return outcome, unitErr
		}
		monitoring.TrackPurchaseUnit(req.EventID, "success", time.Since(started))

		outcome.Results = append(outcome.Results, result)
		log.Printf("Ticket %d/%d purchased for event %s (tx: %s, asset: %d)", unit, req.Quantity, req.EventID, result.TransactionID, result.AssetID)
	}

	monitoring.TrackPurchaseFlow("success")
	return outcome, nil
}

// submitUnit は1枚分のグループを組み立てて送信する
func (c *Composer) submitUnit(ctx context.Context, req model.PurchaseRequest, buyer, contractAddr string, index int) (model.TicketPurchaseResult, error) {
	// 手数料や nonce が変わるため毎回取得する
	params, err := c.contract.SuggestedParams(ctx, buyer)
	if err != nil {
		return model.TicketPurchaseResult{}, err
	}

	call, err := c.contract.BuildPurchaseCall(ctx, model.PurchaseCallArgs{
		BuyerAddress: buyer,
		EventDate:    req.EventDate,
		TicketPrice:  req.UnitPrice,
	}, params)
	if err != nil {
		return model.TicketPurchaseResult{}, err
	}

	group := model.TransactionGroup{
		Params: params,
		Payment: model.PaymentTxn{
			From:   buyer,
			To:     contractAddr,
			Amount: req.UnitPrice,
		},
		Call: call,
	}

	res, err := c.signer.SignAndSubmit(ctx, group)
	if err != nil {
		return model.TicketPurchaseResult{}, err
	}
	if len(res.TransactionIDs) == 0 {
		return model.TicketPurchaseResult{}, errors.New("no transaction id returned")
	}

	txID := res.TransactionIDs[0]
	asset, err := c.resolveAsset(ctx, txID, index)
	if err != nil {
		return model.TicketPurchaseResult{}, err
	}
	return model.TicketPurchaseResult{
		TransactionID: txID,
		AssetID:       asset.id,
		Placeholder:   asset.placeholder,
	}, nil
}

type assetAllocation struct {
	id          uint64
	placeholder bool
}

// resolveAsset はレシートから確定IDを取得し、取得できなければ仮IDを割り当てる。
// チェーン上で revert した場合はその枚数の失敗とする。
func (c *Composer) resolveAsset(ctx context.Context, txID string, index int) (assetAllocation, error) {
	if c.assets != nil {
		id, err := c.assets.ResolveAssetID(ctx, txID)
		if err == nil {
			return assetAllocation{id: id}, nil
		}
		if errors.Is(err, model.ErrTransactionReverted) {
			return assetAllocation{}, err
		}
		log.Printf("WARNING: could not resolve asset id for tx %s: %v (allocating placeholder)", txID, err)
	}
	return assetAllocation{
		id:          uint64(c.now().UnixMilli()) + uint64(index),
		placeholder: true,
	}, nil
}

func isSignerUnavailable(err error) bool {
	return errors.Is(err, ErrSignerUnavailable)
}
