package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nft-ticket-onchain/model"
)

// 主催者・管理者向けのメソッド呼び出し。送信は署名者が行う。

// BuildCreateEvent は createTicketEvent 呼び出しを組み立てる
func (g *NftTicketGateway) BuildCreateEvent(ctx context.Context, from, eventName string, eventDate int64, price *big.Int, releaseDays, royalty uint64) (model.ContractCall, error) {
	return g.BuildCall(ctx, from, nil, "createTicketEvent",
		eventName,
		big.NewInt(eventDate),
		price,
		new(big.Int).SetUint64(releaseDays),
		new(big.Int).SetUint64(royalty),
	)
}

// BuildTransfer は transferTicket 呼び出しを組み立てる。fee は value として送る。
func (g *NftTicketGateway) BuildTransfer(ctx context.Context, from string, assetID uint64, newOwner string, fee *big.Int) (model.ContractCall, error) {
	if !common.IsHexAddress(newOwner) {
		return model.ContractCall{}, fmt.Errorf("invalid recipient address: %s", newOwner)
	}
	if fee == nil {
		fee = new(big.Int)
	}
	return g.BuildCall(ctx, from, fee, "transferTicket",
		new(big.Int).SetUint64(assetID),
		common.HexToAddress(newOwner),
		fee,
	)
}

// BuildRefund は refundTicket 呼び出しを組み立てる
func (g *NftTicketGateway) BuildRefund(ctx context.Context, from string, assetID uint64, buyer string, amount *big.Int, eventDate int64, deadlineDays uint64) (model.ContractCall, error) {
	if !common.IsHexAddress(buyer) {
		return model.ContractCall{}, fmt.Errorf("invalid buyer address: %s", buyer)
	}
	return g.BuildCall(ctx, from, nil, "refundTicket",
		new(big.Int).SetUint64(assetID),
		common.HexToAddress(buyer),
		amount,
		big.NewInt(eventDate),
		new(big.Int).SetUint64(deadlineDays),
	)
}

// BuildEmergencyRefund はイベント中止時の cancelEventRefund 呼び出しを組み立てる
func (g *NftTicketGateway) BuildEmergencyRefund(ctx context.Context, from string, assetID uint64, buyer string, amount *big.Int, eventDate int64) (model.ContractCall, error) {
	if !common.IsHexAddress(buyer) {
		return model.ContractCall{}, fmt.Errorf("invalid buyer address: %s", buyer)
	}
	return g.BuildCall(ctx, from, nil, "cancelEventRefund",
		new(big.Int).SetUint64(assetID),
		common.HexToAddress(buyer),
		amount,
		big.NewInt(eventDate),
	)
}

// BuildEmergencyFreeze は emergencyFreeze 呼び出しを組み立てる
func (g *NftTicketGateway) BuildEmergencyFreeze(ctx context.Context, from string) (model.ContractCall, error) {
	return g.BuildCall(ctx, from, nil, "emergencyFreeze")
}

// BuildReleaseFreeze は releaseFreeze 呼び出しを組み立てる
func (g *NftTicketGateway) BuildReleaseFreeze(ctx context.Context, from string, eventDate int64, releaseDays uint64) (model.ContractCall, error) {
	return g.BuildCall(ctx, from, nil, "releaseFreeze",
		big.NewInt(eventDate),
		new(big.Int).SetUint64(releaseDays),
	)
}
