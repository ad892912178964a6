package contract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"nft-ticket-onchain/model"
	"nft-ticket-onchain/monitoring"
)

// Backend はゲートウェイが使う RPC メソッド (*ethclient.Client が満たす)
type Backend interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// ContractGateway はスマートコントラクトとの連携を担当
type ContractGateway interface {
	// ContractAddress はコントラクト(カストディ)アドレス。未設定なら ""
	ContractAddress() string

	// SuggestedParams は sender の nonce とガス価格、チェーンIDを取得する
	SuggestedParams(ctx context.Context, sender string) (model.SuggestedParams, error)

	// BuildPurchaseCall は purchaseTicket 呼び出しを組み立てる
	BuildPurchaseCall(ctx context.Context, args model.PurchaseCallArgs, params model.SuggestedParams) (model.ContractCall, error)

	// BuildCall は任意のメソッド呼び出しを組み立てる
	BuildCall(ctx context.Context, from string, value *big.Int, method string, args ...interface{}) (model.ContractCall, error)

	BuildCreateEvent(ctx context.Context, from, eventName string, eventDate int64, price *big.Int, releaseDays, royalty uint64) (model.ContractCall, error)
	BuildTransfer(ctx context.Context, from string, assetID uint64, newOwner string, fee *big.Int) (model.ContractCall, error)
	BuildRefund(ctx context.Context, from string, assetID uint64, buyer string, amount *big.Int, eventDate int64, deadlineDays uint64) (model.ContractCall, error)
	BuildEmergencyRefund(ctx context.Context, from string, assetID uint64, buyer string, amount *big.Int, eventDate int64) (model.ContractCall, error)
	BuildEmergencyFreeze(ctx context.Context, from string) (model.ContractCall, error)
	BuildReleaseFreeze(ctx context.Context, from string, eventDate int64, releaseDays uint64) (model.ContractCall, error)

	// ResolveAssetID はレシートの TicketPurchased からチケットIDを取得する
	ResolveAssetID(ctx context.Context, txID string) (uint64, error)

	// CheckFreezeStatus は転売凍結中かどうかを取得する
	CheckFreezeStatus(ctx context.Context, eventDate int64, releaseDays uint64) (bool, error)

	// SubscribeEvents はコントラクトイベントを購読
	SubscribeEvents(ctx context.Context) (<-chan *model.ContractEvent, error)

	// ScanPastEvents は過去のブロックからイベントをスキャン
	ScanPastEvents(ctx context.Context, fromBlock uint64, toBlock *uint64) (<-chan *model.ContractEvent, error)

	// VerifyTransaction はトランザクションを検証
	VerifyTransaction(ctx context.Context, txHash string) (*model.TxVerification, error)
}

const (
	defaultReceiptTimeout = 60 * time.Second
	receiptPollInterval   = 2 * time.Second
	// fromBlock 未指定時にさかのぼるブロック数
	defaultScanRange = 1000
)

// NftTicketGateway は NftTicket コントラクトとの連携実装
type NftTicketGateway struct {
	client          Backend
	contractAddress common.Address
	contractABI     abi.ABI

	receiptTimeout time.Duration
	pollInterval   time.Duration
}

// NewNftTicketGateway は新しいコントラクトゲートウェイを作成
func NewNftTicketGateway(client Backend, contractAddr string, receiptTimeout time.Duration) (*NftTicketGateway, error) {
	parsedABI, err := abi.JSON(strings.NewReader(NftTicketABI))
	if err != nil {
		log.Printf("Failed to parse ABI: %v", err)
		return nil, err
	}
	if receiptTimeout <= 0 {
		receiptTimeout = defaultReceiptTimeout
	}

	var addr common.Address
	if contractAddr != "" {
		if !common.IsHexAddress(contractAddr) {
			return nil, fmt.Errorf("invalid contract address: %s", contractAddr)
		}
		addr = common.HexToAddress(contractAddr)
	}
	if addr == (common.Address{}) {
		log.Printf("WARNING: ticket contract address is not configured. Purchases will fail with a configuration error.")
	} else {
		log.Printf("Ticket Contract: %s", addr.Hex())
	}

	return &NftTicketGateway{
		client:          client,
		contractAddress: addr,
		contractABI:     parsedABI,
		receiptTimeout:  receiptTimeout,
		pollInterval:    receiptPollInterval,
	}, nil
}

func (g *NftTicketGateway) ContractAddress() string {
	if g.contractAddress == (common.Address{}) {
		return ""
	}
	return g.contractAddress.Hex()
}

// SuggestedParams は毎回ノードから最新の値を取得する
func (g *NftTicketGateway) SuggestedParams(ctx context.Context, sender string) (model.SuggestedParams, error) {
	if !common.IsHexAddress(sender) {
		return model.SuggestedParams{}, fmt.Errorf("invalid sender address: %s", sender)
	}
	nonce, err := g.client.PendingNonceAt(ctx, common.HexToAddress(sender))
	if err != nil {
		return model.SuggestedParams{}, fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return model.SuggestedParams{}, fmt.Errorf("failed to get gas price: %w", err)
	}
	chainID, err := g.client.ChainID(ctx)
	if err != nil {
		return model.SuggestedParams{}, fmt.Errorf("failed to get chain id: %w", err)
	}
	return model.SuggestedParams{Nonce: nonce, GasPrice: gasPrice, ChainID: chainID}, nil
}

// BuildPurchaseCall は代金と同額を value に載せた purchaseTicket 呼び出しを組み立てる
func (g *NftTicketGateway) BuildPurchaseCall(ctx context.Context, args model.PurchaseCallArgs, _ model.SuggestedParams) (model.ContractCall, error) {
	if !common.IsHexAddress(args.BuyerAddress) {
		return model.ContractCall{}, fmt.Errorf("invalid buyer address: %s", args.BuyerAddress)
	}
	if args.TicketPrice == nil || args.TicketPrice.Sign() <= 0 {
		return model.ContractCall{}, errors.New("ticket price must be positive")
	}
	return g.BuildCall(ctx, args.BuyerAddress, args.TicketPrice, "purchaseTicket",
		common.HexToAddress(args.BuyerAddress),
		big.NewInt(args.EventDate),
		args.TicketPrice,
	)
}

// BuildCall は calldata を Pack し、ガス量を見積もる
func (g *NftTicketGateway) BuildCall(ctx context.Context, from string, value *big.Int, method string, args ...interface{}) (model.ContractCall, error) {
	if g.ContractAddress() == "" {
		return model.ContractCall{}, errors.New("contract address is not configured")
	}
	data, err := g.contractABI.Pack(method, args...)
	if err != nil {
		return model.ContractCall{}, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{
		From:  common.HexToAddress(from),
		To:    &g.contractAddress,
		Value: value,
		Data:  data,
	}
	gas, err := g.client.EstimateGas(ctx, msg)
	monitoring.TrackContractCall(method, err)
	if err != nil {
		return model.ContractCall{}, fmt.Errorf("failed to estimate gas for %s: %w", method, err)
	}

	return model.ContractCall{
		From:   common.HexToAddress(from).Hex(),
		To:     g.contractAddress.Hex(),
		Method: method,
		Data:   data,
		Gas:    gas,
	}, nil
}

// ResolveAssetID はレシートが取れるまで待ち、TicketPurchased の assetId を返す
func (g *NftTicketGateway) ResolveAssetID(ctx context.Context, txID string) (uint64, error) {
	receipt, err := g.waitReceipt(ctx, common.HexToHash(txID))
	if err != nil {
		return 0, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return 0, model.ErrTransactionReverted
	}

	purchasedSig := g.contractABI.Events["TicketPurchased"].ID
	for _, vLog := range receipt.Logs {
		if vLog == nil || vLog.Address != g.contractAddress {
			continue
		}
		if len(vLog.Topics) >= 2 && vLog.Topics[0] == purchasedSig {
			return new(big.Int).SetBytes(vLog.Topics[1].Bytes()).Uint64(), nil
		}
	}
	return 0, fmt.Errorf("TicketPurchased log not found in receipt of %s", txID)
}

func (g *NftTicketGateway) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, g.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := g.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to get transaction receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("receipt for %s not available: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// CheckFreezeStatus は checkFreezeStatus を eth_call で呼ぶ
func (g *NftTicketGateway) CheckFreezeStatus(ctx context.Context, eventDate int64, releaseDays uint64) (bool, error) {
	data, err := g.contractABI.Pack("checkFreezeStatus", big.NewInt(eventDate), new(big.Int).SetUint64(releaseDays))
	if err != nil {
		return false, err
	}

	result, err := g.client.CallContract(ctx, ethereum.CallMsg{To: &g.contractAddress, Data: data}, nil)
	monitoring.TrackContractCall("checkFreezeStatus", err)
	if err != nil {
		return false, err
	}

	out, err := g.contractABI.Unpack("checkFreezeStatus", result)
	if err != nil {
		return false, err
	}
	if len(out) == 0 {
		return false, errors.New("empty checkFreezeStatus result")
	}
	frozen, ok := out[0].(bool)
	if !ok {
		return false, errors.New("unexpected checkFreezeStatus result type")
	}
	return frozen, nil
}

// SubscribeEvents はコントラクトイベントをWebSocket経由で購読
func (g *NftTicketGateway) SubscribeEvents(ctx context.Context) (<-chan *model.ContractEvent, error) {
	// 接続テスト
	header, err := g.client.HeaderByNumber(ctx, nil)
	if err != nil {
		log.Printf("ERROR: Failed to get latest block header (connection test failed): %v", err)
		return nil, fmt.Errorf("connection test failed: %w", err)
	}
	log.Printf("Subscribing to ticket contract events from block %d", header.Number.Uint64())

	logs := make(chan types.Log)
	sub, err := g.client.SubscribeFilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{g.contractAddress},
	}, logs)
	if err != nil {
		log.Printf("ERROR: Failed to subscribe to events (WebSocket endpoint required): %v", err)
		return nil, err
	}

	eventChan := make(chan *model.ContractEvent, 100)
	go func() {
		defer close(eventChan)
		defer sub.Unsubscribe()

		for {
			select {
			case <-ctx.Done():
				log.Printf("Context cancelled, stopping event subscription")
				return
			case err := <-sub.Err():
				log.Printf("ERROR: Event subscription error: %v", err)
				return
			case vLog := <-logs:
				if vLog.Address != g.contractAddress {
					continue
				}
				if event := g.parseLog(vLog); event != nil {
					eventChan <- event
				}
			}
		}
	}()

	return eventChan, nil
}

// ScanPastEvents は過去のブロックからイベントをスキャン
func (g *NftTicketGateway) ScanPastEvents(ctx context.Context, fromBlock uint64, toBlock *uint64) (<-chan *model.ContractEvent, error) {
	header, err := g.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest block: %w", err)
	}
	currentBlock := header.Number.Uint64()

	// fromBlock が 0 の場合は直近のブロックからスキャン
	actualFromBlock := fromBlock
	if fromBlock == 0 && currentBlock > defaultScanRange {
		actualFromBlock = currentBlock - defaultScanRange
	}
	actualToBlock := currentBlock
	if toBlock != nil {
		actualToBlock = *toBlock
	}

	logs, err := g.client.FilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{g.contractAddress},
		FromBlock: new(big.Int).SetUint64(actualFromBlock),
		ToBlock:   new(big.Int).SetUint64(actualToBlock),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan past events: %w", err)
	}
	log.Printf("Found %d log entries in block range %d-%d", len(logs), actualFromBlock, actualToBlock)

	eventChan := make(chan *model.ContractEvent, len(logs))
	for _, vLog := range logs {
		if vLog.Address != g.contractAddress {
			continue
		}
		if event := g.parseLog(vLog); event != nil {
			eventChan <- event
		}
	}
	close(eventChan)
	return eventChan, nil
}

// parseLog はログをContractEventに変換
func (g *NftTicketGateway) parseLog(vLog types.Log) *model.ContractEvent {
	if len(vLog.Topics) == 0 {
		return nil
	}

	var event *model.ContractEvent
	switch vLog.Topics[0] {
	case g.contractABI.Events["TicketEventCreated"].ID:
		event = g.parseTicketEventCreated(vLog)
	case g.contractABI.Events["TicketPurchased"].ID:
		event = g.parseTicketPurchased(vLog)
	case g.contractABI.Events["TicketTransferred"].ID:
		event = g.parseTicketTransferred(vLog)
	case g.contractABI.Events["TicketRefunded"].ID:
		event = g.parseTicketRefunded(vLog)
	case g.contractABI.Events["FreezeStatusChanged"].ID:
		event = g.parseFreezeStatusChanged(vLog)
	default:
		log.Printf("Unknown event signature: %s (tx: %s)", vLog.Topics[0].Hex(), vLog.TxHash.Hex())
		return nil
	}

	monitoring.TrackContractEvent(string(event.Type))
	return event
}

func newEvent(t model.EventType, vLog types.Log) *model.ContractEvent {
	return &model.ContractEvent{
		Type:    t,
		TxHash:  vLog.TxHash.Hex(),
		BlockNo: vLog.BlockNumber,
	}
}

func topicUint(vLog types.Log, i int) uint64 {
	return new(big.Int).SetBytes(vLog.Topics[i].Bytes()).Uint64()
}

func topicAddress(vLog types.Log, i int) string {
	return common.BytesToAddress(vLog.Topics[i].Bytes()).Hex()
}

// unpack は non-indexed データをデコードする
func (g *NftTicketGateway) unpack(name string, vLog types.Log) map[string]interface{} {
	data := make(map[string]interface{})
	if err := g.contractABI.UnpackIntoMap(data, name, vLog.Data); err != nil {
		log.Printf("Failed to unpack %s: %v", name, err)
	}
	return data
}

func (g *NftTicketGateway) parseTicketEventCreated(vLog types.Log) *model.ContractEvent {
	event := newEvent(model.EventTicketEventCreated, vLog)

	// indexed: eventId, organizer
	if len(vLog.Topics) >= 3 {
		event.EventID = topicUint(vLog, 1)
		event.Organizer = topicAddress(vLog, 2)
	}

	data := g.unpack("TicketEventCreated", vLog)
	if name, ok := data["eventName"].(string); ok {
		event.EventName = name
	}
	if d, ok := data["eventDate"].(*big.Int); ok {
		event.EventDate = d.Int64()
	}
	if price, ok := data["price"].(*big.Int); ok {
		event.Price = price
	}
	if days, ok := data["releaseDays"].(*big.Int); ok {
		event.ReleaseDays = days.Uint64()
	}
	if royalty, ok := data["royalty"].(*big.Int); ok {
		event.Royalty = royalty.Uint64()
	}
	return event
}

func (g *NftTicketGateway) parseTicketPurchased(vLog types.Log) *model.ContractEvent {
	event := newEvent(model.EventTicketPurchased, vLog)

	// indexed: assetId, buyer
	if len(vLog.Topics) >= 3 {
		event.AssetID = topicUint(vLog, 1)
		event.Buyer = topicAddress(vLog, 2)
	}

	data := g.unpack("TicketPurchased", vLog)
	if d, ok := data["eventDate"].(*big.Int); ok {
		event.EventDate = d.Int64()
	}
	if price, ok := data["price"].(*big.Int); ok {
		event.Price = price
	}
	return event
}

func (g *NftTicketGateway) parseTicketTransferred(vLog types.Log) *model.ContractEvent {
	event := newEvent(model.EventTicketTransferred, vLog)

	// indexed: assetId, from, to
	if len(vLog.Topics) >= 4 {
		event.AssetID = topicUint(vLog, 1)
		event.From = topicAddress(vLog, 2)
		event.To = topicAddress(vLog, 3)
	}

	data := g.unpack("TicketTransferred", vLog)
	if royalty, ok := data["royaltyPaid"].(*big.Int); ok {
		event.Amount = royalty
	}
	return event
}

func (g *NftTicketGateway) parseTicketRefunded(vLog types.Log) *model.ContractEvent {
	event := newEvent(model.EventTicketRefunded, vLog)

	// indexed: assetId, buyer
	if len(vLog.Topics) >= 3 {
		event.AssetID = topicUint(vLog, 1)
		event.Buyer = topicAddress(vLog, 2)
	}

	data := g.unpack("TicketRefunded", vLog)
	if amount, ok := data["amount"].(*big.Int); ok {
		event.Amount = amount
	}
	return event
}

func (g *NftTicketGateway) parseFreezeStatusChanged(vLog types.Log) *model.ContractEvent {
	event := newEvent(model.EventFreezeStatusChanged, vLog)

	data := g.unpack("FreezeStatusChanged", vLog)
	if d, ok := data["eventDate"].(*big.Int); ok {
		event.EventDate = d.Int64()
	}
	if frozen, ok := data["frozen"].(bool); ok {
		event.Frozen = frozen
	}
	return event
}

// VerifyTransaction はトランザクションを検証
func (g *NftTicketGateway) VerifyTransaction(ctx context.Context, txHash string) (*model.TxVerification, error) {
	txHashObj := common.HexToHash(txHash)
	if txHashObj == (common.Hash{}) {
		return nil, errors.New("invalid transaction hash format")
	}

	tx, isPending, err := g.client.TransactionByHash(ctx, txHashObj)
	if err != nil {
		return nil, errors.New("transaction not found")
	}

	if isPending {
		return &model.TxVerification{
			TxHash:  txHash,
			Status:  "pending",
			Success: false,
		}, nil
	}

	receipt, err := g.client.TransactionReceipt(ctx, txHashObj)
	if err != nil {
		return nil, errors.New("failed to get transaction receipt")
	}

	verification := &model.TxVerification{
		TxHash:      txHash,
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
		Success:     receipt.Status == types.ReceiptStatusSuccessful,
	}
	if verification.Success {
		verification.Status = "success"
	} else {
		verification.Status = "failed"
	}

	// コントラクト呼び出しかどうかを確認
	if tx.To() != nil && *tx.To() == g.contractAddress {
		verification.IsContractCall = true
	}

	return verification, nil
}
