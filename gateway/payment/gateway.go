package payment

import (
	"context"
	"errors"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"nft-ticket-onchain/model"
)

// TxReader はトランザクションとレシートの取得 (*ethclient.Client が満たす)
type TxReader interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// BlockchainGateway はチケット代金の支払い検証
type BlockchainGateway interface {
	// GetPaymentAddress は代金の受取アドレス (チケットコントラクト) を返す
	GetPaymentAddress() string

	// CheckPaymentStatus は txHash が expectedAddr に expectedWei 以上を送金したかを検証する
	CheckPaymentStatus(ctx context.Context, txHash string, expectedAddr string, expectedWei *big.Int) (model.PaymentStatus, *big.Int, error)
}

// EthGateway は購入トランザクションの送金を検証する
type EthGateway struct {
	client  TxReader
	custody common.Address
}

func NewEthGateway(client TxReader, custodyAddr string) *EthGateway {
	return &EthGateway{
		client:  client,
		custody: common.HexToAddress(custodyAddr),
	}
}

func (g *EthGateway) GetPaymentAddress() string {
	return g.custody.Hex()
}

// CheckPaymentStatus はETH送金トランザクションを検証し、送金額を返す
func (g *EthGateway) CheckPaymentStatus(ctx context.Context, txHash string, expectedAddr string, expectedWei *big.Int) (model.PaymentStatus, *big.Int, error) {
	txHashObj := common.HexToHash(txHash)
	if txHashObj == (common.Hash{}) {
		return model.PaymentError, nil, errors.New("invalid transaction hash format")
	}

	// トランザクションが存在するか、Pendingでないかを確認
	tx, isPending, err := g.client.TransactionByHash(ctx, txHashObj)
	if err != nil {
		log.Printf("Error retrieving transaction %s: %v", txHash, err)
		return model.PaymentError, nil, errors.New("transaction not found or node error")
	}
	if isPending {
		return model.PaymentPending, tx.Value(), nil
	}

	receipt, err := g.client.TransactionReceipt(ctx, txHashObj)
	if err != nil {
		log.Printf("Error retrieving receipt for transaction %s: %v", txHash, err)
		return model.PaymentError, nil, errors.New("failed to get transaction receipt")
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return model.PaymentError, tx.Value(), model.ErrTransactionReverted
	}

	// 送金額は期待額以上であればOK
	if tx.Value().Cmp(expectedWei) < 0 {
		log.Printf("Insufficient payment: got %s, expected %s", tx.Value().String(), expectedWei.String())
		return model.PaymentError, tx.Value(), errors.New("insufficient payment amount")
	}

	if tx.To() == nil {
		return model.PaymentError, tx.Value(), errors.New("transaction is not a transfer to a valid address")
	}
	if *tx.To() != common.HexToAddress(expectedAddr) {
		return model.PaymentError, tx.Value(), errors.New("transaction sent to wrong recipient address")
	}

	log.Printf("Payment verified: %s Wei to %s", tx.Value().String(), expectedAddr)
	return model.PaymentPaid, tx.Value(), nil
}
