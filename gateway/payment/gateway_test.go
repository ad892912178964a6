package payment

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-ticket-onchain/model"
)

const custody = "0x00000000000000000000000000000000000000C1"

var txHash = common.HexToHash("0xabc")

type fakeReader struct {
	tx      *types.Transaction
	pending bool
	status  uint64
	txErr   error
}

func (f *fakeReader) TransactionByHash(context.Context, common.Hash) (*types.Transaction, bool, error) {
	return f.tx, f.pending, f.txErr
}

func (f *fakeReader) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return &types.Receipt{Status: f.status}, nil
}

func newTx(to string, value int64) *types.Transaction {
	addr := common.HexToAddress(to)
	return types.NewTx(&types.LegacyTx{To: &addr, Value: big.NewInt(value), Gas: 21000, GasPrice: big.NewInt(1)})
}

func TestCheckPaymentStatus(t *testing.T) {
	tests := []struct {
		name    string
		reader  *fakeReader
		want    model.PaymentStatus
		wantErr bool
	}{
		{"paid", &fakeReader{tx: newTx(custody, 100), status: types.ReceiptStatusSuccessful}, model.PaymentPaid, false},
		{"overpaid", &fakeReader{tx: newTx(custody, 150), status: types.ReceiptStatusSuccessful}, model.PaymentPaid, false},
		{"pending", &fakeReader{tx: newTx(custody, 100), pending: true}, model.PaymentPending, false},
		{"insufficient", &fakeReader{tx: newTx(custody, 99), status: types.ReceiptStatusSuccessful}, model.PaymentError, true},
		{"wrong recipient", &fakeReader{tx: newTx("0x00000000000000000000000000000000000000FF", 100), status: types.ReceiptStatusSuccessful}, model.PaymentError, true},
		{"reverted", &fakeReader{tx: newTx(custody, 100), status: types.ReceiptStatusFailed}, model.PaymentError, true},
		{"not found", &fakeReader{txErr: errors.New("not found")}, model.PaymentError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewEthGateway(tt.reader, custody)
			status, _, err := g.CheckPaymentStatus(context.Background(), txHash.Hex(), g.GetPaymentAddress(), big.NewInt(100))
			assert.Equal(t, tt.want, status)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckPaymentStatus_InvalidHash(t *testing.T) {
	g := NewEthGateway(&fakeReader{}, custody)
	status, _, err := g.CheckPaymentStatus(context.Background(), "0x0", custody, big.NewInt(1))
	require.Error(t, err)
	assert.Equal(t, model.PaymentError, status)
}
