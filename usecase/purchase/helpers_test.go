package purchase

import (
	"context"
	"math/big"
	"sync"

	"github.com/stretchr/testify/mock"

	"nft-ticket-onchain/model"
)

const (
	testBuyer    = "0x00000000000000000000000000000000000000B1"
	testContract = "0x00000000000000000000000000000000000000C0"
)

type mockSigner struct {
	mock.Mock
}

func (m *mockSigner) ActiveAddress() (string, bool) {
	args := m.Called()
	return args.String(0), args.Bool(1)
}

func (m *mockSigner) SignAndSubmit(ctx context.Context, group model.TransactionGroup) (model.SubmitResult, error) {
	args := m.Called(ctx, group)
	return args.Get(0).(model.SubmitResult), args.Error(1)
}

type mockContract struct {
	mock.Mock
}

func (m *mockContract) ContractAddress() string {
	return m.Called().String(0)
}

func (m *mockContract) SuggestedParams(ctx context.Context, sender string) (model.SuggestedParams, error) {
	args := m.Called(ctx, sender)
	return args.Get(0).(model.SuggestedParams), args.Error(1)
}

func (m *mockContract) BuildPurchaseCall(ctx context.Context, a model.PurchaseCallArgs, p model.SuggestedParams) (model.ContractCall, error) {
	args := m.Called(ctx, a, p)
	return args.Get(0).(model.ContractCall), args.Error(1)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) ResolveAssetID(ctx context.Context, txID string) (uint64, error) {
	args := m.Called(ctx, txID)
	return args.Get(0).(uint64), args.Error(1)
}

// fakeSigner は接続状態を切り替えられる署名者。送信結果を順に返す。
type fakeSigner struct {
	mu        sync.Mutex
	address   string
	connected bool
	failAt    int // 1始まり。0 なら失敗しない
	calls     int
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{address: testBuyer, connected: true}
}

func (f *fakeSigner) ActiveAddress() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return "", false
	}
	return f.address, true
}

func (f *fakeSigner) SignAndSubmit(_ context.Context, _ model.TransactionGroup) (model.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAt == f.calls {
		return model.SubmitResult{}, errRejected
	}
	return model.SubmitResult{TransactionIDs: []string{txID(f.calls)}}, nil
}

func (f *fakeSigner) setConnected(v bool) {
	f.mu.Lock()
	f.connected = v
	f.mu.Unlock()
}

func (f *fakeSigner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeContract は常に成功するコントラクトクライアント
type fakeContract struct {
	address string
}

func (f fakeContract) ContractAddress() string { return f.address }

func (f fakeContract) SuggestedParams(context.Context, string) (model.SuggestedParams, error) {
	return model.SuggestedParams{GasPrice: big.NewInt(1), ChainID: big.NewInt(11155111)}, nil
}

func (f fakeContract) BuildPurchaseCall(_ context.Context, a model.PurchaseCallArgs, _ model.SuggestedParams) (model.ContractCall, error) {
	return model.ContractCall{From: a.BuyerAddress, To: f.address, Method: "purchaseTicket", Gas: 100000}, nil
}

func txID(n int) string {
	return "0xtx" + string(rune('0'+n))
}

func testRequest(quantity int) model.PurchaseRequest {
	return model.PurchaseRequest{
		EventID:   "1",
		EventName: "Summer Music Festival",
		EventDate: 1_800_000_000,
		UnitPrice: big.NewInt(10_000_000),
		Quantity:  quantity,
	}
}
