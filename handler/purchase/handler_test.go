package purchase

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-ticket-onchain/gateway/catalog"
	"nft-ticket-onchain/gateway/explorer"
	"nft-ticket-onchain/model"
	purchaseUsecase "nft-ticket-onchain/usecase/purchase"
)

const (
	testBuyer    = "0x00000000000000000000000000000000000000B1"
	testContract = "0x00000000000000000000000000000000000000C1"
)

// fakeWallet は Wallet と purchase.Signer を兼ねる
type fakeWallet struct {
	mu        sync.Mutex
	connected bool
	sent      int
}

func (f *fakeWallet) Connect() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return testBuyer, nil
}

func (f *fakeWallet) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
}

func (f *fakeWallet) ActiveAddress() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return "", false
	}
	return testBuyer, true
}

func (f *fakeWallet) SignAndSubmit(context.Context, model.TransactionGroup) (model.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent++
	return model.SubmitResult{TransactionIDs: []string{fmt.Sprintf("0xtx%d", f.sent)}}, nil
}

type fakeContract struct{}

func (fakeContract) ContractAddress() string { return testContract }

func (fakeContract) SuggestedParams(context.Context, string) (model.SuggestedParams, error) {
	return model.SuggestedParams{GasPrice: big.NewInt(1), ChainID: big.NewInt(11155111)}, nil
}

func (fakeContract) BuildPurchaseCall(_ context.Context, a model.PurchaseCallArgs, _ model.SuggestedParams) (model.ContractCall, error) {
	return model.ContractCall{From: a.BuyerAddress, To: testContract, Method: "purchaseTicket"}, nil
}

type assetCounter struct {
	mu   sync.Mutex
	next uint64
}

func (a *assetCounter) ResolveAssetID(context.Context, string) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.next++
	return 1000 + a.next, nil
}

func setup(t *testing.T) (*mux.Router, *fakeWallet, *catalog.Store) {
	t.Helper()
	store := catalog.NewStore()
	store.SeedDemoEvents()
	wallet := &fakeWallet{}
	composer := purchaseUsecase.NewComposer(fakeContract{}, wallet, &assetCounter{})
	manager := purchaseUsecase.NewManager(composer, wallet, purchaseUsecase.NopGuard{}, purchaseUsecase.Hooks{
		Purchased: purchaseUsecase.RecordPurchase(store),
	})
	h := NewPurchaseHandler(manager, wallet, store, explorer.New("sepolia", testContract), "sepolia")

	router := mux.NewRouter()
	router.HandleFunc("/purchase", h.HandleOpen).Methods("POST")
	router.HandleFunc("/purchase/{id}", h.HandleGet).Methods("GET")
	router.HandleFunc("/purchase/{id}/receipt", h.HandleReceipt).Methods("GET")
	router.HandleFunc("/purchase/{id}/{action}", h.HandleAction).Methods("POST")
	router.HandleFunc("/wallet", h.HandleWallet).Methods("GET")
	router.HandleFunc("/wallet/connect", h.HandleConnect).Methods("POST")
	router.HandleFunc("/wallet/disconnect", h.HandleDisconnect).Methods("POST")
	return router, wallet, store
}

func do(t *testing.T, router *mux.Router, method, path, body string) (*httptest.ResponseRecorder, SessionView) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))

	var view SessionView
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &view)
	}
	return rec, view
}

func TestPurchaseFlow(t *testing.T) {
	router, _, store := setup(t)

	rec, _ := do(t, router, http.MethodPost, "/wallet/connect", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, view := do(t, router, http.MethodPost, "/purchase", `{"event_id":"1","default_quantity":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, view.ID)
	assert.Equal(t, model.StepQuantity, view.State.Step)
	assert.True(t, view.Wallet.Connected)
	base := "/purchase/" + view.ID

	_, view = do(t, router, http.MethodPost, base+"/increment", "")
	assert.Equal(t, 2, view.State.Request.Quantity)

	_, view = do(t, router, http.MethodPost, base+"/next", "")
	assert.Equal(t, model.StepWallet, view.State.Step)
	assert.Equal(t, "0.0101 ETH", view.Wallet.RequiredBalance)

	rec, view = do(t, router, http.MethodPost, base+"/proceed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StepSuccess, view.State.Step)
	require.NotNil(t, view.Report)
	assert.Len(t, view.Report.Transactions, 2)
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xtx1", view.Report.Transactions[0].URL)

	// 購入したチケットが台帳に記録される
	assert.Len(t, store.TicketsByOwner(testBuyer, model.TicketsAll), 2)

	rec, _ = do(t, router, http.MethodGet, base+"/receipt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	rec, view = do(t, router, http.MethodPost, base+"/close", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, view.State.Open)

	rec, _ = do(t, router, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPurchase_ValidationIs422(t *testing.T) {
	router, _, _ := setup(t)

	_, view := do(t, router, http.MethodPost, "/purchase", `{"event_id":"2"}`)
	rec, view := do(t, router, http.MethodPost, "/purchase/"+view.ID+"/next", "")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, model.StepQuantity, view.State.Step)
	assert.NotEmpty(t, view.State.Validation)
}

func TestPurchase_Errors(t *testing.T) {
	router, _, _ := setup(t)

	rec, _ := do(t, router, http.MethodPost, "/purchase", `{"event_id":"missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, router, http.MethodPost, "/purchase", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, view := do(t, router, http.MethodPost, "/purchase", `{"event_id":"1"}`)
	rec, _ = do(t, router, http.MethodPost, "/purchase/"+view.ID+"/dance", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, router, http.MethodGet, "/purchase/"+view.ID+"/receipt", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWallet(t *testing.T) {
	router, wallet, _ := setup(t)

	rec, _ := do(t, router, http.MethodGet, "/wallet", "")
	assert.JSONEq(t, `{"connected":false}`, rec.Body.String())

	do(t, router, http.MethodPost, "/wallet/connect", "")
	rec, _ = do(t, router, http.MethodGet, "/wallet", "")
	assert.JSONEq(t, `{"address":"`+testBuyer+`","connected":true}`, rec.Body.String())

	do(t, router, http.MethodPost, "/wallet/disconnect", "")
	_, ok := wallet.ActiveAddress()
	assert.False(t, ok)
}
