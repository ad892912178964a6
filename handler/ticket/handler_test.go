package ticket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"nft-ticket-onchain/model"
	ticketUsecase "nft-ticket-onchain/usecase/ticket"
)

const testOwner = "0x00000000000000000000000000000000000000B1"

type mockTicketUsecase struct {
	mock.Mock
}

func (m *mockTicketUsecase) List(owner string, filter model.TicketFilter) ([]model.Ticket, error) {
	args := m.Called(owner, filter)
	tickets, _ := args.Get(0).([]model.Ticket)
	return tickets, args.Error(1)
}

func (m *mockTicketUsecase) Transfer(ctx context.Context, assetID uint64, in ticketUsecase.TransferInput) (string, error) {
	args := m.Called(ctx, assetID, in)
	return args.String(0), args.Error(1)
}

func (m *mockTicketUsecase) Refund(ctx context.Context, assetID uint64, reason string) (string, error) {
	args := m.Called(ctx, assetID, reason)
	return args.String(0), args.Error(1)
}

func newRouter(uc ticketUsecase.TicketUsecase) *mux.Router {
	h := NewTicketHandler(uc)
	router := mux.NewRouter()
	router.HandleFunc("/tickets", h.HandleListTickets).Methods("GET")
	router.HandleFunc("/tickets/{assetId}/transfer", h.HandleTransfer).Methods("POST")
	router.HandleFunc("/tickets/{assetId}/refund", h.HandleRefund).Methods("POST")
	return router
}

func serve(router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHandleListTickets(t *testing.T) {
	uc := &mockTicketUsecase{}
	uc.On("List", testOwner, model.TicketsUpcoming).Return([]model.Ticket{{AssetID: 7, EventID: "1"}}, nil)
	uc.On("List", "bogus", model.TicketFilter("")).Return(nil, model.ErrInvalidInput)
	router := newRouter(uc)

	rec := serve(router, http.MethodGet, "/tickets?owner="+testOwner+"&filter=upcoming", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"asset_id":7`)

	rec = serve(router, http.MethodGet, "/tickets?owner=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTransfer(t *testing.T) {
	uc := &mockTicketUsecase{}
	uc.On("Transfer", mock.Anything, uint64(7), ticketUsecase.TransferInput{To: "0xB2", Fee: "0.001"}).Return("0xtx", nil)
	uc.On("Transfer", mock.Anything, uint64(8), mock.Anything).Return("", ticketUsecase.ErrTicketFrozen)
	router := newRouter(uc)

	rec := serve(router, http.MethodPost, "/tickets/7/transfer", `{"to":"0xB2","fee":"0.001"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"asset_id":7,"tx_hash":"0xtx"}`, rec.Body.String())

	rec = serve(router, http.MethodPost, "/tickets/8/transfer", `{"to":"0xB2"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(router, http.MethodPost, "/tickets/abc/transfer", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRefund(t *testing.T) {
	uc := &mockTicketUsecase{}
	uc.On("Refund", mock.Anything, uint64(7), "").Return("0xrefund", nil)
	uc.On("Refund", mock.Anything, uint64(9), "sick").Return("", ticketUsecase.ErrNotOwner)
	router := newRouter(uc)

	rec := serve(router, http.MethodPost, "/tickets/7/refund", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "0xrefund")

	rec = serve(router, http.MethodPost, "/tickets/9/refund", `{"reason":"sick"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
