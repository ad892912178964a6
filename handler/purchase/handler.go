package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"nft-ticket-onchain/gateway/receipt"
	"nft-ticket-onchain/handler/response"
	"nft-ticket-onchain/model"
	purchaseUsecase "nft-ticket-onchain/usecase/purchase"
)

// Wallet はウォレットの接続操作
type Wallet interface {
	Connect() (string, error)
	Disconnect()
	ActiveAddress() (string, bool)
}

// EventReader はモーダルを開くイベントの参照先
type EventReader interface {
	GetEvent(id string) (model.Event, error)
}

type PurchaseHandler struct {
	manager *purchaseUsecase.Manager
	wallet  Wallet
	events  EventReader
	links   purchaseUsecase.LinkBuilder
	network string
}

func NewPurchaseHandler(manager *purchaseUsecase.Manager, wallet Wallet, events EventReader, links purchaseUsecase.LinkBuilder, network string) *PurchaseHandler {
	return &PurchaseHandler{
		manager: manager,
		wallet:  wallet,
		events:  events,
		links:   links,
		network: network,
	}
}

// OpenRequest はモーダルを開くリクエスト
type OpenRequest struct {
	EventID         string `json:"event_id"`
	DefaultQuantity int    `json:"default_quantity"`
}

// SessionView は購入セッションのレスポンス
type SessionView struct {
	ID     string                        `json:"id"`
	State  purchaseUsecase.State         `json:"state"`
	Wallet purchaseUsecase.WalletSummary `json:"wallet"`
	Report *purchaseUsecase.Report       `json:"report,omitempty"`
}

func (h *PurchaseHandler) view(sess *purchaseUsecase.Session, st purchaseUsecase.State) SessionView {
	v := SessionView{
		ID:     sess.ID,
		State:  st,
		Wallet: purchaseUsecase.SummarizeWallet(st.Request, h.manager.Signer()),
	}
	if st.Step == model.StepSuccess {
		report := purchaseUsecase.BuildReport(st.Request, st.Outcome, h.links)
		v.Report = &report
	}
	return v
}

// HandleOpen はイベントの購入モーダルを開く
func (h *PurchaseHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	event, err := h.events.GetEvent(req.EventID)
	if err != nil {
		response.Error(w, err)
		return
	}
	if req.DefaultQuantity == 0 {
		req.DefaultQuantity = 1
	}

	sess := h.manager.Open(model.PurchaseRequest{
		EventID:   event.ID,
		EventName: event.EventName,
		EventDate: event.EventDate,
		UnitPrice: event.Price,
	}, req.DefaultQuantity)
	log.Printf("Purchase session %s opened for event %s", sess.ID, event.ID)

	response.JSON(w, http.StatusCreated, h.view(sess, sess.State()))
}

// HandleGet はセッションの現在の状態を返す
func (h *PurchaseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, h.view(sess, sess.State()))
}

// QuantityRequest は枚数の直接入力
type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

// HandleAction はモーダル上の操作を適用する。
// 入力エラーは状態に含めて 422 で返す。
func (h *PurchaseHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var (
		st  purchaseUsecase.State
		err error
	)
	switch mux.Vars(r)["action"] {
	case "increment":
		st = sess.Increment()
	case "decrement":
		st = sess.Decrement()
	case "quantity":
		var req QuantityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		st = sess.SetQuantity(req.Quantity)
	case "next":
		st, err = sess.ConfirmQuantity()
	case "back":
		st, err = sess.Back()
	case "proceed":
		// 送信ループはクライアントの切断で中断しない
		st, err = sess.Proceed(context.WithoutCancel(r.Context()))
	case "retreat":
		st = sess.Retreat()
	case "close":
		st = sess.Close()
	default:
		http.Error(w, "Unknown action", http.StatusNotFound)
		return
	}

	var validation *purchaseUsecase.ValidationError
	if errors.As(err, &validation) {
		response.JSON(w, http.StatusUnprocessableEntity, h.view(sess, st))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, h.view(sess, st))
}

// HandleReceipt は購入領収書の PDF を返す
func (h *PurchaseHandler) HandleReceipt(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	st := sess.State()
	rec, err := purchaseUsecase.BuildReceipt(sess.ID, st, h.network, h.links, time.Now())
	if err != nil {
		response.Error(w, err)
		return
	}
	pdf, err := receipt.Generate(rec)
	if err != nil {
		log.Printf("Failed to generate receipt for session %s: %v", sess.ID, err)
		http.Error(w, "Failed to generate receipt", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+purchaseUsecase.ReceiptFilename(st)+`"`)
	w.Write(pdf)
}

// WalletView はウォレットの接続状態
type WalletView struct {
	Address   string `json:"address,omitempty"`
	Connected bool   `json:"connected"`
}

// HandleWallet はウォレットの接続状態を返す
func (h *PurchaseHandler) HandleWallet(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.wallet.ActiveAddress()
	response.JSON(w, http.StatusOK, WalletView{Address: addr, Connected: ok})
}

// HandleConnect はウォレットを接続する
func (h *PurchaseHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	addr, err := h.wallet.Connect()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	response.JSON(w, http.StatusOK, WalletView{Address: addr, Connected: true})
}

// HandleDisconnect はウォレットを切断する
func (h *PurchaseHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	h.wallet.Disconnect()
	response.JSON(w, http.StatusOK, WalletView{})
}

func (h *PurchaseHandler) session(w http.ResponseWriter, r *http.Request) (*purchaseUsecase.Session, bool) {
	sess, err := h.manager.Get(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, err)
		return nil, false
	}
	return sess, true
}
