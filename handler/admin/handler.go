package admin

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"nft-ticket-onchain/handler/response"
	adminUsecase "nft-ticket-onchain/usecase/admin"
)

type AdminHandler struct {
	adminUC adminUsecase.AdminUsecase
}

func NewAdminHandler(uc adminUsecase.AdminUsecase) *AdminHandler {
	return &AdminHandler{adminUC: uc}
}

// FreezeRequest は凍結解除の入力
type FreezeRequest struct {
	EventDate   int64  `json:"event_date"`
	ReleaseDays uint64 `json:"release_days"`
}

// FreezeStatus は凍結状態
type FreezeStatus struct {
	EventDate   int64  `json:"event_date"`
	ReleaseDays uint64 `json:"release_days"`
	Frozen      bool   `json:"frozen"`
}

// TxResponse は送信したトランザクション
type TxResponse struct {
	TxHash string `json:"tx_hash"`
}

// HandleCheckFreeze は ?event_date=&release_days= の凍結状態を返す
func (h *AdminHandler) HandleCheckFreeze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	eventDate, err := strconv.ParseInt(q.Get("event_date"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid event_date", http.StatusBadRequest)
		return
	}
	var releaseDays uint64
	if s := q.Get("release_days"); s != "" {
		if releaseDays, err = strconv.ParseUint(s, 10, 64); err != nil {
			http.Error(w, "Invalid release_days", http.StatusBadRequest)
			return
		}
	}

	frozen, err := h.adminUC.CheckFreeze(r.Context(), eventDate, releaseDays)
	if err != nil {
		response.Error(w, err)
		return
	}
	if releaseDays == 0 {
		releaseDays = adminUsecase.DefaultReleaseDays
	}
	response.JSON(w, http.StatusOK, FreezeStatus{EventDate: eventDate, ReleaseDays: releaseDays, Frozen: frozen})
}

// HandleEmergencyFreeze は全チケットの転送を緊急凍結する
func (h *AdminHandler) HandleEmergencyFreeze(w http.ResponseWriter, r *http.Request) {
	txHash, err := h.adminUC.EmergencyFreeze(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, TxResponse{TxHash: txHash})
}

// HandleReleaseFreeze はイベントの凍結を解除する
func (h *AdminHandler) HandleReleaseFreeze(w http.ResponseWriter, r *http.Request) {
	var req FreezeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	txHash, err := h.adminUC.ReleaseFreeze(r.Context(), req.EventDate, req.ReleaseDays)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, TxResponse{TxHash: txHash})
}

// HandleRefund は返金期限内の返金 (refundTicket)
func (h *AdminHandler) HandleRefund(w http.ResponseWriter, r *http.Request) {
	var req adminUsecase.RefundInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	txHash, err := h.adminUC.Refund(r.Context(), req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, TxResponse{TxHash: txHash})
}

// HandleEmergencyRefund はイベント中止時の返金 (cancelEventRefund)
func (h *AdminHandler) HandleEmergencyRefund(w http.ResponseWriter, r *http.Request) {
	var req adminUsecase.RefundInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	txHash, err := h.adminUC.EmergencyRefund(r.Context(), req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, TxResponse{TxHash: txHash})
}

// HandleRefundAll はイベントを中止して全購入者に返金する
func (h *AdminHandler) HandleRefundAll(w http.ResponseWriter, r *http.Request) {
	summary, err := h.adminUC.RefundAll(r.Context(), mux.Vars(r)["eventId"])
	if err != nil {
		response.Error(w, err)
		return
	}
	status := http.StatusOK
	if summary.Succeeded == 0 {
		status = http.StatusBadGateway
	}
	response.JSON(w, status, summary)
}
