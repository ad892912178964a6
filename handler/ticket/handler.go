package ticket

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"nft-ticket-onchain/handler/response"
	"nft-ticket-onchain/model"
	ticketUsecase "nft-ticket-onchain/usecase/ticket"
)

type TicketHandler struct {
	ticketUC ticketUsecase.TicketUsecase
}

func NewTicketHandler(uc ticketUsecase.TicketUsecase) *TicketHandler {
	return &TicketHandler{ticketUC: uc}
}

// TxResponse は送信したトランザクション
type TxResponse struct {
	AssetID uint64 `json:"asset_id"`
	TxHash  string `json:"tx_hash"`
}

// HandleListTickets は保有チケット一覧を返す (?owner=&filter=)
func (h *TicketHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tickets, err := h.ticketUC.List(q.Get("owner"), model.TicketFilter(q.Get("filter")))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, tickets)
}

// HandleTransfer はチケットを転送する
func (h *TicketHandler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseAssetID(w, r)
	if !ok {
		return
	}
	var req ticketUsecase.TransferInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	txHash, err := h.ticketUC.Transfer(r.Context(), assetID, req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, TxResponse{AssetID: assetID, TxHash: txHash})
}

// RefundRequest は返金リクエスト
type RefundRequest struct {
	Reason string `json:"reason,omitempty"`
}

// HandleRefund はチケット代金を返金する。ボディは省略可
func (h *TicketHandler) HandleRefund(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseAssetID(w, r)
	if !ok {
		return
	}
	var req RefundRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	txHash, err := h.ticketUC.Refund(r.Context(), assetID, req.Reason)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, TxResponse{AssetID: assetID, TxHash: txHash})
}

func parseAssetID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	assetID, err := strconv.ParseUint(mux.Vars(r)["assetId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid asset ID", http.StatusBadRequest)
		return 0, false
	}
	return assetID, true
}
