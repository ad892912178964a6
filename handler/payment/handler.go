package payment

import (
	"encoding/json"
	"net/http"

	"nft-ticket-onchain/handler/response"
	paymentUsecase "nft-ticket-onchain/usecase/payment"
)

type PaymentHandler struct {
	paymentUC paymentUsecase.PaymentUsecase
}

func NewPaymentHandler(uc paymentUsecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{paymentUC: uc}
}

// VerifyPaymentRequest は支払い検証APIの入力
type VerifyPaymentRequest struct {
	EventID string `json:"event_id"`
	TxHash  string `json:"tx_hash"`
}

// HandleVerifyPayment は購入トランザクションの送金額と送金先を検証する
func (h *PaymentHandler) HandleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.EventID == "" || req.TxHash == "" {
		http.Error(w, "event_id and tx_hash are required", http.StatusBadRequest)
		return
	}

	// Usecaseにビジネスロジックを委譲
	v, err := h.paymentUC.VerifyPurchasePayment(r.Context(), req.EventID, req.TxHash)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	response.JSON(w, http.StatusOK, v)
}
