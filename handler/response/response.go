package response

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"nft-ticket-onchain/gateway/catalog"
	"nft-ticket-onchain/model"
	"nft-ticket-onchain/usecase/admin"
	"nft-ticket-onchain/usecase/purchase"
	"nft-ticket-onchain/usecase/ticket"
)

// JSON はステータスコードと JSON ボディを書き込む
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// Error はエラーの種類に応じたステータスコードでエラーを返す
func Error(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), StatusOf(err))
}

// StatusOf はエラーに対応する HTTP ステータスコード
func StatusOf(err error) int {
	var validation *purchase.ValidationError
	switch {
	case errors.As(err, &validation), errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrEventNotFound),
		errors.Is(err, catalog.ErrTicketNotFound),
		errors.Is(err, purchase.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ticket.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, model.ErrWalletNotConnected),
		errors.Is(err, purchase.ErrPurchaseInFlight),
		errors.Is(err, purchase.ErrReceiptUnavailable),
		errors.Is(err, ticket.ErrTicketFrozen),
		errors.Is(err, ticket.ErrRefunded),
		errors.Is(err, ticket.ErrEventPassed),
		errors.Is(err, ticket.ErrRefundClosed),
		errors.Is(err, ticket.ErrSameRecipient),
		errors.Is(err, admin.ErrNoActiveTickets):
		return http.StatusConflict
	case errors.Is(err, purchase.ErrConfiguration),
		errors.Is(err, purchase.ErrGuardUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
