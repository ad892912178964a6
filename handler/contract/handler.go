package contract

import (
	"encoding/json"
	"net/http"

	"nft-ticket-onchain/handler/response"
	contractUsecase "nft-ticket-onchain/usecase/contract"
)

type ContractHandler struct {
	contractUC contractUsecase.ContractUsecase
}

func NewContractHandler(uc contractUsecase.ContractUsecase) *ContractHandler {
	return &ContractHandler{contractUC: uc}
}

// VerifyTxRequest はトランザクション検証リクエスト
type VerifyTxRequest struct {
	TxHash string `json:"tx_hash"`
}

// HandleVerifyTransaction はトランザクションを検証
func (h *ContractHandler) HandleVerifyTransaction(w http.ResponseWriter, r *http.Request) {
	var req VerifyTxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.TxHash == "" {
		http.Error(w, "tx_hash is required", http.StatusBadRequest)
		return
	}

	verification, err := h.contractUC.VerifyTransaction(r.Context(), req.TxHash)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response.JSON(w, http.StatusOK, verification)
}

// HandleContractInfo はコントラクトアドレスと接続中のウォレットを返す
func (h *ContractHandler) HandleContractInfo(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.contractUC.Info())
}
