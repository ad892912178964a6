package explorer

import (
	"net/http"
	"strconv"

	explorerGateway "nft-ticket-onchain/gateway/explorer"
)

// LinkBuilder はトランザクションのリンクを組み立てる
type LinkBuilder interface {
	TxURL(txID string) string
}

type ExplorerHandler struct {
	links LinkBuilder
}

func NewExplorerHandler(links LinkBuilder) *ExplorerHandler {
	return &ExplorerHandler{links: links}
}

// HandleQR はトランザクションのエクスプローラーリンクを QR コード (PNG) で返す (?id=&size=)
func (h *ExplorerHandler) HandleQR(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	txID := q.Get("id")
	if txID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	url := h.links.TxURL(txID)
	if url == "" {
		http.Error(w, "No explorer for this network", http.StatusNotFound)
		return
	}
	size, _ := strconv.Atoi(q.Get("size"))

	png, err := explorerGateway.QRCode(url, size)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
