package event

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"nft-ticket-onchain/handler/response"
	"nft-ticket-onchain/model"
	eventUsecase "nft-ticket-onchain/usecase/event"
)

type EventHandler struct {
	eventUC eventUsecase.EventUsecase
}

func NewEventHandler(uc eventUsecase.EventUsecase) *EventHandler {
	return &EventHandler{eventUC: uc}
}

// HandleListEvents はイベント一覧を返す。
// クエリ: search, category, status (カンマ区切り可), price_min, price_max (ETH), sort, page, per_page
func (h *EventHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := model.EventFilters{
		Search:   q.Get("search"),
		Category: splitList(q["category"]),
		Status:   splitList(q["status"]),
		PriceMin: queryInt64(q.Get("price_min")),
		PriceMax: queryInt64(q.Get("price_max")),
	}
	sortBy := model.EventSort(q.Get("sort"))
	page := int(queryInt64(q.Get("page")))
	perPage := int(queryInt64(q.Get("per_page")))

	response.JSON(w, http.StatusOK, h.eventUC.List(filters, sortBy, page, perPage))
}

// HandleGetEvent はイベント詳細を返す
func (h *EventHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.eventUC.Get(mux.Vars(r)["eventId"])
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, event)
}

// HandleCreateEvent は createTicketEvent を送信してイベントを登録する
func (h *EventHandler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventUsecase.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	event, err := h.eventUC.Create(r.Context(), req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, event)
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func queryInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
