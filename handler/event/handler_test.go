package event

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nft-ticket-onchain/gateway/catalog"
	"nft-ticket-onchain/model"
	eventUsecase "nft-ticket-onchain/usecase/event"
)

type mockEventUsecase struct {
	mock.Mock
}

func (m *mockEventUsecase) List(filters model.EventFilters, sortBy model.EventSort, page, perPage int) model.EventPage {
	return m.Called(filters, sortBy, page, perPage).Get(0).(model.EventPage)
}

func (m *mockEventUsecase) Get(id string) (model.Event, error) {
	args := m.Called(id)
	return args.Get(0).(model.Event), args.Error(1)
}

func (m *mockEventUsecase) Create(ctx context.Context, in eventUsecase.CreateInput) (model.Event, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(model.Event), args.Error(1)
}

func newRouter(h *EventHandler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/events", h.HandleListEvents).Methods("GET")
	router.HandleFunc("/api/v1/events", h.HandleCreateEvent).Methods("POST")
	router.HandleFunc("/api/v1/events/{eventId}", h.HandleGetEvent).Methods("GET")
	return router
}

func TestHandleListEvents_ParsesQuery(t *testing.T) {
	uc := &mockEventUsecase{}
	uc.On("List", model.EventFilters{
		Search:   "live",
		Category: []string{"music", "sports"},
		Status:   []string{"active"},
		PriceMin: 1,
	}, model.SortPriceLow, 2, 6).Return(model.EventPage{TotalItems: 7, TotalPages: 2, CurrentPage: 2})
	router := newRouter(NewEventHandler(uc))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/events?search=live&category=music,sports&status=active&price_min=1&sort=price-low&page=2&per_page=6", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var page model.EventPage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Equal(t, 7, page.TotalItems)
	uc.AssertExpectations(t)
}

func TestHandleGetEvent(t *testing.T) {
	uc := &mockEventUsecase{}
	uc.On("Get", "1").Return(model.Event{ID: "1", EventName: "Summer Music Festival"}, nil)
	uc.On("Get", "404").Return(model.Event{}, catalog.ErrEventNotFound)
	router := newRouter(NewEventHandler(uc))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Summer Music Festival")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/404", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCreateEvent(t *testing.T) {
	uc := &mockEventUsecase{}
	uc.On("Create", mock.Anything, eventUsecase.CreateInput{EventName: "Live", EventDate: 1_800_000_000, Price: "0.05"}).
		Return(model.Event{ID: "abc", EventName: "Live"}, nil)
	uc.On("Create", mock.Anything, eventUsecase.CreateInput{EventName: "Live"}).
		Return(model.Event{}, model.ErrInvalidInput)
	router := newRouter(NewEventHandler(uc))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events",
		strings.NewReader(`{"event_name":"Live","event_date":1800000000,"price":"0.05"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{"event_name":"Live"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
