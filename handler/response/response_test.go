package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"nft-ticket-onchain/gateway/catalog"
	"nft-ticket-onchain/model"
	"nft-ticket-onchain/usecase/purchase"
	"nft-ticket-onchain/usecase/ticket"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: price is required", model.ErrInvalidInput), http.StatusBadRequest},
		{&purchase.ValidationError{Message: "Please connect your wallet first"}, http.StatusBadRequest},
		{catalog.ErrEventNotFound, http.StatusNotFound},
		{purchase.ErrSessionNotFound, http.StatusNotFound},
		{ticket.ErrNotOwner, http.StatusForbidden},
		{ticket.ErrTicketFrozen, http.StatusConflict},
		{purchase.ErrSignerUnavailable, http.StatusConflict},
		{fmt.Errorf("send: %w", purchase.ErrConfiguration), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: dial tcp", purchase.ErrGuardUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, StatusOf(c.err), c.err.Error())
	}
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"id": "1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"1"}`, rec.Body.String())
}
