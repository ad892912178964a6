package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuyerChannel(t *testing.T) {
	assert.Equal(t, "buyer-0xabc", BuyerChannel("0xABC"))
}

func TestNewPubNub_RequiresKeys(t *testing.T) {
	assert.Nil(t, NewPubNub("", "sub", ""))
	assert.Nil(t, NewPubNub("pub", "", ""))
	assert.NotNil(t, NewPubNub("pub", "sub", "secret"))
}

func TestPubNubNotifier_DisabledIsNoop(t *testing.T) {
	n := NewPubNubNotifier(nil)
	assert.NoError(t, n.Notify(context.Background(), "buyer-0xabc", map[string]any{"type": "purchase_completed"}))
	assert.NoError(t, Nop{}.Notify(context.Background(), "x", nil))
}
