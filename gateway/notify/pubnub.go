package notify

import (
	"context"
	"fmt"
	"strings"

	pubnub "github.com/pubnub/go"
)

// Notifier は購入者向けのリアルタイム通知
type Notifier interface {
	Notify(ctx context.Context, channel string, message map[string]any) error
}

// PubNubNotifier は PubNub チャンネルにメッセージを publish する
type PubNubNotifier struct {
	pubnub *pubnub.PubNub
}

func NewPubNubNotifier(pn *pubnub.PubNub) *PubNubNotifier {
	return &PubNubNotifier{pubnub: pn}
}

// NewPubNub はキーから PubNub クライアントを作成する。publishKey が空なら nil
func NewPubNub(publishKey, subscribeKey, secretKey string) *pubnub.PubNub {
	if publishKey == "" || subscribeKey == "" {
		return nil
	}
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = publishKey
	pnConfig.SubscribeKey = subscribeKey
	pnConfig.SecretKey = secretKey
	return pubnub.NewPubNub(pnConfig)
}

func (n *PubNubNotifier) Notify(ctx context.Context, channel string, message map[string]any) error {
	if n.pubnub == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := n.pubnub.Publish().
		Channel(channel).
		Message(message).
		Execute()
	if err != nil {
		return fmt.Errorf("pubnub publish to %s: %w", channel, err)
	}
	return nil
}

// BuyerChannel は購入者ごとのチャンネル名
func BuyerChannel(address string) string {
	return "buyer-" + strings.ToLower(address)
}

// Nop は何もしない Notifier
type Nop struct{}

func (Nop) Notify(context.Context, string, map[string]any) error { return nil }
