package guard

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultLockTTL は購入ループが異常終了した場合にロックが自然解放されるまでの時間
const DefaultLockTTL = 5 * time.Minute

// lockMargin はレシート待ち以外の RPC 呼び出しに見込む時間
const lockMargin = 2 * time.Minute

// LockTTL は units 枚の購入ループ全体を覆うロックの有効期限。
// 1枚ごとに最大 receiptTimeout だけレシートを待つ。
func LockTTL(receiptTimeout time.Duration, units int) time.Duration {
	return max(receiptTimeout*time.Duration(units)+lockMargin, DefaultLockTTL)
}

// RedisGuard は (イベント, 購入者) ごとに送信中の購入を1つに制限する
type RedisGuard struct {
	Redis *redis.Client
	ttl   time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisGuard{Redis: client, ttl: ttl}
}

// TTL はロックの有効期限。購入ループはこの時間内に打ち切られる
func (g *RedisGuard) TTL() time.Duration {
	return g.ttl
}

func lockKey(eventID, buyer string) string {
	return fmt.Sprintf("purchase:inflight:%s:%s", eventID, strings.ToLower(buyer))
}

// Acquire はロックを取得する。既に送信中なら false
func (g *RedisGuard) Acquire(ctx context.Context, eventID, buyer string) (bool, error) {
	ok, err := g.Redis.SetNX(ctx, lockKey(eventID, buyer), 1, g.ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Release はロックを解放する
func (g *RedisGuard) Release(ctx context.Context, eventID, buyer string) error {
	return g.Redis.Del(ctx, lockKey(eventID, buyer)).Err()
}

// NewRedisClient は URL から接続プールを設定したクライアントを作成する
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		// host:port 形式
		opts = &redis.Options{Addr: url}
	}
	opts.PoolSize = 20
	opts.MinIdleConns = 2
	opts.MaxRetries = 3

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Printf("Connected to Redis at %s", opts.Addr)
	return client, nil
}
