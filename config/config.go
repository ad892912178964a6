package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port           string
	AllowedOrigins []string

	// Chain
	Network               string
	NodeURL               string
	NodeWSURL             string
	TicketContractAddress string
	WalletPrivateKey      string
	ReceiptTimeout        time.Duration
	// ScanFromBlock は起動時に過去イベントをスキャンする開始ブロック (0 なら直近のみ)
	ScanFromBlock uint64

	// Redis
	RedisURL        string
	PurchaseLockTTL time.Duration

	// PubNub
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Purchase sessions
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	SeedDemoEvents       bool

	// Monitoring
	EnableMetrics bool
}

// LoadConfig は .env を読み込んだ上で環境変数から設定を作成する
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using environment variables only.")
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),

		Network:               getEnv("NETWORK", "sepolia"),
		NodeURL:               getEnv("ETH_NODE_URL", ""),
		NodeWSURL:             getEnv("ETH_NODE_WS_URL", ""),
		TicketContractAddress: getEnv("TICKET_CONTRACT_ADDRESS", ""),
		WalletPrivateKey:      getEnv("WALLET_PRIVATE_KEY", ""),
		ReceiptTimeout:        getEnvAsDuration("RECEIPT_TIMEOUT", "60s"),
		ScanFromBlock:         uint64(getEnvAsInt("SCAN_FROM_BLOCK", 0)),

		RedisURL:        getEnv("REDIS_URL", ""),
		PurchaseLockTTL: getEnvAsDuration("PURCHASE_LOCK_TTL", "5m"),

		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		SessionTTL:           getEnvAsDuration("SESSION_TTL", "30m"),
		SessionSweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", "5m"),
		SeedDemoEvents:       getEnvAsBool("SEED_DEMO_EVENTS", true),

		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
