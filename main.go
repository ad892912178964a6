package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nft-ticket-onchain/config"
	"nft-ticket-onchain/gateway/catalog"
	contractGateway "nft-ticket-onchain/gateway/contract"
	"nft-ticket-onchain/gateway/explorer"
	"nft-ticket-onchain/gateway/guard"
	"nft-ticket-onchain/gateway/notify"
	paymentGateway "nft-ticket-onchain/gateway/payment"
	"nft-ticket-onchain/gateway/signer"
	adminHandler "nft-ticket-onchain/handler/admin"
	contractHandler "nft-ticket-onchain/handler/contract"
	eventHandler "nft-ticket-onchain/handler/event"
	explorerHandler "nft-ticket-onchain/handler/explorer"
	paymentHandler "nft-ticket-onchain/handler/payment"
	purchaseHandler "nft-ticket-onchain/handler/purchase"
	ticketHandler "nft-ticket-onchain/handler/ticket"
	"nft-ticket-onchain/model"
	adminUsecase "nft-ticket-onchain/usecase/admin"
	contractUsecase "nft-ticket-onchain/usecase/contract"
	eventUsecase "nft-ticket-onchain/usecase/event"
	paymentUsecase "nft-ticket-onchain/usecase/payment"
	purchaseUsecase "nft-ticket-onchain/usecase/purchase"
	ticketUsecase "nft-ticket-onchain/usecase/ticket"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

func main() {
	// --- 1. 初期設定 ---
	cfg := config.LoadConfig()
	if cfg.NodeURL == "" {
		log.Fatal("ETH_NODE_URL environment variable not set")
	}
	if cfg.TicketContractAddress == "" {
		log.Println("WARNING: TICKET_CONTRACT_ADDRESS not set. Purchases will fail with a configuration error.")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- 2. ethclientの初期化 ---
	client, err := ethclient.Dial(cfg.NodeURL)
	if err != nil {
		log.Fatalf("Failed to connect to %s network: %v", cfg.Network, err)
	}
	log.Printf("Successfully connected to %s network (HTTP).", cfg.Network)

	// WebSocket接続でイベント購読
	eventClient := client
	if cfg.NodeWSURL != "" {
		wsClient, err := ethclient.Dial(cfg.NodeWSURL)
		if err != nil {
			log.Printf("WARNING: Failed to connect WebSocket for events: %v", err)
		} else {
			eventClient = wsClient
			log.Printf("Successfully connected to %s network (WebSocket for events).", cfg.Network)
		}
	}

	// --- 3. Gateway ---
	ctGateway, err := contractGateway.NewNftTicketGateway(eventClient, cfg.TicketContractAddress, cfg.ReceiptTimeout)
	if err != nil {
		log.Fatalf("Failed to initialize contract gateway: %v", err)
	}
	wallet, err := signer.NewKeySigner(client, cfg.WalletPrivateKey)
	if err != nil {
		log.Fatalf("Failed to initialize wallet: %v", err)
	}

	store := catalog.NewStore()
	if cfg.SeedDemoEvents {
		store.SeedDemoEvents()
		log.Println("Demo events seeded.")
	}

	links := explorer.New(cfg.Network, ctGateway.ContractAddress())

	var notifier notify.Notifier = notify.Nop{}
	if pn := notify.NewPubNub(cfg.PubNubPublishKey, cfg.PubNubSubscribeKey, cfg.PubNubSecretKey); pn != nil {
		notifier = notify.NewPubNubNotifier(pn)
		log.Println("PubNub notifications enabled.")
	}

	var purchaseGuard purchaseUsecase.Guard = purchaseUsecase.NopGuard{}
	if cfg.RedisURL != "" {
		redisClient, err := guard.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Printf("WARNING: Redis unavailable, purchase guard disabled: %v", err)
		} else {
			defer redisClient.Close()
			lockTTL := max(cfg.PurchaseLockTTL, guard.LockTTL(cfg.ReceiptTimeout, model.MaxPerPurchase))
			purchaseGuard = guard.NewRedisGuard(redisClient, lockTTL)
			log.Printf("Redis purchase guard enabled (lock TTL %s).", lockTTL)
		}
	}

	// --- 4. Usecase ---
	contractUC := contractUsecase.NewContractUsecase(ctGateway, wallet, store, notifier, links.Network)
	composer := purchaseUsecase.NewComposer(ctGateway, wallet, ctGateway)
	manager := purchaseUsecase.NewManager(composer, wallet, purchaseGuard, purchaseUsecase.Hooks{
		Purchased: purchaseUsecase.RecordPurchase(store),
		Celebrate: purchaseUsecase.Celebrate(notifier, links),
	})
	eventUC := eventUsecase.NewEventUsecase(store, contractUC, ctGateway)
	ticketUC := ticketUsecase.NewTicketUsecase(store, wallet, contractUC, ctGateway)
	adminUC := adminUsecase.NewAdminUsecase(store, contractUC, ctGateway)
	paymentUC := paymentUsecase.NewPaymentUsecase(paymentGateway.NewEthGateway(client, ctGateway.ContractAddress()), store)

	if ctGateway.ContractAddress() != "" {
		log.Printf("Ticket Contract: %s", ctGateway.ContractAddress())
		// イベントリスナーを開始
		if err := contractUC.StartEventListener(ctx, cfg.ScanFromBlock); err != nil {
			log.Printf("WARNING: Failed to start event listener: %v", err)
		}
	}

	go sweepSessions(ctx, manager, cfg.SessionTTL, cfg.SessionSweepInterval)

	// --- 5. Handler ---
	contractHdlr := contractHandler.NewContractHandler(contractUC)
	paymentHdlr := paymentHandler.NewPaymentHandler(paymentUC)
	eventHdlr := eventHandler.NewEventHandler(eventUC)
	purchaseHdlr := purchaseHandler.NewPurchaseHandler(manager, wallet, store, links, links.Network)
	ticketHdlr := ticketHandler.NewTicketHandler(ticketUC)
	adminHdlr := adminHandler.NewAdminHandler(adminUC)
	explorerHdlr := explorerHandler.NewExplorerHandler(links)

	// --- 6. ルーティングの設定 ---
	router := mux.NewRouter()

	// ヘルスチェック用エンドポイント
	health := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
	router.HandleFunc("/", health).Methods("GET")
	router.HandleFunc("/health", health).Methods("GET")
	if cfg.EnableMetrics {
		router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", health).Methods("GET")
	if cfg.EnableMetrics {
		api.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// Events
	api.HandleFunc("/events", eventHdlr.HandleListEvents).Methods("GET")
	api.HandleFunc("/events", eventHdlr.HandleCreateEvent).Methods("POST")
	api.HandleFunc("/events/{eventId}", eventHdlr.HandleGetEvent).Methods("GET")

	// Purchase
	api.HandleFunc("/purchase", purchaseHdlr.HandleOpen).Methods("POST")
	api.HandleFunc("/purchase/{id}", purchaseHdlr.HandleGet).Methods("GET")
	api.HandleFunc("/purchase/{id}/receipt", purchaseHdlr.HandleReceipt).Methods("GET")
	api.HandleFunc("/purchase/{id}/{action:increment|decrement|quantity|next|back|proceed|retreat|close}", purchaseHdlr.HandleAction).Methods("POST")

	// Wallet
	api.HandleFunc("/wallet", purchaseHdlr.HandleWallet).Methods("GET")
	api.HandleFunc("/wallet/connect", purchaseHdlr.HandleConnect).Methods("POST")
	api.HandleFunc("/wallet/disconnect", purchaseHdlr.HandleDisconnect).Methods("POST")

	// Tickets
	api.HandleFunc("/tickets", ticketHdlr.HandleListTickets).Methods("GET")
	api.HandleFunc("/tickets/{assetId}/transfer", ticketHdlr.HandleTransfer).Methods("POST")
	api.HandleFunc("/tickets/{assetId}/refund", ticketHdlr.HandleRefund).Methods("POST")

	// Admin
	api.HandleFunc("/admin/freeze", adminHdlr.HandleCheckFreeze).Methods("GET")
	api.HandleFunc("/admin/freeze/emergency", adminHdlr.HandleEmergencyFreeze).Methods("POST")
	api.HandleFunc("/admin/freeze/release", adminHdlr.HandleReleaseFreeze).Methods("POST")
	api.HandleFunc("/admin/refund", adminHdlr.HandleRefund).Methods("POST")
	api.HandleFunc("/admin/refund/emergency", adminHdlr.HandleEmergencyRefund).Methods("POST")
	api.HandleFunc("/admin/events/{eventId}/refund-all", adminHdlr.HandleRefundAll).Methods("POST")

	// Contract / Payment / Explorer
	api.HandleFunc("/contract/info", contractHdlr.HandleContractInfo).Methods("GET")
	api.HandleFunc("/contract/verify-tx", contractHdlr.HandleVerifyTransaction).Methods("POST")
	api.HandleFunc("/payment/verify", paymentHdlr.HandleVerifyPayment).Methods("POST")
	api.HandleFunc("/explorer/qr", explorerHdlr.HandleQR).Methods("GET")

	// --- 7. CORSミドルウェアの設定 ---
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// --- 8. サーバー起動 ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: c.Handler(router),
	}
	go handleShutdown(cancel)
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("NFT Ticket Service (%s) starting on :%s", links.Network, cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("could not start server: %v", err)
	}
	log.Println("Server stopped.")
}

// sweepSessions は放置された購入セッションを定期的に破棄する
func sweepSessions(ctx context.Context, manager *purchaseUsecase.Manager, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := manager.Sweep(ttl); n > 0 {
				log.Printf("Swept %d idle purchase sessions", n)
			}
		}
	}
}

// handleShutdown は SIGINT / SIGTERM で cancel を呼ぶ
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
