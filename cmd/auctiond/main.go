// cmd/auctiond/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"leauction/internal/auction"
	"leauction/internal/bidding"
	"leauction/internal/clock"
	"leauction/internal/config"
	"leauction/internal/identity"
	"leauction/internal/notification"
	"leauction/internal/scheduler"
	"leauction/internal/store"
	"leauction/internal/store/memory"
	"leauction/internal/store/postgres"
	"leauction/internal/telemetry"
	"leauction/internal/transaction"
)

// dataStore is satisfied by both the postgres and the in-memory store.
type dataStore interface {
	Items() auction.Store
	Bids() bidding.Store
	Users() identity.Store
	Notifications() notification.Store
	Transactions() transaction.Store
}

// txnBridge breaks the construction cycle between the auction state
// machine and the transaction handshake: the auction service is built
// against the bridge, which is pointed at the real transaction service
// once that exists.
type txnBridge struct {
	transaction.Service
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "auctiond", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("tracing setup failed", zap.Error(err))
	}
	defer shutdownTracing(context.Background())

	var data dataStore
	if cfg.DatabaseURL != "" {
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
		data = pg
		logger.Info("using postgres store")
	} else {
		data = memory.New()
		logger.Warn("DATABASE_URL not set, using in-memory store")
	}

	clk := clock.Real{}
	locker := store.NewKeyedMutex()
	jwt := identity.JWT{Secret: []byte(cfg.JWTSecret), TokenTTL: cfg.TokenTTL}

	var webhook *notification.WebhookSender
	if cfg.NotifyWebhookURL != "" {
		webhook = notification.NewWebhookSender(cfg.NotifyWebhookURL, logger)
	}
	notifySvc := notification.NewService(data.Notifications(), clk, logger, webhook)

	identitySvc := identity.NewService(data.Users(), clk)

	bridge := &txnBridge{}
	auctionSvc := auction.NewService(data.Items(), locker, bridge, notifySvc, clk, logger)
	txnSvc := transaction.NewService(data.Transactions(), auctionSvc, locker, notifySvc, clk, logger)
	bridge.Service = txnSvc
	biddingSvc := bidding.NewService(data.Bids(), data.Items(), auctionSvc, locker, notifySvc, logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Route("/api", func(r chi.Router) {
		r.Mount("/auth", identity.NewHandler(identitySvc, jwt, clk).Routes())
		r.Mount("/items", auction.NewHandler(auctionSvc, jwt).Routes())
		r.Mount("/bids", bidding.NewHandler(biddingSvc, jwt, clk).Routes())
		r.Mount("/transactions", transaction.NewHandler(txnSvc, jwt).Routes())
		r.Mount("/notifications", notification.NewHandler(notifySvc, jwt).Routes())
	})

	runner := scheduler.New(logger, ctx)
	if _, err := runner.Add(fmt.Sprintf("@every %s", cfg.ExpiryInterval), func(jobCtx context.Context) {
		finalized, err := auctionSvc.TickExpiry(jobCtx, clk.Now())
		if err != nil {
			logger.Error("expiry tick failed", zap.Error(err))
			return
		}
		if len(finalized) > 0 {
			logger.Info("auctions finalized", zap.Int("count", len(finalized)))
		}
	}); err != nil {
		logger.Fatal("scheduling expiry tick failed", zap.Error(err))
	}
	runner.Start()
	defer runner.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("auction service listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func buildLogger(level, encoding string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.Encoding = encoding
	if encoding == "console" {
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	return zcfg.Build()
}
