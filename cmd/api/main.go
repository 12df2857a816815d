package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/a2a-swap/internal/cache"
	"github.com/aman-zulfiqar/a2a-swap/internal/client"
	"github.com/aman-zulfiqar/a2a-swap/internal/config"
	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
	"github.com/aman-zulfiqar/a2a-swap/internal/metrics"
	"github.com/aman-zulfiqar/a2a-swap/internal/payment"
	"github.com/aman-zulfiqar/a2a-swap/internal/rpc"
	"github.com/aman-zulfiqar/a2a-swap/internal/server"
	"github.com/aman-zulfiqar/a2a-swap/internal/storage"
	"github.com/aman-zulfiqar/a2a-swap/internal/tokens"
)

const version = "0.1.0"

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main wires the swap API: chain reads, the payment gate on /convert and
// the optional receipt and audit stores.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if cfg.DevMode {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	m := metrics.New()

	rpcClient := rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.RPCTimeout,
		Commitment:   cfg.Commitment,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
		Observer:     m,
	})

	registry, err := tokens.NewRegistry(constants.KnownTokens)
	if err != nil {
		logger.WithError(err).Fatal("failed to build token registry")
	}
	if cfg.TokensFile != "" {
		if err := registry.LoadFile(cfg.TokensFile); err != nil {
			logger.WithError(err).Fatal("failed to load tokens file")
		}
	}

	swaps := client.New(rpcClient, client.Config{
		ProgramID:          solana.MustPublicKeyFromBase58(cfg.ProgramID),
		DefaultSlippageBps: uint16(cfg.DefaultSlippageBps),
		Logger:             logger,
		Metrics:            m,
	})

	// Receipt store is optional; settlement never depends on it
	var receipts storage.ReceiptStore
	if cfg.RedisAddr != "" {
		rclient, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, receipts will not be stored")
		} else {
			store, err := cache.NewReceiptStore(rclient, cfg.ReceiptTTL)
			if err != nil {
				logger.WithError(err).Fatal("failed to create receipt store")
			}
			receipts = store
			defer func() { _ = store.Close() }()
		}
	}

	var audit storage.AuditSink
	if cfg.ClickHouseAddr != "" {
		ch, err := cache.NewClickHouseStore(ctx, cache.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("clickhouse unavailable, conversions will not be audited")
		} else {
			audit = ch
			defer func() { _ = ch.Close() }()
		}
	}

	var gate *payment.Gate
	if cfg.PaymentEnabled {
		gate, err = payment.NewGate(payment.GateDeps{
			Config: payment.Config{
				Network:           cfg.PaymentNetwork,
				Asset:             cfg.PaymentAsset,
				PayTo:             cfg.PaymentPayTo,
				Amount:            cfg.PaymentAmount,
				MaxTimeoutSeconds: cfg.PaymentMaxTimeout,
				FeePayer:          cfg.PaymentFeePayer,
				Description:       "Unsigned a2a-swap instruction for one token conversion",
				PublicURL:         cfg.PublicURL,
				VerifyTimeout:     cfg.VerifyTimeout,
				SettleTimeout:     cfg.SettleTimeout,
				RetryAfter:        cfg.SettleRetryAfter,
			},
			Facilitator: payment.NewHTTPFacilitator(cfg.FacilitatorURL),
			Receipts:    receipts,
			Logger:      logger,
			Metrics:     m,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to create payment gate")
		}
	} else {
		logger.Warn("payment gate disabled, /convert is free")
	}

	h := &server.Handlers{
		Client:     swaps,
		Tokens:     registry,
		Receipts:   receipts,
		Audit:      audit,
		Metrics:    m,
		DevMode:    cfg.DevMode,
		Logger:     logger,
		Version:    version,
		PublicURL:  cfg.PublicURL,
		Network:    cfg.Network(),
		RPCTimeout: cfg.RPCTimeout,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
		Gate: gate,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithFields(logrus.Fields{
		"addr":    cfg.APIAddr,
		"program": cfg.ProgramID,
		"network": cfg.Network(),
		"paid":    gate != nil,
	}).Info("api server starting")
	if err := srv.Start(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			waitCtx, waitCancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer waitCancel()
			if err := srv.WaitClosed(waitCtx); err != nil {
				fmt.Println(err)
			}
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}
}
