package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/ccournoyer/firesale-backend/internal/clock"
	"github.com/ccournoyer/firesale-backend/internal/config"
	"github.com/ccournoyer/firesale-backend/internal/domain"
	"github.com/ccournoyer/firesale-backend/internal/handler"
	"github.com/ccournoyer/firesale-backend/internal/logging"
	"github.com/ccournoyer/firesale-backend/internal/middleware"
	"github.com/ccournoyer/firesale-backend/internal/observability"
	"github.com/ccournoyer/firesale-backend/internal/repository"
	"github.com/ccournoyer/firesale-backend/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Init("firesale-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := connectDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	clk := clock.NewSystem()

	accountRepo := repository.NewAccountRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	itemRepo := repository.NewItemRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	cartRepo := repository.NewCartRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	creditSvc := service.NewCreditService(accountRepo, ledgerRepo, db, clk, metrics, cfg.TxMaxRetries)
	accountSvc := service.NewAccountService(accountRepo, ledgerRepo, db, clk, decimal.NewFromFloat(cfg.SignupBonus))
	itemSvc := service.NewItemService(creditSvc, itemRepo, db, clk, decimal.NewFromFloat(cfg.PostingFee))
	reservationSvc := service.NewReservationService(
		creditSvc,
		itemRepo,
		reservationRepo,
		cartRepo,
		db,
		clk,
		metrics,
		decimal.NewFromFloat(cfg.ReservationFee),
		cfg.ReservationTTL(),
	)
	purchaseSvc := service.NewPurchaseService(purchaseRepo, reservationRepo, itemRepo, cartRepo, db, clk)
	sweeper := service.NewSweeper(cartRepo, reservationRepo, db, clk, metrics, cfg.ReservationTTL(), cfg.SweepInterval())

	healthHandler := handler.NewHealthHandler(db)
	authHandler := handler.NewAuthHandler(accountSvc, cfg.JWTSecret, cfg.JWTExpiry())
	accountHandler := handler.NewAccountHandler(accountSvc, creditSvc, decimal.NewFromFloat(cfg.TopUpAmount))
	adminHandler := handler.NewAdminHandler(accountSvc, creditSvc, sweeper)
	itemHandler := handler.NewItemHandler(itemSvc)
	reservationHandler := handler.NewReservationHandler(reservationSvc, purchaseSvc, sweeper)

	authn := middleware.Auth(cfg.JWTSecret)
	idempotent := middleware.Idempotency(idempotencyRepo)
	sellerOnly := middleware.RequireRole(domain.RoleSeller)
	buyerOnly := middleware.RequireRole(domain.RoleBuyer)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /api/v1/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	mux.Handle("GET /api/v1/accounts/me", authn(http.HandlerFunc(accountHandler.Me)))
	mux.Handle("GET /api/v1/accounts/me/ledger", authn(http.HandlerFunc(accountHandler.Ledger)))
	mux.Handle("POST /api/v1/accounts/me/topup", authn(idempotent(http.HandlerFunc(accountHandler.TopUp))))

	mux.Handle("GET /api/v1/items", authn(http.HandlerFunc(itemHandler.ListItems)))
	mux.Handle("GET /api/v1/items/{id}", authn(http.HandlerFunc(itemHandler.GetItem)))
	mux.Handle("POST /api/v1/items", authn(sellerOnly(idempotent(http.HandlerFunc(itemHandler.PostItem)))))

	mux.Handle("POST /api/v1/reservations", authn(buyerOnly(idempotent(http.HandlerFunc(reservationHandler.Reserve)))))
	mux.Handle("GET /api/v1/reservations", authn(http.HandlerFunc(reservationHandler.ListMine)))
	mux.Handle("POST /api/v1/reservations/{id}/accept", authn(sellerOnly(http.HandlerFunc(reservationHandler.Accept))))
	mux.Handle("POST /api/v1/reservations/{id}/decline", authn(sellerOnly(http.HandlerFunc(reservationHandler.Decline))))
	mux.Handle("DELETE /api/v1/reservations/{id}", authn(buyerOnly(http.HandlerFunc(reservationHandler.Cancel))))
	mux.Handle("POST /api/v1/reservations/{id}/purchase", authn(buyerOnly(idempotent(http.HandlerFunc(reservationHandler.Purchase)))))

	mux.Handle("GET /api/v1/cart", authn(buyerOnly(http.HandlerFunc(reservationHandler.Cart))))
	mux.Handle("GET /api/v1/purchases", authn(http.HandlerFunc(reservationHandler.ListPurchases)))
	mux.Handle("GET /api/v1/store/reservations", authn(sellerOnly(http.HandlerFunc(reservationHandler.ListStore))))
	mux.Handle("GET /api/v1/store/items", authn(sellerOnly(http.HandlerFunc(itemHandler.ListStoreItems))))

	mux.Handle("POST /api/v1/admin/credits/issue", authn(adminOnly(idempotent(http.HandlerFunc(adminHandler.Issue)))))
	mux.Handle("POST /api/v1/admin/credits/refund", authn(adminOnly(idempotent(http.HandlerFunc(adminHandler.Refund)))))
	mux.Handle("GET /api/v1/admin/accounts", authn(adminOnly(http.HandlerFunc(adminHandler.ListAccounts))))
	mux.Handle("POST /api/v1/admin/sweep", authn(adminOnly(http.HandlerFunc(adminHandler.Sweep))))

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      root,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go sweeper.Run(ctx)
	go cleanIdempotencyCache(ctx, idempotencyRepo, logger)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("run: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// cleanIdempotencyCache drops expired idempotency entries hourly. Replay
// protection only needs to outlive client retry windows, not the row's
// lifetime on disk.
func cleanIdempotencyCache(ctx context.Context, repo *repository.IdempotencyRepository, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := repo.CleanExpired(ctx)
			if err != nil {
				logger.Error("idempotency cache cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("idempotency cache cleaned", "removed", removed)
			}
		}
	}
}

// connectDB retries for a while on startup so the API can come up alongside
// the database in compose environments.
func connectDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	const (
		attempts = 10
		backoff  = 2 * time.Second
	)

	var lastErr error
	for i := 1; i <= attempts; i++ {
		db, err := repository.NewPostgresDB(ctx, cfg)
		if err == nil {
			return db, nil
		}
		lastErr = err
		logger.Warn("database not ready", "attempt", i, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("connectDB: %w", lastErr)
}
