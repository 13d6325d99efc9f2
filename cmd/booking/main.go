// Package main запускает HTTP-сервер сервиса бронирования.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/safarly/booking-system/internal/config"
	"github.com/safarly/booking-system/internal/handler"
	"github.com/safarly/booking-system/internal/inventory"
	"github.com/safarly/booking-system/internal/middleware"
	"github.com/safarly/booking-system/internal/payment"
	"github.com/safarly/booking-system/internal/promo"
	"github.com/safarly/booking-system/internal/repository"
	"github.com/safarly/booking-system/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	var cache *redis.Client
	if cfg.RedisAddress != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		defer cache.Close()
	}

	inventoryClient := inventory.NewClient(cfg.InventoryAddress)
	promoClient := promo.NewClient(cfg.PromoAddress)
	paymentClient := payment.NewClient(cfg.KashierAddress)

	svc := service.NewService(repo, inventoryClient, promoClient, paymentClient, cache, logger)
	defer svc.Close()

	sessionMiddleware := middleware.NewSessionMiddleware(cfg.SessionSecret)
	h := handler.NewHandler(svc, logger, sessionMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск фоновой сверки статусов оплаты
	g.Go(func() error {
		svc.StartPaymentStatusUpdates(ctx)
		return nil
	})

	// Запуск фоновой очистки брошенных черновиков
	g.Go(func() error {
		svc.StartDraftCleanup(ctx)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting booking server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
