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

	"github.com/handcraftedhaven/storefront/internal/catalog"
	"github.com/handcraftedhaven/storefront/internal/events"
	h "github.com/handcraftedhaven/storefront/internal/http"
	"github.com/handcraftedhaven/storefront/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the marketplace, dashboard and JSON API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	requestTimeout, err := cfg.RequestTimeout()
	if err != nil {
		return err
	}
	shutdownTimeout, err := cfg.ShutdownTimeout()
	if err != nil {
		return err
	}

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.RunMigrations(credentials(cfg)); err != nil {
		return err
	}
	logger.Info("database migrations applied", zap.String("path", cfg.Database.MigrationsPath))

	products, err := catalog.NewRepository(cfg.Catalog.DBPath)
	if err != nil {
		return err
	}
	defer products.Close()

	if err := products.RunMigrations(cfg.Catalog.MigrationsPath); err != nil {
		return err
	}
	logger.Info("catalog ready", zap.String("path", cfg.Catalog.DBPath))

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		logger.Info("publishing order events",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}
	defer publisher.Close()

	orders := service.NewOrderService(repo, publisher, logger)
	buyers := service.NewBuyerService(repo, repo, logger)
	reviews := service.NewReviewService(repo)

	pages, err := h.NewPages(products, reviews, orders, logger, requestTimeout)
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	router := h.NewRouter(h.Handlers{
		Buyers:   h.NewBuyerHandler(buyers, requestTimeout),
		Orders:   h.NewOrdersHandler(orders, requestTimeout),
		Products: h.NewProductHandler(products, requestTimeout),
		Reviews:  h.NewReviewHandler(reviews, requestTimeout),
		Pages:    pages,
	}, requestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}
