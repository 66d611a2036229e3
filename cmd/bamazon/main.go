package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bamazon/config"
	"bamazon/internal/app"
	"bamazon/internal/delivery"
	grpcHandler "bamazon/internal/delivery/grpc"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := config.NewLogger("info")
	cfg := config.LoadConfig(logger)
	logger = config.NewLogger(cfg.LogLevel)
	logger.Info("Starting Bamazon service...")

	if err := run(cfg, logger); err != nil {
		logger.Errorf("Bamazon service stopped with error: %v", err)
		os.Exit(1)
	}
	logger.Info("Bamazon service shut down gracefully.")
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("opening catalog store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Errorf("Error closing catalog store: %v", err)
		} else {
			logger.Info("Catalog store closed.")
		}
	}()

	if cfg.SeedFile != "" {
		if _, err := app.SeedFromFile(ctx, store, cfg.SeedFile, logger); err != nil {
			return fmt.Errorf("seeding catalog from %s: %w", cfg.SeedFile, err)
		}
	}

	useCases := app.NewUseCases(store, logger)
	logger.Info("Use cases initialized.")

	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := delivery.NewRouter(useCases.Catalog, useCases.Purchase, useCases.Department, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	grpcHandler.RegisterCatalogServiceServer(grpcServer, grpcHandler.NewCatalogHandler(
		useCases.Catalog, useCases.Purchase, useCases.Department, logger))
	reflection.Register(grpcServer)
	logger.Info("gRPC reflection service registered")

	lis, err := net.Listen("tcp", cfg.GrpcPort)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.GrpcPort, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("HTTP server listening on %s", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Infof("gRPC server listening on %s", cfg.GrpcPort)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Warn("Shutdown signal received...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		grpcServer.GracefulStop()
		logger.Info("gRPC server gracefully stopped.")
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
