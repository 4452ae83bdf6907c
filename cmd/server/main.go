package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fastlog/internal/api"
	"fastlog/internal/config"
	"fastlog/internal/logger"
	"fastlog/pkg/fastlog"
)

func main() {
	cfg, err := config.ParseServer(os.Args[1:])
	if err != nil {
		logger.Fatal("config", "error", err)
	}
	if err := cfg.Log.Init(false); err != nil {
		logger.Fatal("init logger", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	store, closeStore, err := cfg.Store.Open(ctx)
	if err != nil {
		logger.Fatal("open store", "store", cfg.Store.Driver, "error", err)
	}
	defer closeStore()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.New(fastlog.NewService(store), cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("fastlog listening", "addr", server.Addr, "store", cfg.Store.Driver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", "error", err)
			closeStore()
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}
}
