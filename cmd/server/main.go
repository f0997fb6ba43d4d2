package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"predictbattle/internal/app"
	"predictbattle/internal/config"
	"predictbattle/internal/transport/rest"
	"predictbattle/internal/transport/ws"
)

// @title          PredictBattle API
// @version        1.0
// @description    Prediction sessions shared by code, with registered or anonymous players
// @BasePath       /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize WebSocket hub (implements service.Broadcaster)
	wsHub := ws.NewHub(logger)
	a.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		AuthService:       a.AuthService,
		SessionService:    a.SessionService,
		PredictionService: a.PredictionService,
		WSHub:             wsHub,
		Logger:            logger,
		FrontendURL:       cfg.FrontendURL,
		Production:        cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", srv.Addr), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
	case err := <-serveErr:
		logger.Error("listen failed", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("error", err))
	}
	wsHub.Close()
	if err := a.Close(shutdownCtx); err != nil {
		logger.Error("failed to close connections", slog.Any("error", err))
	}

	logger.Info("server exited")
}
