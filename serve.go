package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/web-casa/topoviz/internal/auth"
	"github.com/web-casa/topoviz/internal/event"
	"github.com/web-casa/topoviz/internal/handler"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and visualization frontend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a)
		},
	}
	cmd.Flags().String("port", "8080", "HTTP listen port")
	cmd.Flags().String("static-dir", "web/dist", "directory of the built frontend")
	cmd.Flags().String("gin-mode", "release", "gin mode: debug, release or test")
	bindFlags(a.v, cmd.Flags().Lookup, "port", "static-dir", "gin-mode")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger := a.cfg, a.logger
	if cfg.InsecureSecret() {
		logger.Warn("jwt_secret is the built-in default; set TOPOVIZ_JWT_SECRET before exposing this server")
	}
	gin.SetMode(cfg.GinMode)

	db, err := a.openDB()
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	bus := event.NewBus(logger)
	hub := event.NewHub(bus, logger)
	limiter := auth.NewRateLimiter(5, 15*time.Minute)
	go limiter.Run(ctx, 5*time.Minute)

	router := handler.NewRouter(handler.Deps{
		DB:        db,
		Logger:    logger,
		Bus:       bus,
		Hub:       hub,
		Limiter:   limiter,
		JWTSecret: cfg.JWTSecret,
		StaticDir: cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("topoviz starting", "addr", "http://localhost"+srv.Addr, "data_dir", cfg.DataDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
