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

	"github.com/gin-gonic/gin"

	"docchatgo/internal/api"
	"docchatgo/internal/config"
	"docchatgo/internal/controller"
	"docchatgo/internal/ledger"
	"docchatgo/internal/logging"
	"docchatgo/internal/provider"
	"docchatgo/internal/session"
	"docchatgo/internal/staging"
	"docchatgo/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := ledger.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open ledger: %v", err)
	}
	defer db.Close()
	if err := ledger.Migrate(db); err != nil {
		log.Fatalf("migrate ledger: %v", err)
	}

	store, err := provider.NewGemini(ctx, cfg.GeminiAPIKey, cfg.Model)
	if err != nil {
		log.Fatalf("init gemini client: %v", err)
	}

	sess := session.New(store, ledger.New(db), logger)
	if err := sess.SweepOrphans(ctx); err != nil {
		logger.Warn("sweep orphaned remote files", "error", err)
	}

	spool, err := staging.New(cfg.StagingDir, logger)
	if err != nil {
		log.Fatalf("init staging: %v", err)
	}
	spool.StartCleaner(ctx, cfg.StagingTTL, cfg.StagingTTL)

	ctrl := controller.New(sess, logger)
	handlers := api.NewHandler(ctrl, spool)

	router := gin.Default()
	handlers.RegisterRoutes(router)
	if err := web.RegisterStaticRoutes(router); err != nil {
		log.Fatalf("register static routes: %v", err)
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: router}
	go func() {
		logger.Info("docchat listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// The remote file must not outlive the process.
	sess.Release(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown server", "error", err)
	}
}
