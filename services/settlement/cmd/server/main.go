package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/occydefi/solagent-economy/pkg/db"
	"github.com/occydefi/solagent-economy/services/settlement/internal/config"
	"github.com/occydefi/solagent-economy/services/settlement/internal/events"
	"github.com/occydefi/solagent-economy/services/settlement/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logCfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		logCfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	log, err := logCfg.Build()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pool := db.MustConnect(cfg.DatabaseURL)
	defer pool.Close()

	st := store.New(pool)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := st.EnsureSchema(ctx); err != nil {
		log.Fatal("ensure schema", zap.Error(err))
	}

	app := &App{
		Cfg:    cfg,
		Log:    log,
		Pool:   pool,
		Store:  st,
		Events: events.NewDispatcher(cfg.WebhookSinkURL, cfg.WebhookSecret, log),
	}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Route("/v1", func(api chi.Router) {
		app.registerAdminRoutes(api)
		app.registerAgentRoutes(api)
		app.registerMarketplaceRoutes(api)
		app.registerPaymentRoutes(api)
		app.registerStreamRoutes(api)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServicePort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("settlement service listening", zap.String("port", cfg.ServicePort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}
