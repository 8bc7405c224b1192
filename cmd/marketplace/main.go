package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	cartapp "github.com/dmehra2102/agro-marketplace/internal/cart/application"
	carthttp "github.com/dmehra2102/agro-marketplace/internal/cart/infrastructure/http"
	checkoutapp "github.com/dmehra2102/agro-marketplace/internal/checkout/application"
	checkouthttp "github.com/dmehra2102/agro-marketplace/internal/checkout/infrastructure/http"
	"github.com/dmehra2102/agro-marketplace/internal/config"
	"github.com/dmehra2102/agro-marketplace/internal/identity/jwtauth"
	modapp "github.com/dmehra2102/agro-marketplace/internal/moderation/application"
	modhttp "github.com/dmehra2102/agro-marketplace/internal/moderation/infrastructure/http"
	orderapp "github.com/dmehra2102/agro-marketplace/internal/order/application"
	orderhttp "github.com/dmehra2102/agro-marketplace/internal/order/infrastructure/http"
	"github.com/dmehra2102/agro-marketplace/pkg/idempotency"
	"github.com/dmehra2102/agro-marketplace/pkg/logging"
	"github.com/dmehra2102/agro-marketplace/pkg/outbox"
	"github.com/dmehra2102/agro-marketplace/pkg/shutdown"
	"github.com/dmehra2102/agro-marketplace/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "marketplace", cfg.OTelEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	var b *backend
	switch cfg.Store {
	case config.StoreMemory:
		b, err = memoryBackend(log, cfg)
	default:
		b, err = postgresBackend(ctx, log, cfg)
	}
	if err != nil {
		log.Error("backend setup failed", "store", cfg.Store, "err", err)
		os.Exit(1)
	}
	defer b.close()

	var orderOpts []orderapp.Option
	if cfg.CancelBlockedFrom != "" {
		orderOpts = append(orderOpts, orderapp.WithCancelPolicy(orderapp.BlockConsumerCancelFrom{From: cfg.CancelBlockedFrom}))
	}
	carts := cartapp.NewService(log, b.carts, b.catalog)
	checkout := checkoutapp.NewService(log, b.carts, b.catalog, b.committer)
	orders := orderapp.NewService(log, b.orders, orderOpts...)
	reports := modapp.NewService(log, b.reports)

	var checkoutMW []func(http.Handler) http.Handler
	if b.idem != nil {
		checkoutMW = append(checkoutMW, idempotency.Middleware(log, b.idem, "checkout"))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Middleware(log, jwtauth.NewResolver(cfg.JWTSecret)))
		carthttp.NewHandler(log, carts).Register(r)
		checkouthttp.NewHandler(log, checkout).Register(r, checkoutMW...)
		orderhttp.NewHandler(log, orders).Register(r)
		modhttp.NewHandler(log, reports).Register(r)
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	relay := outbox.NewRelay(log, b.outbox, b.dispatch, "marketplace-relay")
	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()
	if b.consumer != nil {
		go func() {
			if err := b.consumer.Run(ctx); err != nil {
				log.Error("catalog consumer stopped", "err", err)
				cancel()
			}
		}()
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	shutdown.Server(ctx, log, srv, 10*time.Second)
	log.Info("marketplace shutdown complete")
}
