package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"CatalogHooks/internal/app"
	"CatalogHooks/internal/auth"
	"CatalogHooks/internal/catalog"
	"CatalogHooks/internal/config"
	"CatalogHooks/internal/messaging"
	"CatalogHooks/internal/webhook"
	"CatalogHooks/pkg/kit"
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
	return cmd
}

func runServe(parent context.Context, cfg config.Config) error {
	log, err := kit.NewLogger(service, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	subs := webhook.NewRegistry()
	dispatcher := webhook.NewDispatcher(subs, webhook.Config{
		Workers:    cfg.WebhookWorkers,
		Timeout:    cfg.WebhookTimeout,
		RatePerSec: cfg.WebhookRatePerSec,
	}, log, reg)
	dispatcher.Start(context.WithoutCancel(ctx))

	notifiers := []catalog.Notifier{dispatcher}
	shutdown := []func(context.Context) error{dispatcher.Stop}

	if cfg.AMQPURL != "" {
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		defer conn.Close()

		publisher, err := messaging.NewRabbitPublisher(conn, cfg.AMQPQueue, log)
		if err != nil {
			return fmt.Errorf("init publisher: %w", err)
		}
		notifiers = append(notifiers, publisher)
		shutdown = append(shutdown, publisher.Close)
		log.Info("mirroring catalog events to amqp", zap.String("queue", cfg.AMQPQueue))
	}

	var seed []catalog.Fields
	if cfg.SeedCatalog {
		seed = catalog.DefaultSeed()
	}
	svc := catalog.NewService(catalog.NewMemStore(seed...), log, reg, notifiers...)

	h := app.NewHandler(app.Deps{
		Tokens:      auth.NewTokenMaker(cfg.JWTSecret, cfg.TokenTTL),
		Catalog:     svc,
		Subscribers: subs,
	}, app.HTTPDeps{
		Log:             log,
		Service:         service,
		Registry:        reg,
		MetricsEnabled:  cfg.MetricsToken != "",
		MetricsToken:    cfg.MetricsToken,
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
	})

	if err := kit.RunHTTPServer(ctx, cfg.Addr(), h, log, cfg.ShutdownTimeout, shutdown...); err != nil {
		log.Error("http server stopped", zap.Error(err))
		return err
	}
	log.Info("http server stopped")
	return nil
}
